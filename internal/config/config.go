package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 可选的模型服务
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
	ProviderMock   = "mock"
)

var ValidProviders = []string{ProviderGemini, ProviderArk, ProviderMock}

// Config 全局配置
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Provider string        `yaml:"provider"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	Ark      ArkConfig     `yaml:"ark"`
	Story    StoryConfig   `yaml:"story"`
	Speech   SpeechConfig  `yaml:"speech"`
	Logging  LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	SessionTTL string `yaml:"session_ttl"` // 会话空闲多久后回收
}

type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	PlanModel   string  `yaml:"plan_model"`
	ImageModel  string  `yaml:"image_model"`
	Temperature float32 `yaml:"temperature"`
}

type ArkConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Region     string `yaml:"region"`
	ChatModel  string `yaml:"chat_model"`
	ImageModel string `yaml:"image_model"`
	ImageSize  string `yaml:"image_size"`
	Timeout    string `yaml:"timeout"`
	Mock       bool   `yaml:"mock"`
}

type StoryConfig struct {
	StepCount    int    `yaml:"step_count"`
	EditInterval string `yaml:"edit_interval"` // 两次图片编辑之间的最小间隔，空表示不限
	EditBurst    int    `yaml:"edit_burst"`
}

type SpeechConfig struct {
	Engine         string   `yaml:"engine"` // paced 或 command
	WordsPerMinute int      `yaml:"words_per_minute"`
	Pause          string   `yaml:"pause"`
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text 或 json
	File   string `yaml:"file"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: "30m",
		},
		Provider: ProviderGemini,
		Gemini: GeminiConfig{
			PlanModel:   "gemini-2.5-flash",
			ImageModel:  "gemini-2.5-flash-image-preview",
			Temperature: 0.8,
		},
		Ark: ArkConfig{
			BaseURL:    "https://ark.cn-beijing.volces.com",
			Region:     "cn-beijing",
			ChatModel:  "doubao-seed-1-6-250615",
			ImageModel: "doubao-seedream-4-0-250828",
			ImageSize:  "1024x1024",
			Timeout:    "60s",
		},
		Story: StoryConfig{
			StepCount:    8,
			EditInterval: "",
			EditBurst:    1,
		},
		Speech: SpeechConfig{
			Engine:         "paced",
			WordsPerMinute: 160,
			Pause:          "600ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "app.log",
		},
	}
}

// Load 读取 YAML 配置文件，文件不存在时使用默认配置，最后应用环境变量
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save 写入 YAML 配置文件
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv("ARK_API_KEY"); key != "" {
		c.Ark.APIKey = key
	}
	if v := strings.ToLower(os.Getenv("ARK_MOCK")); v == "1" || v == "true" {
		c.Ark.Mock = true
	}
	if p := os.Getenv("STORYSKETCH_PROVIDER"); p != "" {
		c.Provider = strings.ToLower(p)
	}
	if addr := os.Getenv("STORYSKETCH_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetSessionTTL 会话空闲回收时间
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Server.SessionTTL, 30*time.Minute)
}

// GetArkTimeout 方舟请求超时
func (c *Config) GetArkTimeout() time.Duration {
	return parseDuration(c.Ark.Timeout, 60*time.Second)
}

// GetEditInterval 两次图片编辑的最小间隔，0 表示不限流
func (c *Config) GetEditInterval() time.Duration {
	return parseDuration(c.Story.EditInterval, 0)
}

// GetSpeechPause 每句朗读后的停顿
func (c *Config) GetSpeechPause() time.Duration {
	return parseDuration(c.Speech.Pause, 0)
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini API key not configured (set GEMINI_API_KEY)")
		}
	case ProviderArk:
		if c.Ark.APIKey == "" && !c.Ark.Mock {
			return fmt.Errorf("ark API key not configured (set ARK_API_KEY or ARK_MOCK=1)")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("invalid provider: %s (valid: %v)", c.Provider, ValidProviders)
	}

	if c.Story.StepCount <= 0 {
		return fmt.Errorf("story.step_count must be positive, got %d", c.Story.StepCount)
	}
	for name, v := range map[string]string{
		"server.session_ttl":  c.Server.SessionTTL,
		"ark.timeout":         c.Ark.Timeout,
		"story.edit_interval": c.Story.EditInterval,
		"speech.pause":        c.Speech.Pause,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	switch c.Speech.Engine {
	case "paced", "":
	case "command":
		if c.Speech.Command == "" {
			return fmt.Errorf("speech.command is required for the command engine")
		}
	default:
		return fmt.Errorf("invalid speech engine: %s (valid: paced, command)", c.Speech.Engine)
	}
	return nil
}
