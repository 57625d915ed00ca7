package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"storysketch/internal/model"
)

const (
	DefaultPlanModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image-preview"
)

// generator 是 genai.Models 中用到的部分
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config Gemini 客户端配置
type Config struct {
	APIKey      string
	PlanModel   string
	ImageModel  string
	Temperature float32
	Steps       int
	HTTPClient  *http.Client
}

// Client 同时提供故事规划与图片编辑
type Client struct {
	models      generator
	planModel   string
	imageModel  string
	temperature float32
	steps       int
	log         *logrus.Entry
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newClient(client.Models, cfg), nil
}

func newClient(models generator, cfg Config) *Client {
	if cfg.PlanModel == "" {
		cfg.PlanModel = DefaultPlanModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.Steps <= 0 {
		cfg.Steps = model.DefaultStepCount
	}
	return &Client{
		models:      models,
		planModel:   cfg.PlanModel,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		steps:       cfg.Steps,
		log:         logrus.WithField("component", "gemini"),
	}
}

// planSchema 约束模型输出为故事步骤数组
var planSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"textToSpeak":     {Type: genai.TypeString},
			"imageEditPrompt": {Type: genai.TypeString},
			"animation": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"zoom": {Type: genai.TypeNumber},
					"pan":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				},
				Required: []string{"zoom", "pan"},
			},
		},
		Required: []string{"textToSpeak", "imageEditPrompt", "animation"},
	},
}

// GenerateStoryPlan 让文本模型按 JSON schema 输出故事计划
func (c *Client) GenerateStoryPlan(ctx context.Context, prompt string) ([]model.StoryStep, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(model.PlanInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    planSchema,
	}
	if c.temperature > 0 {
		cfg.Temperature = genai.Ptr(c.temperature)
	}

	resp, err := c.models.GenerateContent(ctx, c.planModel, genai.Text(model.BuildPlanPrompt(prompt, c.steps)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate plan: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("gemini returned no text: %w", model.ErrInvalidPlan)
	}
	return model.ParsePlan(text)
}

// EditImage 把当前图片和编辑指令一起发给图像模型，返回第一张内联图片
func (c *Client) EditImage(ctx context.Context, imageBase64, instruction string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("decode input image: %w", err)
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(raw, http.DetectContentType(raw)),
		genai.NewPartFromText(instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := c.models.GenerateContent(ctx, c.imageModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini edit image: %w", err)
	}
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand == nil || cand.Content == nil {
				continue
			}
			for _, p := range cand.Content.Parts {
				if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
					return base64.StdEncoding.EncodeToString(p.InlineData.Data), nil
				}
			}
		}
	}
	if text := responseText(resp); text != "" {
		c.log.WithField("text", text).Warn("图像模型只返回了文本")
	}
	return "", model.ErrNoImage
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.Text != "" && !p.Thought {
				sb.WriteString(p.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}
