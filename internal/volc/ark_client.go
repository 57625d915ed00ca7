package volc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBase    = "https://ark.cn-beijing.volces.com"
	defaultTimeout = 60 * time.Second

	// 1x1 PNG，mock 模式下作为生成结果
	mockPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR4nGNgYAAAAAMAASsJTYQAAAAASUVORK5CYII="
)

// ErrNoImages 接口调用成功但没有返回任何图片
var ErrNoImages = errors.New("no images returned")

// StatusError 方舟接口返回非 2xx
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string     { return fmt.Sprintf("http %d: %s", e.Code, e.Body) }
func (e *StatusError) RateLimited() bool { return e.Code == http.StatusTooManyRequests }

// Options 客户端配置
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Mock    bool
}

type ArkClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Mock       bool
	log        *logrus.Entry
}

func NewArkClient(opts Options) *ArkClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBase
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &ArkClient{
		BaseURL:    strings.TrimRight(opts.BaseURL, "/"),
		APIKey:     opts.APIKey,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		Mock:       opts.Mock,
		log:        logrus.WithField("component", "ark"),
	}
}

type ImageGenParams struct {
	Model          string
	Prompt         string
	Size           string
	ResponseFormat string   // url 或 b64_json
	ImageInputs    []string // 参考图，URL 或 data URL
}

// GenerateImages 调用 Seedream 生成或编辑图片，返回 URL 或 data URL
func (c *ArkClient) GenerateImages(ctx context.Context, p ImageGenParams) ([]string, error) {
	if c.Mock {
		return []string{"data:image/png;base64," + mockPixel}, nil
	}
	if p.Model == "" {
		p.Model = "doubao-seedream-4-0-250828"
	}
	if p.Size == "" {
		p.Size = "1024x1024"
	}
	body := map[string]any{
		"model":     p.Model,
		"prompt":    p.Prompt,
		"size":      p.Size,
		"watermark": false,
	}
	if p.ResponseFormat != "" {
		body["response_format"] = p.ResponseFormat
	}
	if len(p.ImageInputs) == 1 {
		body["image"] = p.ImageInputs[0]
	} else if len(p.ImageInputs) > 1 {
		body["image"] = p.ImageInputs
	}

	var resp struct {
		Data []struct {
			URL    string `json:"url"`
			B64    string `json:"b64_json"`
			Format string `json:"format"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/v3/images/generations", body, &resp); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL != "" {
			urls = append(urls, d.URL)
			continue
		}
		if d.B64 != "" {
			fmtType := d.Format
			if fmtType == "" {
				fmtType = "jpeg"
			}
			urls = append(urls, "data:image/"+fmtType+";base64,"+d.B64)
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoImages
	}
	return urls, nil
}

// FetchImage 下载生成结果的图片 URL
func (c *ArkClient) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &StatusError{Code: res.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (c *ArkClient) postJSON(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"path":    path,
		"status":  res.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("ark 请求完成")
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{Code: res.StatusCode, Body: string(bodyBytes)}
	}
	return json.Unmarshal(bodyBytes, out)
}
