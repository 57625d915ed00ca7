package volc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storysketch/internal/model"
)

// ImageEditor 用 Seedream 的图生图能力逐步编辑画面
type ImageEditor struct {
	ark   *ArkClient
	Model string
	Size  string
}

func NewImageEditor(ark *ArkClient, modelName, size string) *ImageEditor {
	return &ImageEditor{ark: ark, Model: modelName, Size: size}
}

// EditImage 输入输出都是不带前缀的 base64 图片
func (e *ImageEditor) EditImage(ctx context.Context, imageBase64, instruction string) (string, error) {
	ref, err := toDataURL(imageBase64)
	if err != nil {
		return "", err
	}
	imgs, err := e.ark.GenerateImages(ctx, ImageGenParams{
		Model:          e.Model,
		Prompt:         instruction,
		Size:           e.Size,
		ResponseFormat: "b64_json",
		ImageInputs:    []string{ref},
	})
	if errors.Is(err, ErrNoImages) {
		return "", fmt.Errorf("seedream: %w", model.ErrNoImage)
	}
	if err != nil {
		return "", err
	}

	out := imgs[0]
	if strings.HasPrefix(out, "data:") {
		if i := strings.Index(out, ","); i >= 0 {
			return out[i+1:], nil
		}
		return "", fmt.Errorf("malformed data url: %w", model.ErrNoImage)
	}
	data, err := e.ark.FetchImage(ctx, out)
	if err != nil {
		return "", fmt.Errorf("fetch generated image: %w", err)
	}
	if len(data) == 0 {
		return "", model.ErrNoImage
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func toDataURL(imageBase64 string) (string, error) {
	if strings.HasPrefix(imageBase64, "data:") {
		return imageBase64, nil
	}
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("decode input image: %w", err)
	}
	return "data:" + http.DetectContentType(raw) + ";base64," + imageBase64, nil
}
