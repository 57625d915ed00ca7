package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedEditor 每次编辑前先等待限流器
type RateLimitedEditor struct {
	editor  ImageEditor
	limiter *rate.Limiter
}

// NewRateLimitedEditor interval 为两次编辑的最小间隔，burst 至少为 1
func NewRateLimitedEditor(editor ImageEditor, interval time.Duration, burst int) *RateLimitedEditor {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimitedEditor{
		editor:  editor,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (e *RateLimitedEditor) EditImage(ctx context.Context, imageBase64, instruction string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return e.editor.EditImage(ctx, imageBase64, instruction)
}
