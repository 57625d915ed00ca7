package model

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidPlan 模型返回的故事计划结构不合法
	ErrInvalidPlan = errors.New("invalid story plan")
	// ErrEmptyPlan 故事计划没有任何步骤
	ErrEmptyPlan = errors.New("story plan has no steps")
	// ErrNoImage 图片编辑服务没有返回图片
	ErrNoImage = errors.New("image edit returned no image")
)

// IsRateLimited 判断错误是否由服务限流（HTTP 429）引起
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl interface{ RateLimited() bool }
	if errors.As(err, &rl) && rl.RateLimited() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
