package service

import (
	"errors"
	"fmt"

	"storysketch/internal/model"
)

// 展示给用户的错误提示
const (
	MsgEmptyPrompt   = "Please enter a story idea."
	MsgServiceBusy   = "The service is busy. Please try again in a moment."
	MsgPlanFailed    = "Failed to create the story plan. Please try again."
	MsgEmptyPlan     = "Story generation failed to return any steps."
	MsgNoImage       = "Image editing failed to return an image."
	MsgEditFailed    = "Failed to illustrate the story. Please try again."
	MsgNarrationFail = "A narration error occurred."
)

// ValidationError 提示词为空
type ValidationError struct{}

func (e *ValidationError) Error() string   { return "empty prompt" }
func (e *ValidationError) Message() string { return MsgEmptyPrompt }

// PlanningError 故事规划失败
type PlanningError struct {
	Err error
}

func (e *PlanningError) Error() string { return fmt.Sprintf("generate story plan: %v", e.Err) }
func (e *PlanningError) Unwrap() error { return e.Err }

func (e *PlanningError) Message() string {
	switch {
	case model.IsRateLimited(e.Err):
		return MsgServiceBusy
	case errors.Is(e.Err, model.ErrEmptyPlan):
		return MsgEmptyPlan
	default:
		return MsgPlanFailed
	}
}

// EditError 某一步的图片编辑失败
type EditError struct {
	Step int
	Err  error
}

func (e *EditError) Error() string { return fmt.Sprintf("edit image for step %d: %v", e.Step+1, e.Err) }
func (e *EditError) Unwrap() error { return e.Err }

func (e *EditError) Message() string {
	switch {
	case errors.Is(e.Err, model.ErrNoImage):
		return MsgNoImage
	case model.IsRateLimited(e.Err):
		return MsgServiceBusy
	default:
		return MsgEditFailed
	}
}

// NarrationError 朗读失败
type NarrationError struct {
	Step int
	Err  error
}

func (e *NarrationError) Error() string   { return fmt.Sprintf("narrate step %d: %v", e.Step+1, e.Err) }
func (e *NarrationError) Unwrap() error   { return e.Err }
func (e *NarrationError) Message() string { return MsgNarrationFail }

// UserMessage 提取可展示给用户的错误信息
func UserMessage(err error) string {
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}
