package service

import (
	"context"
	"sync/atomic"

	"storysketch/internal/model"
)

var sessionSeq atomic.Uint64

// session 一次提交对应的生成会话，ctx 即该会话的取消令牌
type session struct {
	id     uint64
	prompt string
	ctx    context.Context
	cancel context.CancelFunc
	steps  []model.StoryStep
}

func newSession(prompt string) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:     sessionSeq.Add(1),
		prompt: prompt,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *session) cancelled() bool {
	return s.ctx.Err() != nil
}
