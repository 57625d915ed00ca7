package speech

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Voice 真正发声的实现，需在 ctx 取消后尽快返回
type Voice interface {
	Say(ctx context.Context, text string) error
}

// Engine 朗读引擎，同一时间只有一段朗读，新的朗读会打断上一段
type Engine struct {
	voice Voice
	log   *logrus.Entry

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewEngine(voice Voice, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{voice: voice, log: log}
}

// Speak 朗读 text，直到读完、被打断或 ctx 取消。
// ctx 已取消时直接返回，不会打断正在进行的朗读。
func (e *Engine) Speak(ctx context.Context, text string) error {
	e.mu.Lock()
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.cancel != nil {
		e.cancel()
	}
	uctx, cancel := context.WithCancel(ctx)
	e.seq++
	id := e.seq
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if e.seq == id {
			e.cancel = nil
		}
		e.mu.Unlock()
		cancel()
	}()

	e.log.WithField("chars", len(text)).Debug("开始朗读")
	if err := e.voice.Say(uctx, text); err != nil {
		if uctx.Err() != nil {
			return uctx.Err()
		}
		return err
	}
	return nil
}

// Cancel 立即停止当前朗读，没有朗读时什么也不做
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
