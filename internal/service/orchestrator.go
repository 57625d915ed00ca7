package service

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"storysketch/internal/model"
)

const subscriberBuffer = 16

// Planner 根据用户创意生成故事计划
type Planner interface {
	GenerateStoryPlan(ctx context.Context, prompt string) ([]model.StoryStep, error)
}

// ImageEditor 在当前图片上按指令编辑，返回新图片（base64）
type ImageEditor interface {
	EditImage(ctx context.Context, imageBase64, instruction string) (string, error)
}

// Speaker 朗读一段文本，直到读完、出错或 ctx 取消
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// Orchestrator 故事编排器：规划 -> 逐步绘图 -> 朗读播放
type Orchestrator struct {
	planner Planner
	editor  ImageEditor
	speaker Speaker
	canvas  string
	log     *logrus.Entry

	mu      sync.Mutex
	state   model.Snapshot
	current *session
	subs    map[int]chan model.Snapshot
	nextSub int
	wg      sync.WaitGroup
}

// NewOrchestrator 创建编排器，log 为空时使用 logrus 默认 logger
func NewOrchestrator(planner Planner, editor ImageEditor, speaker Speaker, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		planner: planner,
		editor:  editor,
		speaker: speaker,
		canvas:  model.BlankCanvas(),
		log:     log,
		state:   model.IdleSnapshot(),
		subs:    make(map[int]chan model.Snapshot),
	}
}

// Submit 开始一次新的故事生成。提示词为空时只设置提示信息并返回 ValidationError。
// 返回前状态已切换到 planning_story，之前的会话会被取消。
func (o *Orchestrator) Submit(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		o.mu.Lock()
		o.state.Error = MsgEmptyPrompt
		o.publishLocked()
		o.mu.Unlock()
		return &ValidationError{}
	}

	s := newSession(prompt)

	o.mu.Lock()
	o.teardownLocked()
	o.current = s
	o.state = model.IdleSnapshot()
	o.state.Phase = model.PhasePlanningStory
	o.state.Prompt = prompt
	o.publishLocked()
	o.wg.Add(1)
	o.mu.Unlock()

	o.log.WithFields(logrus.Fields{"session": s.id, "prompt": prompt}).Info("开始生成故事")
	go o.run(s)
	return nil
}

// Reset 取消当前会话、停止朗读并清空全部状态，可重复调用
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.teardownLocked()
	o.state = model.IdleSnapshot()
	o.publishLocked()
}

// State 返回当前状态快照
func (o *Orchestrator) State() model.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Subscribe 订阅状态变化，先收到一次当前状态。
// 订阅者处理不及时会丢失中间状态，但总能拿到最新状态。
func (o *Orchestrator) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, subscriberBuffer)

	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	ch <- o.state.Clone()
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			close(ch)
			o.mu.Unlock()
		})
	}
}

// Wait 等待所有会话协程退出
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close 重置并等待后台协程退出
func (o *Orchestrator) Close() {
	o.Reset()
	o.Wait()
}

func (o *Orchestrator) run(s *session) {
	defer o.wg.Done()
	defer s.cancel()

	log := o.log.WithField("session", s.id)
	if !o.plan(s, log) {
		return
	}
	if !o.illustrate(s, log) {
		return
	}
	o.playback(s, log)
}

func (o *Orchestrator) plan(s *session, log *logrus.Entry) bool {
	steps, err := o.planner.GenerateStoryPlan(s.ctx, s.prompt)
	if err == nil && len(steps) == 0 {
		err = model.ErrEmptyPlan
	}
	if err != nil {
		if o.fail(s, &PlanningError{Err: err}) {
			log.WithError(err).Warn("故事规划失败")
		}
		return false
	}

	planned := make([]model.StoryStep, len(steps))
	for i, st := range steps {
		st.ImageSnapshot = ""
		planned[i] = st
	}
	ok := o.apply(s, func() {
		s.steps = planned
		o.state.Steps = append([]model.StoryStep(nil), planned...)
		o.state.Phase = model.PhaseGeneratingIllustrations
		o.state.Error = ""
	})
	if ok {
		log.WithField("steps", len(planned)).Info("故事规划完成，开始生成插画")
	}
	return ok
}

func (o *Orchestrator) illustrate(s *session, log *logrus.Entry) bool {
	buf := o.canvas
	for i := range s.steps {
		if s.cancelled() {
			log.Info("插画生成已取消")
			return false
		}

		img, err := o.editor.EditImage(s.ctx, buf, s.steps[i].ImageEditInstruction)
		if err == nil && img == "" {
			err = model.ErrNoImage
		}
		if err != nil {
			if o.fail(s, &EditError{Step: i, Err: err}) {
				log.WithError(err).WithField("step", i+1).Warn("图片编辑失败")
			}
			return false
		}

		buf = img
		if !o.apply(s, func() {
			s.steps[i].ImageSnapshot = img
			o.state.Steps[i].ImageSnapshot = img
			o.state.IllustratedSteps = i + 1
		}) {
			log.Info("插画生成已取消")
			return false
		}
		log.WithField("step", i+1).Debug("图片编辑完成")
	}

	return o.apply(s, func() {
		o.state.Phase = model.PhasePlaying
		o.state.Playing = true
		o.state.Error = ""
	})
}

func (o *Orchestrator) playback(s *session, log *logrus.Entry) {
	for i, step := range s.steps {
		if !o.apply(s, func() {
			o.state.CurrentStepIndex = i
			if step.ImageSnapshot != "" {
				o.state.CurrentImage = step.ImageSnapshot
			}
			a := step.Animation
			o.state.CurrentAnimation = &a
		}) {
			return
		}

		err := o.speaker.Speak(s.ctx, step.NarrationText)
		if s.cancelled() {
			log.Info("播放已停止")
			return
		}
		if err != nil {
			if o.fail(s, &NarrationError{Step: i, Err: err}) {
				log.WithError(err).WithField("step", i+1).Warn("朗读失败")
			}
			return
		}
	}

	if o.apply(s, func() {
		o.state.Phase = model.PhaseIdle
		o.state.Playing = false
		o.state.CurrentStepIndex = len(s.steps) - 1
		o.state.Error = ""
	}) {
		log.Info("故事播放完成")
	}
}

// apply 仅当会话仍是当前会话且未取消时执行 fn，检查与修改在同一把锁内完成
func (o *Orchestrator) apply(s *session, fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != s || s.cancelled() {
		return false
	}
	fn()
	o.publishLocked()
	return true
}

// fail 结束会话并展示错误，会话已取消时静默丢弃
func (o *Orchestrator) fail(s *session, err error) bool {
	return o.apply(s, func() {
		o.state.Error = UserMessage(err)
		o.state.Phase = model.PhaseIdle
		o.state.Playing = false
	})
}

func (o *Orchestrator) teardownLocked() {
	if o.current != nil {
		o.current.cancel()
		o.current = nil
	}
	o.speaker.Cancel()
}

func (o *Orchestrator) publishLocked() {
	if len(o.subs) == 0 {
		return
	}
	snap := o.state.Clone()
	for _, ch := range o.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
