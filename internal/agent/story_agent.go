package agent

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"storysketch/internal/model"
	"storysketch/internal/service"
)

const defaultSessionTTL = 30 * time.Minute

// OrchestratorFactory 为新会话创建编排器，每个会话有自己的朗读引擎
type OrchestratorFactory func(log *logrus.Entry) *service.Orchestrator

// StoryAgent 故事速写助手，按会话管理编排器
type StoryAgent struct {
	newOrchestrator OrchestratorFactory
	sessions        *cache.Cache // session id -> *service.Orchestrator
	createMu        sync.Mutex
	log             *logrus.Entry
}

// NewStoryAgent ttl 为会话空闲回收时间，回收时会重置该会话
func NewStoryAgent(factory OrchestratorFactory, ttl time.Duration) *StoryAgent {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	sessions := cache.New(ttl, ttl/2)
	sessions.OnEvicted(func(id string, v interface{}) {
		if o, ok := v.(*service.Orchestrator); ok {
			o.Reset()
		}
		logrus.WithField("session", id).Info("会话已回收")
	})
	return &StoryAgent{
		newOrchestrator: factory,
		sessions:        sessions,
		log:             logrus.WithField("component", "story_agent"),
	}
}

// Execute 在会话中提交一个故事创意，sessionID 为空时创建新会话。
// 返回会话 ID 和提交后的状态；提示词为空时返回 *service.ValidationError，且不会创建会话。
func (a *StoryAgent) Execute(sessionID, prompt string) (string, model.Snapshot, error) {
	if strings.TrimSpace(prompt) == "" {
		o, ok := a.Session(sessionID)
		if !ok {
			snap := model.IdleSnapshot()
			snap.Error = service.MsgEmptyPrompt
			return sessionID, snap, &service.ValidationError{}
		}
		err := o.Submit(prompt)
		return sessionID, o.State(), err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	o := a.getOrCreate(sessionID)
	err := o.Submit(prompt)
	return sessionID, o.State(), err
}

// Session 获取会话的编排器并刷新过期时间
func (a *StoryAgent) Session(sessionID string) (*service.Orchestrator, bool) {
	v, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	o := v.(*service.Orchestrator)
	a.sessions.SetDefault(sessionID, o)
	return o, true
}

// State 获取会话状态
func (a *StoryAgent) State(sessionID string) (model.Snapshot, bool) {
	o, ok := a.Session(sessionID)
	if !ok {
		return model.Snapshot{}, false
	}
	return o.State(), true
}

// Reset 重置会话，会话不存在时返回 false
func (a *StoryAgent) Reset(sessionID string) bool {
	o, ok := a.Session(sessionID)
	if !ok {
		return false
	}
	o.Reset()
	return true
}

// Info 获取agent信息
func (a *StoryAgent) Info() map[string]interface{} {
	states := make([]string, 0, len(model.Phases))
	for _, p := range model.Phases {
		states = append(states, string(p))
	}
	return map[string]interface{}{
		"name":        "story_sketch_agent",
		"description": "故事速写助手，根据一句话创意生成分步故事，逐步绘制插画并朗读播放。",
		"states":      states,
		"sessions":    a.sessions.ItemCount(),
	}
}

// Close 重置全部会话并等待后台任务退出
func (a *StoryAgent) Close() {
	items := a.sessions.Items()
	a.sessions.Flush()
	for _, it := range items {
		if o, ok := it.Object.(*service.Orchestrator); ok {
			o.Close()
		}
	}
}

func (a *StoryAgent) getOrCreate(sessionID string) *service.Orchestrator {
	if o, ok := a.Session(sessionID); ok {
		return o
	}

	a.createMu.Lock()
	defer a.createMu.Unlock()
	if v, ok := a.sessions.Get(sessionID); ok {
		return v.(*service.Orchestrator)
	}
	o := a.newOrchestrator(a.log.WithField("session_id", sessionID))
	a.sessions.SetDefault(sessionID, o)
	a.log.WithField("session_id", sessionID).Info("创建新会话")
	return o
}
