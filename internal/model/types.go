package model

// Phase 编排器当前所处阶段
type Phase string

const (
	PhaseIdle                    Phase = "idle"
	PhasePlanningStory           Phase = "planning_story"
	PhaseGeneratingIllustrations Phase = "generating_illustrations"
	PhasePlaying                 Phase = "playing"
)

// Phases 按流转顺序列出全部阶段
var Phases = []Phase{PhaseIdle, PhasePlanningStory, PhaseGeneratingIllustrations, PhasePlaying}

// Animation 镜头参数（Ken Burns 效果）
type Animation struct {
	Zoom float64   `json:"zoom"` // 缩放倍数，>= 1.0
	Pan  [2]string `json:"pan"`  // transform-origin 百分比，如 ["50%", "50%"]
}

// StoryStep 故事的一个节拍
type StoryStep struct {
	NarrationText        string    `json:"narration_text"`           // 朗读文本
	ImageEditInstruction string    `json:"image_edit_instruction"`   // 图片编辑指令
	Animation            Animation `json:"animation"`                // 镜头参数
	ImageSnapshot        string    `json:"image_snapshot,omitempty"` // 编辑后的图片（base64）
}

// Snapshot 编排器对外暴露的只读状态
type Snapshot struct {
	Phase            Phase       `json:"phase"`
	Prompt           string      `json:"prompt"`
	Steps            []StoryStep `json:"steps"`
	CurrentStepIndex int         `json:"current_step_index"`
	CurrentImage     string      `json:"current_image,omitempty"`
	CurrentAnimation *Animation  `json:"current_animation,omitempty"`
	Error            string      `json:"error,omitempty"`
	Playing          bool        `json:"playing"`
	IllustratedSteps int         `json:"illustrated_steps"`
}

// IdleSnapshot 返回清空后的空闲状态
func IdleSnapshot() Snapshot {
	return Snapshot{Phase: PhaseIdle, Steps: []StoryStep{}, CurrentStepIndex: -1}
}

// Clone 深拷贝，避免调用方修改内部状态
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Steps = make([]StoryStep, len(s.Steps))
	copy(out.Steps, s.Steps)
	if s.CurrentAnimation != nil {
		a := *s.CurrentAnimation
		out.CurrentAnimation = &a
	}
	return out
}

// Compact 去掉每一步的图片数据，只保留当前画面，用于事件推送
func (s Snapshot) Compact() Snapshot {
	out := s.Clone()
	for i := range out.Steps {
		out.Steps[i].ImageSnapshot = ""
	}
	return out
}
