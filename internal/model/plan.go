package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultStepCount 每个故事默认的句子数
const DefaultStepCount = 8

// PlanInstruction 故事规划的系统指令
const PlanInstruction = `You are a cinematic storyteller and illustrator for children. Respond only with a valid JSON array, no commentary.`

const planPromptTemplate = `You are a cinematic storyteller and illustrator for children. Based on the user's idea, create a simple, charming story. Break the story down into a sequence of %d short, speakable sentences.
The visual style should be a simple, colorful children's book illustration on a canvas.

For each sentence, provide:
1.  "textToSpeak": the sentence to be read aloud.
2.  "imageEditPrompt": a specific, incremental instruction for an image editing AI. The first instruction must create the background scene. Subsequent instructions must add or modify elements on the existing image.
    - CRITICAL: To make the change obvious, the new element must be drawn in a **contrasting or complementary color** to its surroundings.
    - CRITICAL: Also, use an **"annotation pen"** to highlight the change, for example: "add a happy sun in the top right corner, circled with a glowing yellow arrow".
3.  "animation": {"zoom": number, "pan": [x, y]} to create a dynamic "Ken Burns" camera effect. 1.0 is no zoom, typically between 1.0 and 1.5. The pan values are CSS transform-origin percentages, e.g. ["50%%", "50%%"] for center.

User idea: "%s"`

// BuildPlanPrompt 根据用户创意生成故事规划提示词
func BuildPlanPrompt(idea string, steps int) string {
	if steps <= 0 {
		steps = DefaultStepCount
	}
	return fmt.Sprintf(planPromptTemplate, steps, idea)
}

var (
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")
	panRegex       = regexp.MustCompile(`^-?\d+(\.\d+)?%$`)
)

// planStep 模型输出的单步结构
type planStep struct {
	TextToSpeak     string `json:"textToSpeak"`
	ImageEditPrompt string `json:"imageEditPrompt"`
	Animation       struct {
		Zoom float64  `json:"zoom"`
		Pan  []string `json:"pan"`
	} `json:"animation"`
}

// ParsePlan 解析模型返回的故事计划，并做规范化
func ParsePlan(raw string) ([]StoryStep, error) {
	content := extractJSON(raw)

	var steps []planStep
	if err := json.Unmarshal([]byte(content), &steps); err != nil {
		var wrapped struct {
			Steps []planStep `json:"steps"`
		}
		if err2 := json.Unmarshal([]byte(content), &wrapped); err2 != nil || wrapped.Steps == nil {
			return nil, fmt.Errorf("%w: %v, raw: %s", ErrInvalidPlan, err, truncate(content, 200))
		}
		steps = wrapped.Steps
	}
	if len(steps) == 0 {
		return nil, ErrEmptyPlan
	}

	out := make([]StoryStep, 0, len(steps))
	for i, s := range steps {
		text := strings.TrimSpace(s.TextToSpeak)
		instruction := strings.TrimSpace(s.ImageEditPrompt)
		if text == "" || instruction == "" {
			return nil, fmt.Errorf("%w: step %d is missing textToSpeak or imageEditPrompt", ErrInvalidPlan, i+1)
		}
		out = append(out, StoryStep{
			NarrationText:        text,
			ImageEditInstruction: instruction,
			Animation:            NormalizeAnimation(s.Animation.Zoom, s.Animation.Pan),
		})
	}
	return out, nil
}

// NormalizeAnimation 缩放小于 1 时取 1，平移不是两个百分比时居中
func NormalizeAnimation(zoom float64, pan []string) Animation {
	a := Animation{Zoom: zoom, Pan: [2]string{"50%", "50%"}}
	if a.Zoom < 1 {
		a.Zoom = 1
	}
	if len(pan) == 2 {
		x, y := strings.TrimSpace(pan[0]), strings.TrimSpace(pan[1])
		if panRegex.MatchString(x) && panRegex.MatchString(y) {
			a.Pan = [2]string{x, y}
		}
	}
	return a
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := jsonBlockRegex.FindStringSubmatch(raw); len(m) > 1 {
		return m[1]
	}
	first := strings.Index(raw, "[")
	last := strings.LastIndex(raw, "]")
	if first != -1 && last > first && !strings.HasPrefix(raw, "{") {
		return raw[first : last+1]
	}
	return raw
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// DefaultPlan 离线（mock）模式下使用的固定故事计划
func DefaultPlan(idea string, steps int) []StoryStep {
	if steps <= 0 {
		steps = DefaultStepCount
	}
	idea = strings.TrimSpace(idea)
	beats := []struct {
		text, edit string
		zoom       float64
		pan        [2]string
	}{
		{"Once upon a time, there was %s.", "Paint a soft meadow background for a story about %s.", 1.0, [2]string{"50%", "50%"}},
		{"Every day brought a new little surprise for %s.", "Add a bright red flower near the center, circled with a glowing yellow arrow.", 1.2, [2]string{"50%", "60%"}},
		{"A friendly bird came to visit %s.", "Add a small blue bird in the top left corner, circled with a glowing orange arrow.", 1.3, [2]string{"20%", "20%"}},
		{"Together they watched the sun go down.", "Add an orange sunset in the top right corner, circled with a glowing purple arrow.", 1.1, [2]string{"80%", "25%"}},
	}
	out := make([]StoryStep, 0, steps)
	for i := 0; i < steps; i++ {
		b := beats[i%len(beats)]
		text, edit := b.text, b.edit
		if strings.Contains(text, "%s") {
			text = fmt.Sprintf(text, idea)
		}
		if strings.Contains(edit, "%s") {
			edit = fmt.Sprintf(edit, idea)
		}
		out = append(out, StoryStep{
			NarrationText:        text,
			ImageEditInstruction: edit,
			Animation:            Animation{Zoom: b.zoom, Pan: b.pan},
		})
	}
	return out
}
