package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"storysketch/internal/model"
	"storysketch/internal/service"
)

// StoryPlanTool 实现eino框架的故事规划工具
type StoryPlanTool struct {
	planner service.Planner
}

// StoryPlanArgs 故事规划请求参数
type StoryPlanArgs struct {
	Idea string `json:"idea"` // 故事创意
}

// StoryPlanResp 故事规划响应
type StoryPlanResp struct {
	Steps   []model.StoryStep `json:"steps"`
	Count   int               `json:"count"`
	Message string            `json:"message"`
}

func NewStoryPlanTool(planner service.Planner) *StoryPlanTool {
	return &StoryPlanTool{planner: planner}
}

// Info 获取故事规划工具信息
func (t *StoryPlanTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"idea": {Type: schema.String, Required: true, Desc: "故事创意，一句话即可"},
	}
	return &schema.ToolInfo{
		Name:        "story_plan",
		Desc:        "把故事创意拆成若干个可朗读的步骤，每步带图片编辑指令和镜头参数",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 执行故事规划
func (t *StoryPlanTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args StoryPlanArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Idea) == "" {
		return "", errors.New("idea required")
	}

	steps, err := t.planner.GenerateStoryPlan(ctx, args.Idea)
	if err != nil {
		return "", err
	}
	if len(steps) == 0 {
		return "", model.ErrEmptyPlan
	}

	b, err := json.Marshal(StoryPlanResp{Steps: steps, Count: len(steps), Message: "故事规划完成"})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// 确保StoryPlanTool实现了einotool.InvokableTool接口
var _ einotool.InvokableTool = (*StoryPlanTool)(nil)
