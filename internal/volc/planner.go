package volc

import (
	"context"
	"fmt"

	arkmodel "github.com/cloudwego/eino-ext/components/model/ark"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"storysketch/internal/model"
)

// PlannerConfig 故事规划模型配置
type PlannerConfig struct {
	Model  string
	Region string
	Steps  int
}

// StoryPlanner 通过方舟对话模型生成故事计划，graph 为 模板 -> 模型
type StoryPlanner struct {
	runnable compose.Runnable[map[string]any, *schema.Message]
	steps    int
	mock     bool
	log      *logrus.Entry
}

func NewStoryPlanner(ctx context.Context, ark *ArkClient, cfg PlannerConfig) (*StoryPlanner, error) {
	if ark.Mock {
		return &StoryPlanner{steps: stepsOrDefault(cfg.Steps), mock: true, log: ark.log}, nil
	}
	chatModel, err := arkmodel.NewChatModel(ctx, &arkmodel.ChatModelConfig{
		BaseURL:    ark.BaseURL + "/api/v3",
		Region:     cfg.Region,
		APIKey:     ark.APIKey,
		HTTPClient: ark.HTTPClient,
		Model:      cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newStoryPlanner(ctx, chatModel, cfg.Steps, ark.log)
}

func newStoryPlanner(ctx context.Context, chatModel einomodel.BaseChatModel, steps int, log *logrus.Entry) (*StoryPlanner, error) {
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage(model.PlanInstruction),
		schema.UserMessage("{request}"))

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("template", template); err != nil {
		return nil, fmt.Errorf("failed to add template node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("failed to add chat model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "template"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("template", "model"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, err
	}
	runnable, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph: %w", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &StoryPlanner{runnable: runnable, steps: stepsOrDefault(steps), log: log}, nil
}

func (p *StoryPlanner) GenerateStoryPlan(ctx context.Context, idea string) ([]model.StoryStep, error) {
	if p.mock {
		return model.DefaultPlan(idea, p.steps), nil
	}
	content, err := p.runLLM(ctx, model.BuildPlanPrompt(idea, p.steps))
	if err != nil {
		return nil, err
	}
	steps, err := model.ParsePlan(content)
	if err != nil {
		p.log.WithError(err).Warn("故事计划解析失败")
		return nil, err
	}
	return steps, nil
}

// runLLM 用户请求作为模板变量传入，内容里的花括号不会被当成占位符
func (p *StoryPlanner) runLLM(ctx context.Context, request string) (string, error) {
	res, err := p.runnable.Invoke(ctx, map[string]any{"request": request})
	if err != nil {
		return "", fmt.Errorf("graph invocation failed: %w", err)
	}
	return res.Content, nil
}

func stepsOrDefault(n int) int {
	if n <= 0 {
		return model.DefaultStepCount
	}
	return n
}
