package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storysketch/internal/model"
)

type planFunc func(ctx context.Context, prompt string) ([]model.StoryStep, error)

func (f planFunc) GenerateStoryPlan(ctx context.Context, prompt string) ([]model.StoryStep, error) {
	return f(ctx, prompt)
}

type editFunc func(ctx context.Context, image, instruction string) (string, error)

func (f editFunc) EditImage(ctx context.Context, image, instruction string) (string, error) {
	return f(ctx, image, instruction)
}

func TestStoryPlanTool(t *testing.T) {
	tool := NewStoryPlanTool(planFunc(func(_ context.Context, prompt string) ([]model.StoryStep, error) {
		return model.DefaultPlan(prompt, 2), nil
	}))

	info, err := tool.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "story_plan", info.Name)

	out, err := tool.InvokableRun(context.Background(), `{"idea":"a fox finds a lantern"}`)
	require.NoError(t, err)
	var resp StoryPlanResp
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Steps, 2)

	_, err = tool.InvokableRun(context.Background(), `{"idea":"  "}`)
	assert.Error(t, err)
	_, err = tool.InvokableRun(context.Background(), `not json`)
	assert.Error(t, err)
}

func TestStoryPlanTool_EmptyPlan(t *testing.T) {
	tool := NewStoryPlanTool(planFunc(func(context.Context, string) ([]model.StoryStep, error) {
		return nil, nil
	}))
	_, err := tool.InvokableRun(context.Background(), `{"idea":"a fox"}`)
	assert.ErrorIs(t, err, model.ErrEmptyPlan)
}

func TestImageEditTool(t *testing.T) {
	var gotImage string
	tool := NewImageEditTool(editFunc(func(_ context.Context, image, instruction string) (string, error) {
		gotImage = image
		return "edited:" + instruction, nil
	}))

	out, err := tool.InvokableRun(context.Background(), `{"instruction":"Draw a forest."}`)
	require.NoError(t, err)
	assert.Equal(t, model.BlankCanvas(), gotImage)
	assert.JSONEq(t, `{"image":"edited:Draw a forest."}`, out)

	_, err = tool.InvokableRun(context.Background(), `{"image":"abc","instruction":"Add a fox."}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", gotImage)

	_, err = tool.InvokableRun(context.Background(), `{"image":"abc"}`)
	assert.Error(t, err)
}

func TestImageEditTool_Errors(t *testing.T) {
	tool := NewImageEditTool(editFunc(func(context.Context, string, string) (string, error) {
		return "", nil
	}))
	_, err := tool.InvokableRun(context.Background(), `{"instruction":"x"}`)
	assert.ErrorIs(t, err, model.ErrNoImage)

	boom := errors.New("boom")
	tool = NewImageEditTool(editFunc(func(context.Context, string, string) (string, error) {
		return "", boom
	}))
	_, err = tool.InvokableRun(context.Background(), `{"instruction":"x"}`)
	assert.ErrorIs(t, err, boom)
}
