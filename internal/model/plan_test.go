package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []StoryStep
		wantErr error
	}{
		{
			name: "plain array",
			raw:  `[{"textToSpeak":"A fox woke up.","imageEditPrompt":"Draw a forest.","animation":{"zoom":1.2,"pan":["30%","40%"]}}]`,
			want: []StoryStep{{
				NarrationText:        "A fox woke up.",
				ImageEditInstruction: "Draw a forest.",
				Animation:            Animation{Zoom: 1.2, Pan: [2]string{"30%", "40%"}},
			}},
		},
		{
			name: "fenced json with prose",
			raw:  "Here you go:\n```json\n[{\"textToSpeak\":\"Hi.\",\"imageEditPrompt\":\"Add a sun.\",\"animation\":{\"zoom\":1,\"pan\":[\"50%\",\"50%\"]}}]\n```",
			want: []StoryStep{{
				NarrationText:        "Hi.",
				ImageEditInstruction: "Add a sun.",
				Animation:            Animation{Zoom: 1, Pan: [2]string{"50%", "50%"}},
			}},
		},
		{
			name: "object with steps and bad animation",
			raw:  `{"steps":[{"textToSpeak":"Hi.","imageEditPrompt":"Add a moon.","animation":{"zoom":0.4,"pan":["left","top"]}}]}`,
			want: []StoryStep{{
				NarrationText:        "Hi.",
				ImageEditInstruction: "Add a moon.",
				Animation:            Animation{Zoom: 1, Pan: [2]string{"50%", "50%"}},
			}},
		},
		{
			name:    "empty array",
			raw:     `[]`,
			wantErr: ErrEmptyPlan,
		},
		{
			name:    "missing narration",
			raw:     `[{"textToSpeak":"  ","imageEditPrompt":"Add a moon."}]`,
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "not json",
			raw:     `once upon a time`,
			wantErr: ErrInvalidPlan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlan(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAnimation(t *testing.T) {
	assert.Equal(t, Animation{Zoom: 1.5, Pan: [2]string{"100%", "0%"}}, NormalizeAnimation(1.5, []string{" 100% ", "0%"}))
	assert.Equal(t, Animation{Zoom: 1, Pan: [2]string{"50%", "50%"}}, NormalizeAnimation(0, nil))
	assert.Equal(t, Animation{Zoom: 1, Pan: [2]string{"50%", "50%"}}, NormalizeAnimation(1, []string{"10%"}))
}

func TestBuildPlanPrompt(t *testing.T) {
	p := BuildPlanPrompt("a fox finds a lantern", 3)
	assert.Contains(t, p, "sequence of 3 short")
	assert.Contains(t, p, `User idea: "a fox finds a lantern"`)
	assert.Contains(t, p, `["50%", "50%"]`)

	assert.Contains(t, BuildPlanPrompt("x", 0), fmt.Sprintf("sequence of %d short", DefaultStepCount))
}

func TestDefaultPlan(t *testing.T) {
	steps := DefaultPlan("a brave snail", 5)
	require.Len(t, steps, 5)
	assert.Contains(t, steps[0].NarrationText, "a brave snail")
	for _, s := range steps {
		assert.NotEmpty(t, s.ImageEditInstruction)
		assert.GreaterOrEqual(t, s.Animation.Zoom, 1.0)
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.False(t, IsRateLimited(nil))
	assert.True(t, IsRateLimited(errors.New("Error 429, Message: quota")))
	assert.True(t, IsRateLimited(fmt.Errorf("wrap: %w", rateLimitErr{})))
	assert.False(t, IsRateLimited(errors.New("boom")))
}

type rateLimitErr struct{}

func (rateLimitErr) Error() string     { return "slow down" }
func (rateLimitErr) RateLimited() bool { return true }

func TestSnapshotCompact(t *testing.T) {
	s := Snapshot{
		Steps:            []StoryStep{{NarrationText: "a", ImageSnapshot: "img"}},
		CurrentImage:     "img",
		CurrentAnimation: &Animation{Zoom: 1.1},
	}
	c := s.Compact()
	assert.Empty(t, c.Steps[0].ImageSnapshot)
	assert.Equal(t, "img", c.CurrentImage)
	assert.Equal(t, "img", s.Steps[0].ImageSnapshot)

	c.CurrentAnimation.Zoom = 2
	assert.Equal(t, 1.1, s.CurrentAnimation.Zoom)
}
