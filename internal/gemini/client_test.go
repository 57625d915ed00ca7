package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"storysketch/internal/model"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (g *fakeGenerator) GenerateContent(_ context.Context, m string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.model, g.contents, g.config = m, contents, cfg
	return g.resp, g.err
}

func partsResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}},
	}
}

func TestGenerateStoryPlan(t *testing.T) {
	gen := &fakeGenerator{resp: partsResponse(&genai.Part{Text: `[
		{"textToSpeak": "A fox walked into the woods.", "imageEditPrompt": "Draw a forest.", "animation": {"zoom": 1.2, "pan": ["40%", "60%"]}}
	]`})}
	c := newClient(gen, Config{Steps: 1, Temperature: 0.7})

	steps, err := c.GenerateStoryPlan(context.Background(), "a fox finds a lantern")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "Draw a forest.", steps[0].ImageEditInstruction)

	assert.Equal(t, DefaultPlanModel, gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Equal(t, planSchema, gen.config.ResponseSchema)
	require.NotNil(t, gen.config.Temperature)
	assert.InDelta(t, 0.7, *gen.config.Temperature, 1e-6)
	require.Len(t, gen.contents, 1)
	assert.Contains(t, gen.contents[0].Parts[0].Text, "a fox finds a lantern")
}

func TestGenerateStoryPlan_Errors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED")}
	_, err := newClient(gen, Config{}).GenerateStoryPlan(context.Background(), "a fox")
	require.Error(t, err)
	assert.True(t, model.IsRateLimited(err))

	gen = &fakeGenerator{resp: partsResponse()}
	_, err = newClient(gen, Config{}).GenerateStoryPlan(context.Background(), "a fox")
	assert.ErrorIs(t, err, model.ErrInvalidPlan)
}

func TestEditImage_ReturnsInlineData(t *testing.T) {
	gen := &fakeGenerator{resp: partsResponse(
		&genai.Part{Text: "Here is your picture."},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("edited")}},
	)}
	c := newClient(gen, Config{})

	out, err := c.EditImage(context.Background(), model.BlankCanvas(), "Add a fox.")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("edited")), out)

	assert.Equal(t, DefaultImageModel, gen.model)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, gen.config.ResponseModalities)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
	assert.Equal(t, "Add a fox.", parts[1].Text)
}

func TestEditImage_NoImage(t *testing.T) {
	gen := &fakeGenerator{resp: partsResponse(&genai.Part{Text: "I can't draw that."})}
	_, err := newClient(gen, Config{}).EditImage(context.Background(), model.BlankCanvas(), "x")
	assert.ErrorIs(t, err, model.ErrNoImage)
}

func TestEditImage_BadInput(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := newClient(gen, Config{}).EditImage(context.Background(), "***", "x")
	assert.Error(t, err)
	assert.Empty(t, gen.model)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
