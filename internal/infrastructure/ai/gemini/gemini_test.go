package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"skillsync/internal/domain/matching"
	"skillsync/internal/domain/profile"
)

type fakeModels struct {
	text       []string
	vectors    [][]float32
	err        error
	lastModel  string
	lastPrompt string
	embedCalls int
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastPrompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	parts := make([]*genai.Part, 0, len(f.text))
	for _, t := range f.text {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{nil, {Content: &genai.Content{Parts: parts}}},
	}, nil
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.lastModel = model
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := &genai.EmbedContentResponse{}
	for i := range contents {
		if i >= len(f.vectors) {
			break
		}
		out.Embeddings = append(out.Embeddings, &genai.ContentEmbedding{Values: f.vectors[i]})
	}
	return out, nil
}

func TestClient_GenerateContentJoinsParts(t *testing.T) {
	fm := &fakeModels{text: []string{" {\"score\": ", "", "80} "}}
	c := newClient(fm, "", "")

	out, err := c.GenerateContent(context.Background(), "  rate this  ")
	require.NoError(t, err)
	assert.Equal(t, "{\"score\":\n80}", out)
	assert.Equal(t, defaultModel, fm.lastModel)
	assert.Equal(t, "rate this", fm.lastPrompt)
}

func TestClient_GenerateContentErrors(t *testing.T) {
	c := newClient(&fakeModels{}, "m", "")
	_, err := c.GenerateContent(context.Background(), "   ")
	assert.ErrorContains(t, err, "prompt must not be empty")

	_, err = c.GenerateContent(context.Background(), "x")
	assert.ErrorContains(t, err, "empty response")

	c = newClient(&fakeModels{err: errors.New("quota")}, "m", "")
	_, err = c.GenerateContent(context.Background(), "x")
	assert.ErrorContains(t, err, "generate content: quota")

	var nilClient *Client
	_, err = nilClient.GenerateContent(context.Background(), "x")
	assert.Error(t, err)
}

func TestClient_Embed(t *testing.T) {
	fm := &fakeModels{vectors: [][]float32{{1, 0}, {0, 1}}}
	c := newClient(fm, "", "custom-embed")

	got, err := c.Embed(context.Background(), []string{"Go", "Rust"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
	assert.Equal(t, "custom-embed", fm.lastModel)

	got, err = c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, fm.embedCalls)
}

func TestClient_EmbedCountMismatch(t *testing.T) {
	c := newClient(&fakeModels{vectors: [][]float32{{1}}}, "", "")
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "1 embeddings for 2 texts")
}

type fakeGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func TestCulturalPredictor(t *testing.T) {
	gen := &fakeGenerator{out: "```json\n{\"score\": \"72\"}\n```"}
	talent := profile.Profile{WorkStyle: "collaborative", Values: []string{"innovation", "impact"}}

	got, err := NewCulturalPredictor(gen).PredictCulturalFit(context.Background(), talent, profile.Profile{})
	require.NoError(t, err)
	assert.InDelta(t, 72, got, 1e-9)
	assert.Contains(t, gen.prompt, "work style: collaborative")
	assert.Contains(t, gen.prompt, "values: innovation, impact")
	assert.Contains(t, gen.prompt, "communication: unknown")
}

func TestCulturalPredictor_RejectsBadOutput(t *testing.T) {
	cases := map[string]string{
		"not json":     "great fit",
		"missing key":  `{"fit": 80}`,
		"out of range": `{"score": 140}`,
		"not a number": `{"score": "high"}`,
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCulturalPredictor(&fakeGenerator{out: out}).PredictCulturalFit(context.Background(), profile.Profile{}, profile.Profile{})
			assert.Error(t, err)
		})
	}
}

func TestSuccessModel(t *testing.T) {
	gen := &fakeGenerator{out: `{"probability": 0.64}`}
	opening := profile.Profile{Industry: "fintech", RequiredSkills: []profile.Skill{{Name: "React"}}}
	scores := matching.SubScores{Skill: 90, Experience: 85, Cultural: 70, Location: 100, Salary: 80, Availability: 100}

	got, err := NewSuccessModel(gen).PredictSuccess(context.Background(), profile.Profile{}, opening, scores)
	require.NoError(t, err)
	assert.InDelta(t, 0.64, got, 1e-9)
	assert.Contains(t, gen.prompt, "Opening requires: React")
	assert.Contains(t, gen.prompt, "skill 90, experience 85")

	_, err = NewSuccessModel(&fakeGenerator{out: `{"probability": 1.5}`}).PredictSuccess(context.Background(), profile.Profile{}, opening, scores)
	assert.ErrorContains(t, err, "out of range")

	_, err = NewSuccessModel(&fakeGenerator{err: errors.New("down")}).PredictSuccess(context.Background(), profile.Profile{}, opening, scores)
	assert.EqualError(t, err, "down")
}
