package composer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreforge/scoreforge-api/internal/llm"
)

type fakeProvider struct {
	response *llm.GenerationResponse
	err      error
	calls    int
	lastReq  *llm.GenerationRequest
}

func (p *fakeProvider) Generate(ctx context.Context, req *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func (p *fakeProvider) Name() string { return "fake" }

type fakeResolver struct {
	provider *fakeProvider
	err      error
}

func (r *fakeResolver) GetProvider(ctx context.Context, model string) (llm.Provider, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.provider, nil
}

func TestGenerateNormalizesOutput(t *testing.T) {
	provider := &fakeProvider{response: &llm.GenerationResponse{
		RawOutput:    "```abc\nX:3\nT:Evening Air\nK:G\nG2 A2 | B4 |]\n```",
		InputTokens:  120,
		OutputTokens: 40,
		TotalTokens:  160,
	}}
	svc := NewService(&fakeResolver{provider: provider}, "gemini-2.5-flash", nil)

	music, err := svc.Generate(context.Background(), "a calm evening tune", "")
	require.NoError(t, err)

	assert.Equal(t, "Evening Air", music.Title)
	assert.True(t, strings.HasPrefix(music.ABCNotation, "X:1\n"), "normalized notation must start with X:1, got %q", music.ABCNotation)
	assert.Contains(t, music.ABCNotation, "T:Evening Air")
	assert.Contains(t, music.ABCNotation, "K:G")
	assert.NotContains(t, music.ABCNotation, "```")
	assert.Equal(t, "gemini-2.5-flash", music.Model)
	assert.Equal(t, 160, music.TotalTokens)
}

func TestGenerateEmptyResponse(t *testing.T) {
	provider := &fakeProvider{response: &llm.GenerationResponse{RawOutput: ""}}
	svc := NewService(&fakeResolver{provider: provider}, "gemini-2.5-flash", nil)

	music, err := svc.Generate(context.Background(), "anything", "")
	require.Error(t, err)
	assert.Nil(t, music)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "empty-response", genErr.Reason)
	assert.Equal(t, 1, provider.calls, "empty responses must not be retried")
}

func TestGenerateWhitespaceOnlyResponse(t *testing.T) {
	// Gemini output is not trimmed by the provider, so a blank-but-nonempty
	// response must still classify as empty.
	provider := &fakeProvider{response: &llm.GenerationResponse{RawOutput: "  \n\t\n "}}
	svc := NewService(&fakeResolver{provider: provider}, "gemini-2.5-flash", nil)

	music, err := svc.Generate(context.Background(), "anything", "")
	require.Error(t, err)
	assert.Nil(t, music)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "empty-response", genErr.Reason)
}

func TestGenerateProviderFailure(t *testing.T) {
	cause := errors.New("quota exhausted")
	provider := &fakeProvider{err: cause}
	svc := NewService(&fakeResolver{provider: provider}, "gemini-2.5-flash", nil)

	_, err := svc.Generate(context.Background(), "anything", "")
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "provider-error", genErr.Reason)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, provider.calls, "provider failures must not be retried")
}

func TestGenerateResolverFailure(t *testing.T) {
	svc := NewService(&fakeResolver{err: errors.New("no key configured")}, "gemini-2.5-flash", nil)

	_, err := svc.Generate(context.Background(), "anything", "gpt-5-mini")
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "provider-error", genErr.Reason)
}

func TestGenerateUsesExplicitModel(t *testing.T) {
	provider := &fakeProvider{response: &llm.GenerationResponse{RawOutput: "K:C\nC D E F |]"}}
	svc := NewService(&fakeResolver{provider: provider}, "gemini-2.5-flash", nil)

	music, err := svc.Generate(context.Background(), "anything", "gpt-5-nano")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-nano", music.Model)
	assert.Equal(t, "gpt-5-nano", provider.lastReq.Model)
}

func TestGenerateSendsComposerInstruction(t *testing.T) {
	provider := &fakeProvider{response: &llm.GenerationResponse{RawOutput: "K:C\nC4 |]"}}
	svc := NewService(&fakeResolver{provider: provider}, "gemini-2.5-flash", nil)

	_, err := svc.Generate(context.Background(), "a short march", "")
	require.NoError(t, err)
	require.NotNil(t, provider.lastReq)
	assert.Contains(t, provider.lastReq.SystemPrompt, "X:1")
	assert.Equal(t, "a short march", provider.lastReq.UserPrompt)
}
