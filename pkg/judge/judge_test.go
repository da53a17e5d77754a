package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aijudge/pkg/schema"
)

type reply struct {
	text string
	err  error
}

// scripted replays replies in order and records every request.
type scripted struct {
	replies []reply
	calls   []openai.ChatCompletionNewParams
	users   []string
	hasDL   []bool
}

func (s *scripted) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	s.calls = append(s.calls, *params)
	s.users = append(s.users, user)
	_, ok := ctx.Deadline()
	s.hasDL = append(s.hasDL, ok)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if system != SystemPrompt {
		return "", errors.New("unexpected system prompt")
	}
	r := s.replies[len(s.calls)-1]
	return r.text, r.err
}

const validReply = `{"summary":"요약","possible_crimes":[{"title":"모욕","basis":"공개적으로 욕설","severity":"중간"}],"verdict":"모욕죄 가능성이 있음","disclaimer":"법률 자문이 아닙니다."}`

func newJudge(inf *scripted) *Judge {
	opts := Options{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 700, Timeout: time.Second}
	if inf == nil {
		return New(nil, opts)
	}
	return New(inf, opts)
}

func TestJudge_Success(t *testing.T) {
	inf := &scripted{replies: []reply{{text: validReply}}}

	j, err := newJudge(inf).Judge(context.Background(), "친구가 단톡방에서 욕을 했어요", []string{"1. a.png (IMAGE, image/png, 3 bytes)"})
	require.NoError(t, err)

	assert.Equal(t, "요약", j.Summary)
	require.Len(t, j.PossibleCrimes, 1)
	assert.Equal(t, schema.SeverityMedium, j.PossibleCrimes[0].Severity)
	assert.Contains(t, j.Disclaimer, schema.DisclaimerMarker)

	require.Len(t, inf.calls, 1)
	p := inf.calls[0]
	assert.NotNil(t, p.ResponseFormat.OfJSONSchema)
	assert.Equal(t, "gpt-4o-mini", p.Model)
	assert.InDelta(t, 0.2, p.Temperature.Value, 1e-9)
	assert.Equal(t, int64(700), p.MaxTokens.Value)
	assert.Contains(t, inf.users[0], "a.png")
	assert.True(t, inf.hasDL[0])
}

func TestJudge_NoBackend(t *testing.T) {
	j, err := newJudge(nil).Judge(context.Background(), "사연입니다", nil)
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.Empty(t, j.PossibleCrimes)
	assert.NotNil(t, j.PossibleCrimes)
	assert.Contains(t, j.Verdict, "모의 판단")
	assert.Contains(t, j.Disclaimer, schema.DisclaimerMarker)
	assert.Equal(t, "사연입니다", j.Summary)
}

func TestJudge_EmptyStory(t *testing.T) {
	inf := &scripted{}
	j, err := newJudge(inf).Judge(context.Background(), "   \n ", nil)
	assert.ErrorIs(t, err, ErrEmptyStory)
	assert.Equal(t, VerdictEmptyStory, j.Verdict)
	assert.Equal(t, noStorySummary, j.Summary)
	assert.Empty(t, inf.calls)
}

func TestJudge_CallErrorDoesNotRetry(t *testing.T) {
	boom := errors.New("connection refused")
	inf := &scripted{replies: []reply{{err: boom}, {text: validReply}}}

	j, err := newJudge(inf).Judge(context.Background(), "사연", nil)

	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Attempt)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, j.Verdict, "모델 호출에 실패")
	assert.Empty(t, j.PossibleCrimes)
	assert.Len(t, inf.calls, 1)
}

func TestJudge_ParseFailureRetriesOnceWithoutStructuredOutput(t *testing.T) {
	inf := &scripted{replies: []reply{{text: "I cannot answer in JSON, sorry."}, {text: validReply}}}

	j, err := newJudge(inf).Judge(context.Background(), "사연", nil)
	require.NoError(t, err)
	assert.Equal(t, "요약", j.Summary)

	require.Len(t, inf.calls, 2)
	assert.NotNil(t, inf.calls[0].ResponseFormat.OfJSONSchema)
	assert.Nil(t, inf.calls[1].ResponseFormat.OfJSONSchema)
	assert.Nil(t, inf.calls[1].ResponseFormat.OfJSONObject)
	assert.Equal(t, inf.calls[0].Model, inf.calls[1].Model)
	assert.Equal(t, inf.users[0], inf.users[1])
}

func TestJudge_ParseFailureTwice(t *testing.T) {
	inf := &scripted{replies: []reply{{text: "nope"}, {text: ""}}}

	j, err := newJudge(inf).Judge(context.Background(), "사연", nil)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, VerdictParseFailed, j.Verdict)
	assert.Len(t, inf.calls, 2)
}

func TestJudge_RetryCallError(t *testing.T) {
	inf := &scripted{replies: []reply{{text: "nope"}, {err: context.DeadlineExceeded}}}

	j, err := newJudge(inf).Judge(context.Background(), "사연", nil)

	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Attempt)
	assert.Equal(t, VerdictCallFailed, j.Verdict)
}

func TestJudge_DetachedFromCallerCancellation(t *testing.T) {
	inf := &scripted{replies: []reply{{text: validReply}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newJudge(inf).Judge(ctx, "사연", nil)
	require.NoError(t, err)
	require.Len(t, inf.calls, 1)
}
