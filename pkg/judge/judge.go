// Package judge turns a story into a Judgment through a completion backend.
// Every degradation path still yields a usable Judgment whose verdict tells
// the user what went wrong.
package judge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"aijudge/pkg/inference"
	"aijudge/pkg/schema"
	"aijudge/pkg/utils"
)

const (
	VerdictNoBackend   = "OPENAI_API_KEY가 설정되지 않아 모의 판단만 제공합니다."
	VerdictEmptyStory  = "사연이 비어 있어 판단을 생성할 수 없습니다."
	VerdictCallFailed  = "모델 호출에 실패했습니다. 잠시 후 다시 시도해 주세요."
	VerdictParseFailed = "모델 응답을 파싱하지 못했습니다. 잠시 후 다시 시도해 주세요."

	previewRunes = 200
)

type Options struct {
	// Model overrides the backend's default model for both calls.
	Model       string
	Temperature float64
	MaxTokens   int64
	// Timeout bounds each call separately.
	Timeout     time.Duration
	CountTokens bool
	Logger      *log.Logger
}

type Judge struct {
	inf  inference.Inferencer
	opts Options
	log  *log.Logger
}

// New returns a Judge. A nil inf means no backend credential is configured and
// every call returns the mock fallback.
func New(inf inference.Inferencer, opts Options) *Judge {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Judge{
		inf:  inf,
		opts: opts,
		log:  logger.With("component", "judge"),
	}
}

// Judge asks the backend for a Judgment. The returned Judgment is always
// usable; a non-nil error only explains why it is a fallback.
func (j *Judge) Judge(ctx context.Context, story string, evidence []string) (schema.Judgment, error) {
	story = strings.TrimSpace(story)
	if story == "" {
		return Fallback(story, VerdictEmptyStory), ErrEmptyStory
	}
	if j.inf == nil {
		return Fallback(story, VerdictNoBackend), ErrNoBackend
	}

	user := ComposeUserMessage(story, evidence)
	j.countTokens(user)

	primary := j.params()
	primary.ResponseFormat = schema.StructuredOutputsResponseFormat()
	text, err := j.call(ctx, &primary, user)
	if err != nil {
		return j.callFailed(story, 1, err)
	}
	if obj, ok := ExtractJSON(text); ok {
		return Normalize(obj, story), nil
	}
	j.log.Warn("unparseable model response, retrying without structured output", "preview", utils.LimitStr(text, previewRunes))

	retry := j.params()
	text, err = j.call(ctx, &retry, user)
	if err != nil {
		return j.callFailed(story, 2, err)
	}
	if obj, ok := ExtractJSON(text); ok {
		return Normalize(obj, story), nil
	}

	preview := utils.LimitStr(text, previewRunes)
	j.log.Error("unparseable model response after retry", "preview", preview)
	return Fallback(story, VerdictParseFailed), &ParseError{Preview: preview}
}

func (j *Judge) params() openai.ChatCompletionNewParams {
	p := openai.ChatCompletionNewParams{
		Model:       j.opts.Model,
		Temperature: openai.Float(j.opts.Temperature),
	}
	if j.opts.MaxTokens > 0 {
		p.MaxTokens = openai.Int(j.opts.MaxTokens)
	}
	return p
}

// call runs one backend request. It is detached from the caller's
// cancellation and bounded only by the configured timeout.
func (j *Judge) call(ctx context.Context, params *openai.ChatCompletionNewParams, user string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := j.inf.Infer(ctx, params, SystemPrompt, user)
	j.log.Debug("model call finished",
		"structured", params.ResponseFormat.OfJSONSchema != nil,
		"elapsed", time.Since(start),
		"ok", err == nil,
	)
	return text, err
}

func (j *Judge) callFailed(story string, attempt int, err error) (schema.Judgment, error) {
	j.log.Error("model call failed", "attempt", attempt, "err_type", fmt.Sprintf("%T", err), "err", err)
	return Fallback(story, VerdictCallFailed), &CallError{Attempt: attempt, Err: err}
}

func (j *Judge) countTokens(user string) {
	if !j.opts.CountTokens {
		return
	}
	n, err := utils.NumTokens(SystemPrompt + "\n" + user)
	if err != nil {
		j.log.Debug("token count unavailable", "err", err)
		return
	}
	j.log.Debug("prompt tokens", "count", n)
}
