package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"aijudge/pkg/queue"
	"aijudge/pkg/schema"
	"aijudge/pkg/utils"
)

type Poster interface {
	PostMessage(ctx context.Context, channel string, payload map[string]any, threadTS string) (map[string]any, error)
}

// Queue sends notifications one at a time from a single background worker.
type Queue struct {
	client  Poster
	channel string
	log     *log.Logger

	items chan *schema.Notification
	stop  chan struct{}
	once  sync.Once
}

var _ queue.Queue = (*Queue)(nil)

func New(client Poster, channel string, size int, logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.Default()
	}
	if size <= 0 {
		size = 100
	}
	return &Queue{
		client:  client,
		channel: channel,
		log:     logger.With("component", "slack"),
		items:   make(chan *schema.Notification, size),
		stop:    make(chan struct{}),
	}
}

func (q *Queue) Start() {
	go q.processLoop()
}

func (q *Queue) Stop() {
	q.once.Do(func() { close(q.stop) })
}

func (q *Queue) Add(n *schema.Notification) error {
	select {
	case q.items <- n:
		return nil
	default:
		return queue.ErrFull
	}
}

func (q *Queue) processLoop() {
	q.log.Info("notification queue started", "channel", q.channel)
	for {
		select {
		case <-q.stop:
			q.log.Info("notification queue stopped", "pending", len(q.items))
			return
		case n := <-q.items:
			q.processItem(n)
		}
	}
}

func (q *Queue) processItem(n *schema.Notification) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("notification panicked", "request_id", n.RequestID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	if _, err := q.client.PostMessage(ctx, q.channel, Render(n), ""); err != nil {
		q.log.Warn("notification failed", "request_id", n.RequestID, "err", err)
		return
	}
	q.log.Debug("notification sent", "request_id", n.RequestID)
}

// Render builds the chat.postMessage payload for n.
func Render(n *schema.Notification) map[string]any {
	var b strings.Builder
	fmt.Fprintf(&b, "*새 판단 요청* `%s`\n", n.RequestID)
	fmt.Fprintf(&b, "사용자: %s | 증거 파일: %d개\n", n.UserID, n.EvidenceCount)
	fmt.Fprintf(&b, "> %s\n", strings.ReplaceAll(utils.LimitStr(n.Story, 300), "\n", "\n> "))
	fmt.Fprintf(&b, "*판단*: %s\n", n.Judgment.Verdict)
	if len(n.Judgment.PossibleCrimes) > 0 {
		titles := make([]string, len(n.Judgment.PossibleCrimes))
		for i, c := range n.Judgment.PossibleCrimes {
			titles[i] = fmt.Sprintf("%s(%s)", c.Title, c.Severity)
		}
		fmt.Fprintf(&b, "*가능한 죄명*: %s\n", strings.Join(titles, ", "))
	}
	if n.Degraded != "" {
		fmt.Fprintf(&b, ":warning: %s\n", n.Degraded)
	}
	return map[string]any{
		"text":         strings.TrimRight(b.String(), "\n"),
		"unfurl_links": false,
	}
}
