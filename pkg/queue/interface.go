package queue

import (
	"errors"

	"aijudge/pkg/schema"
)

// ErrFull is returned by Add when the buffer has no room. Items are dropped,
// never blocked on.
var ErrFull = errors.New("queue is full")

type Queue interface {
	Start()
	Stop()
	Add(n *schema.Notification) error
}
