// Package notify delivers user-facing messages about failed cart commands.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindAddFailed    Kind = "add_failed"
	KindOutOfStock   Kind = "out_of_stock"
	KindRemoveFailed Kind = "remove_failed"
	KindUpdateFailed Kind = "update_failed"
)

// User-facing messages.
const (
	MsgAddFailed    = "failed to add product"
	MsgOutOfStock   = "requested quantity is out of stock"
	MsgRemoveFailed = "failed to remove product"
	MsgUpdateFailed = "failed to update product amount"
)

// Notification is a message to show the user.
type Notification struct {
	Kind      Kind      `json:"kind"`
	ProductID int       `json:"product_id"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Notifier delivers notifications. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to a logger at warn level.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.WarnContext(ctx, n.Message,
		slog.String("kind", string(n.Kind)),
		slog.Int("product_id", n.ProductID),
	)
}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

// NewRecorder returns a recorder holding at most limit notifications.
func NewRecorder(limit int) *Recorder {
	if limit < 1 {
		limit = 1
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, n)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
}

// Recent returns the recorded notifications, newest first.
func (r *Recorder) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, len(r.items))
	for i, n := range r.items {
		out[len(r.items)-1-i] = n
	}
	return out
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}
