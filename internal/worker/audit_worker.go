// Package worker consumes expense mutation events and appends them to
// a durable audit log.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"expensed/internal/events"
)

// AuditWorker writes one JSON line per mutation event to the audit log.
type AuditWorker struct {
	mu   sync.Mutex
	path string
}

func NewAuditWorker(path string) (*AuditWorker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	return &AuditWorker{path: path}, nil
}

// HandleEvent appends the event to the audit log. Returning an error
// makes the consumer nack and requeue the delivery.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *events.ExpenseEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	slog.InfoContext(ctx, "Recorded audit entry",
		"action", event.Action,
		"expense_id", event.ExpenseID)

	return nil
}

// Run consumes events until the context is cancelled, reconnecting to
// the broker as needed.
func (w *AuditWorker) Run(ctx context.Context, amqpURL, exchangeName, queueName string) error {
	return events.ConsumeWithRetry(ctx, amqpURL, exchangeName, queueName, func(event *events.ExpenseEvent) error {
		return w.HandleEvent(ctx, event)
	})
}
