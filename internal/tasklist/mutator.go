package tasklist

import (
	"context"
	"sync"
	"time"

	"github.com/hylla/tickit/internal/domain"
)

// defaultMutationTimeout bounds one background store call.
const defaultMutationTimeout = 10 * time.Second

// TaskWriter is the store surface used by AsyncMutator.
type TaskWriter interface {
	Create(ctx context.Context, title string, completed bool, ownerID string) (string, error)
	Update(ctx context.Context, taskID string, patch domain.TaskPatch) error
	Delete(ctx context.Context, taskID string) error
}

// Logger is the logging surface used for mutation outcomes.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

// AsyncMutator runs every mutation on its own goroutine. Failures are logged
// and otherwise dropped; the next snapshot is the only visible outcome.
type AsyncMutator struct {
	ctx     context.Context
	store   TaskWriter
	logger  Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncMutator constructs a new value for this package. logger may be nil.
func NewAsyncMutator(ctx context.Context, store TaskWriter, logger Logger, timeout time.Duration) *AsyncMutator {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = defaultMutationTimeout
	}
	return &AsyncMutator{
		ctx:     ctx,
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

// Create issues a background create.
func (m *AsyncMutator) Create(title string, completed bool, ownerID string) {
	m.run("create", []any{"owner_id", ownerID}, func(ctx context.Context) error {
		id, err := m.store.Create(ctx, title, completed, ownerID)
		if err == nil && m.logger != nil {
			m.logger.Debug("task created", "task_id", id)
		}
		return err
	})
}

// Update issues a background partial update.
func (m *AsyncMutator) Update(taskID string, patch domain.TaskPatch) {
	m.run("update", []any{"task_id", taskID}, func(ctx context.Context) error {
		return m.store.Update(ctx, taskID, patch)
	})
}

// Delete issues a background delete.
func (m *AsyncMutator) Delete(taskID string) {
	m.run("delete", []any{"task_id", taskID}, func(ctx context.Context) error {
		return m.store.Delete(ctx, taskID)
	})
}

// Wait blocks until every issued mutation has finished.
func (m *AsyncMutator) Wait() {
	m.wg.Wait()
}

func (m *AsyncMutator) run(op string, keyvals []any, fn func(context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		if err := fn(ctx); err != nil && m.logger != nil {
			m.logger.Warn("task mutation failed", append([]any{"op", op, "err", err}, keyvals...)...)
		}
	}()
}
