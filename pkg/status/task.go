package status

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

var StatusInterval = 30 * time.Second

type Task interface {
	Progress() Progress
	Status() string
}

// WatchTask logs the status of task every StatusInterval until the
// returned stop function is called or the task reaches a final state.
// stop waits for the watcher to exit.
func WatchTask(ctx context.Context, task Task, logger *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() {
		continuallyDumpStatus(ctx, task, logger)
	})
	return func() {
		cancel()
		wg.Wait()
	}
}

func continuallyDumpStatus(ctx context.Context, task Task, logger *slog.Logger) {
	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if task.Progress().CurrentState >= Complete {
				return
			}
			logger.Info(task.Status())
		}
	}
}
