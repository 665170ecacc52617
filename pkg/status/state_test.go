package status

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "initial", Initial.String())
	assert.Equal(t, "discovering", Discovering.String())
	assert.Equal(t, "auditing", Auditing.String())
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestStateGetSet(t *testing.T) {
	var s State
	assert.Equal(t, Initial, s.Get())
	s.Set(Auditing)
	assert.Equal(t, Auditing, s.Get())
}

type fakeTask struct {
	state State
	calls int
	mu    sync.Mutex
}

func (f *fakeTask) Progress() Progress {
	return Progress{CurrentState: f.state.Get()}
}

func (f *fakeTask) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return fmt.Sprintf("status %d", f.calls)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchTask(t *testing.T) {
	old := StatusInterval
	StatusInterval = 5 * time.Millisecond
	defer func() { StatusInterval = old }()

	var out syncBuffer
	task := &fakeTask{}
	task.state.Set(Auditing)
	stop := WatchTask(t.Context(), task, slog.New(slog.NewTextHandler(&out, nil)))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "status 1")
	}, time.Second, 5*time.Millisecond)
	task.state.Set(Complete)
	stop()
}
