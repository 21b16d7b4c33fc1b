package session

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/tooloop/pkg/agent"
	"github.com/harunnryd/tooloop/pkg/errorsx"
)

type fakeRunner struct {
	mu      sync.Mutex
	queries []string
	fn      func(ctx context.Context, query string) (agent.Outcome, error)
}

func (f *fakeRunner) Run(ctx context.Context, query string) (agent.Outcome, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, query)
	}
	return agent.Outcome{State: agent.StateDone, Answer: "echo " + query}, nil
}

func (f *fakeRunner) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// syncBuffer guards output written while the test goroutine reads it.
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

func newSession(t *testing.T, in io.Reader, out io.Writer, r Runner) *Session {
	t.Helper()
	s, err := New(Config{In: in, Out: out, Runner: r, NoColor: true})
	require.NoError(t, err)
	return s
}

func TestRunEndsOnExitWord(t *testing.T) {
	for _, word := range []string{"quit", "EXIT", "  Bye  "} {
		t.Run(word, func(t *testing.T) {
			runner := &fakeRunner{}
			out := &syncBuffer{}
			in := strings.NewReader("hello\n\n   \n" + word + "\nnever read\n")

			require.NoError(t, newSession(t, in, out, runner).Run(context.Background()))

			assert.Equal(t, []string{"hello"}, runner.Queries())
			assert.Contains(t, out.String(), "Assistant: echo hello")
			assert.Contains(t, out.String(), Farewell)
		})
	}
}

func TestRunEndsCleanlyAtEOF(t *testing.T) {
	runner := &fakeRunner{}
	out := &syncBuffer{}

	err := newSession(t, strings.NewReader("first\nsecond"), out, runner).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, runner.Queries())
	assert.NotContains(t, out.String(), Farewell)
	assert.Contains(t, out.String(), Hint)
}

func TestRunReportsErrorsAndContinues(t *testing.T) {
	runner := &fakeRunner{fn: func(_ context.Context, q string) (agent.Outcome, error) {
		if q == "down" {
			return agent.Outcome{State: agent.StateAborted}, &errorsx.ConnectionError{Endpoint: "http://localhost:11434/api/chat"}
		}
		if q == "loop" {
			return agent.Outcome{State: agent.StateAborted}, errorsx.Wrap(errorsx.ErrMaxIterations, errorsx.ReasonMaxIterations)
		}
		return agent.Outcome{State: agent.StateDone, Answer: "fine"}, nil
	}}
	out := &syncBuffer{}

	require.NoError(t, newSession(t, strings.NewReader("down\nloop\nup\n"), out, runner).Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Could not connect to the model server")
	assert.Contains(t, text, "too many tool-calling rounds")
	assert.Contains(t, text, "Assistant: fine")
	assert.Len(t, runner.Queries(), 3)
}

func TestRunSkipsOverlongLineAndContinues(t *testing.T) {
	runner := &fakeRunner{}
	out := &syncBuffer{}
	s, err := New(Config{In: strings.NewReader("short\n" + strings.Repeat("x", 200000) + "\nafter\n"), Out: out, Runner: runner, MaxLineBytes: 100000, NoColor: true})
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []string{"short", "after"}, runner.Queries())
	assert.Contains(t, out.String(), LineTooLong)
}

func TestRunAcceptsLinesLongerThanReadBuffer(t *testing.T) {
	runner := &fakeRunner{}
	long := strings.Repeat("y", 150000)

	require.NoError(t, newSession(t, strings.NewReader(long+"\r\nquit\n"), &syncBuffer{}, runner).Run(context.Background()))

	assert.Equal(t, []string{long}, runner.Queries())
}

func TestRunInterruptedWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- newSession(t, pr, out, &fakeRunner{}).Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after cancellation")
	}
	assert.Contains(t, out.String(), Interrupted)
}

func TestRunInterruptedDuringQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{fn: func(ctx context.Context, _ string) (agent.Outcome, error) {
		cancel()
		<-ctx.Done()
		return agent.Outcome{State: agent.StateAborted}, ctx.Err()
	}}
	out := &syncBuffer{}

	require.NoError(t, newSession(t, strings.NewReader("slow question\nnext\n"), out, runner).Run(ctx))

	assert.Equal(t, []string{"slow question"}, runner.Queries())
	assert.Contains(t, out.String(), Interrupted)
	assert.NotContains(t, out.String(), "Request canceled")
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Out: io.Discard, Runner: &fakeRunner{}})
	assert.Error(t, err)
	_, err = New(Config{In: strings.NewReader(""), Out: io.Discard})
	assert.Error(t, err)
}
