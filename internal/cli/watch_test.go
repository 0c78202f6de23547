package cli

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopHarness struct {
	events  chan fsnotify.Event
	errs    chan error
	builds  atomic.Int32
	rebuilt chan struct{}
	done    chan error
}

func startLoop(t *testing.T, ctx context.Context, debounce time.Duration) *loopHarness {
	t.Helper()
	h := &loopHarness{
		events:  make(chan fsnotify.Event),
		errs:    make(chan error),
		rebuilt: make(chan struct{}, 16),
		done:    make(chan error, 1),
	}
	go func() {
		h.done <- watchLoop(ctx, h.events, h.errs, debounce, func(context.Context) {
			h.builds.Add(1)
			h.rebuilt <- struct{}{}
		})
	}()
	return h
}

func cueWrite(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}

func TestWatchLoop_DebouncesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := startLoop(t, ctx, 50*time.Millisecond)

	h.events <- cueWrite("score/segments.cue")
	h.events <- cueWrite("score/segments.cue")
	h.events <- fsnotify.Event{Name: "score/score.cue", Op: fsnotify.Create}

	select {
	case <-h.rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild after burst")
	}
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), h.builds.Load())

	h.events <- cueWrite("score/segments.cue")
	select {
	case <-h.rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild after second change")
	}
	assert.Equal(t, int32(2), h.builds.Load())

	cancel()
	require.NoError(t, <-h.done)
}

func TestWatchLoop_IgnoresIrrelevantEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := startLoop(t, ctx, 10*time.Millisecond)

	h.events <- cueWrite("build/solo-01.ly")
	h.events <- fsnotify.Event{Name: "score/segments.cue", Op: fsnotify.Chmod}
	h.errs <- errors.New("overflow")
	time.Sleep(100 * time.Millisecond)

	cancel()
	require.NoError(t, <-h.done)
	assert.Equal(t, int32(0), h.builds.Load())
}

func TestWatchLoop_StopsWhenEventsClose(t *testing.T) {
	h := startLoop(t, context.Background(), time.Second)
	close(h.events)

	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, int32(0), h.builds.Load())
}

func TestRelevantEvent(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "a.cue", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a.cue", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "a.cue", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "a.cue", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "a.ly", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "cue", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevantEvent(tt.ev), "%s %s", tt.ev.Name, tt.ev.Op)
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := execute(t, "watch", "/nonexistent/score")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
