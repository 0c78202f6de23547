package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/segmaker/internal/store"
)

// DefaultDebounce is how long watch waits for edits to settle.
const DefaultDebounce = 250 * time.Millisecond

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	BuildOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{BuildOptions: BuildOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "watch [score-dir]",
		Short: "Rebuild a score whenever its CUE files change",
		Long: `Build every segment of a score directory, then rebuild whenever a
.cue file in it is written, created, removed or renamed.

Bursts of changes are coalesced: a rebuild starts once no change has
arrived for the debounce interval. Rebuilds never overlap. A failing
build is reported and watching continues.

Examples:
  segmaker watch ./score
  segmaker watch ./score --debounce 1s --output ./build`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "metadata database path (overrides config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "LilyPond output directory (overrides config)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "quiet period before a rebuild")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, stdout, stderr)
	b, err := newBuilder(&opts.BuildOptions, args)
	if err != nil {
		return f.Fail(err)
	}

	st, err := store.Open(b.database)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening store %s: %v", b.database, err), nil)
	}
	defer st.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeIO, fmt.Sprintf("creating watcher: %v", err), nil)
	}
	defer watcher.Close()
	if err := watcher.Add(b.dir); err != nil {
		return f.Error(ExitCommandError, ErrCodeIO, fmt.Sprintf("watching %s: %v", b.dir, err), nil)
	}

	rebuild := func(ctx context.Context) {
		result, err := b.build(ctx, st, 0)
		if err != nil {
			// report and keep watching
			_ = f.Fail(err)
			return
		}
		_ = f.Success(result, func(w io.Writer) { writeBuildText(w, result) })
	}

	slog.Info("watching score directory", "dir", b.dir, "debounce", opts.Debounce)
	rebuild(ctx)
	return watchLoop(ctx, watcher.Events, watcher.Errors, opts.Debounce, rebuild)
}

// watchLoop calls rebuild once per burst of relevant events, after debounce
// has passed without another one. rebuild runs on the loop goroutine, so
// events arriving during a rebuild start the next burst. It returns when ctx
// is done or either channel is closed.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, rebuild func(context.Context)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			slog.Debug("score file changed", "file", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			rebuild(ctx)
		}
	}
}

// relevantEvent reports whether ev changes a CUE source file. Chmod alone
// does not.
func relevantEvent(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".cue" {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
