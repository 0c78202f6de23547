package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/store"
)

// MetadataOptions holds flags for the metadata command.
type MetadataOptions struct {
	*RootOptions
	Database string
	Context  string // show the history of one context instead
}

// NewMetadataCommand creates the metadata command.
func NewMetadataCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MetadataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "metadata <score> [segment]",
		Short: "Show stored segment snapshots",
		Long: `Show the metadata stored for a score.

Without a segment number, lists every stored segment. With one, prints
that segment's snapshot: measures, clock times and the persistent
indicators the next segment will start from. --context prints one
context's persistent indicators across all segments.

Examples:
  segmaker metadata opus
  segmaker metadata opus 2
  segmaker metadata opus --context Cello_Staff --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "metadata database path (overrides config)")
	cmd.Flags().StringVar(&opts.Context, "context", "", "show one context's history")

	return cmd
}

func runMetadata(ctx context.Context, opts *MetadataOptions, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, stdout, stderr)

	score := args[0]
	n := 0
	if len(args) == 2 {
		var err error
		if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
			return f.Error(ExitCommandError, ErrCodeIO, fmt.Sprintf("invalid segment number %q", args[1]), nil)
		}
	}

	path := opts.Database
	if path == "" {
		path = opts.cfg().Database.Path
	}
	st, err := store.Open(path)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening store %s: %v", path, err), nil)
	}
	defer st.Close()

	switch {
	case opts.Context != "":
		history, err := st.ContextHistory(ctx, score, opts.Context)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(history, func(w io.Writer) { writeHistoryText(w, opts.Context, history) })
	case n > 0:
		md, err := st.ReadMetadata(ctx, score, n)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(md, func(w io.Writer) { writeMetadataText(w, score, md) })
	}

	segments, err := st.ListSegments(ctx, score)
	if err != nil {
		return f.Fail(err)
	}
	if len(segments) == 0 {
		return f.Fail(fmt.Errorf("score %s: %w", score, store.ErrNotFound))
	}
	return f.Success(segments, func(w io.Writer) { writeSegmentListText(w, score, segments) })
}

func writeSegmentListText(w io.Writer, score string, segments []store.SegmentInfo) {
	fmt.Fprintf(w, "%s: %d segment(s)\n", score, len(segments))
	for _, s := range segments {
		fmt.Fprintf(w, "  %2d  measures %d-%d  run %s", s.SegmentNumber,
			s.FirstMeasureNumber, s.FirstMeasureNumber+s.MeasureCount-1, s.RunID)
		if s.StopClockTime != nil {
			fmt.Fprintf(w, "  stop %s", *s.StopClockTime)
		}
		fmt.Fprintln(w)
	}
}

func writeMetadataText(w io.Writer, score string, md *ir.Metadata) {
	fmt.Fprintf(w, "%s segment %d\n", score, md.SegmentNumber)
	fmt.Fprintf(w, "  first measure:   %d\n", md.FirstMeasureNumber)
	fmt.Fprintf(w, "  time signatures: %v\n", md.TimeSignatures)
	if md.Duration != nil {
		fmt.Fprintf(w, "  duration:        %s (%s-%s)\n", *md.Duration, deref(md.StartClockTime), deref(md.StopClockTime))
	}
	fmt.Fprintln(w, "  persistent indicators:")
	for _, name := range md.ContextNames() {
		for _, mo := range md.PersistentIndicators[name] {
			fmt.Fprintf(w, "    %s\n", mo)
		}
	}
}

func writeHistoryText(w io.Writer, contextName string, history []store.IndicatorRow) {
	if len(history) == 0 {
		fmt.Fprintf(w, "No persistent indicators for %s.\n", contextName)
		return
	}
	fmt.Fprintf(w, "%s:\n", contextName)
	for _, row := range history {
		fmt.Fprintf(w, "  segment %d  %s\n", row.SegmentNumber, row.Momento)
	}
}
