package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/segmaker/internal/compiler"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/lilypond"
	"github.com/roach88/segmaker/internal/segment"
	"github.com/roach88/segmaker/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Segment  int    // build only this segment; 0 builds all
	Database string // overrides database.path
	Output   string // overrides score.output
}

// BuiltSegment summarizes one successful segment run.
type BuiltSegment struct {
	Number             int    `json:"number"`
	RunID              string `json:"run_id"`
	FirstMeasureNumber int    `json:"first_measure_number"`
	Measures           int    `json:"measures"`
	StartClockTime     string `json:"start_clock_time,omitempty"`
	StopClockTime      string `json:"stop_clock_time,omitempty"`
	Reapplied          int    `json:"reapplied"`
	Dropped            int    `json:"dropped"`
	Output             string `json:"output"`
}

// BuildResult is the output of the build command.
type BuildResult struct {
	Score    string         `json:"score"`
	Segments []BuiltSegment `json:"segments"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build [score-dir]",
		Short: "Build segments from a CUE score directory",
		Long: `Compile a CUE score directory and build its segments in order.

Each segment starts from the persistent indicators stored for the
segment before it. A successful run replaces the stored snapshot of its
segment and writes <output>/<score>-NN.ly. A failed run stores nothing.

The score directory defaults to score.dir from the configuration.

Exit codes:
  0 - All requested segments built
  1 - Compilation or a segment run failed
  2 - Command error (missing directory, store errors, etc.)

Examples:
  segmaker build ./score
  segmaker build ./score --segment 3
  segmaker build ./score --db ./opus.db --output ./build --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVar(&opts.Segment, "segment", 0, "build only this segment number")
	cmd.Flags().StringVar(&opts.Database, "db", "", "metadata database path (overrides config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "LilyPond output directory (overrides config)")

	return cmd
}

func runBuild(ctx context.Context, opts *BuildOptions, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, stdout, stderr)
	b, err := newBuilder(opts, args)
	if err != nil {
		return f.Fail(err)
	}

	st, err := store.Open(b.database)
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening store %s: %v", b.database, err), nil)
	}
	defer st.Close()

	result, err := b.build(ctx, st, opts.Segment)
	if err != nil {
		return f.Fail(err)
	}
	return f.Success(result, func(w io.Writer) { writeBuildText(w, result) })
}

// builder compiles a score directory and runs its segments against a store.
// It is shared by build and watch.
type builder struct {
	dir      string
	database string
	output   string
	maker    *segment.Maker
}

func newBuilder(opts *BuildOptions, args []string) (*builder, error) {
	cfg := opts.cfg()
	b := &builder{
		dir:      cfg.Score.Dir,
		database: cfg.Database.Path,
		output:   cfg.Score.Output,
		maker:    segment.NewMaker(cfg.MakerOptions()),
	}
	if len(args) > 0 {
		b.dir = args[0]
	}
	if opts.Database != "" {
		b.database = opts.Database
	}
	if opts.Output != "" {
		b.output = opts.Output
	}
	if info, err := os.Stat(b.dir); err != nil || !info.IsDir() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("score directory not found: %s", b.dir))
	}
	return b, nil
}

// build compiles the directory and builds segment only, or every segment
// in order when only is 0.
func (b *builder) build(ctx context.Context, st *store.Store, only int) (*BuildResult, error) {
	loaded, err := compiler.Load(b.dir)
	if err != nil {
		return nil, err
	}
	def := loaded.Definition
	slog.Debug("compiled score", "score", def.Score, "segments", len(def.Segments), "files", len(loaded.Files))

	numbers := make([]int, 0, len(def.Segments))
	if only != 0 {
		if _, ok := def.Segment(only); !ok {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("score %s has %d segments, no segment %d", def.Score, len(def.Segments), only))
		}
		numbers = append(numbers, only)
	} else {
		for n := 1; n <= len(def.Segments); n++ {
			numbers = append(numbers, n)
		}
	}

	if err := os.MkdirAll(b.output, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	result := &BuildResult{Score: def.Score, Segments: make([]BuiltSegment, 0, len(numbers))}
	for _, n := range numbers {
		seg, _ := def.Segment(n)
		built, err := b.buildSegment(ctx, st, seg, n)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", n, err)
		}
		result.Segments = append(result.Segments, built)
	}
	return result, nil
}

func (b *builder) buildSegment(ctx context.Context, st *store.Store, def *ir.SegmentDefinition, n int) (BuiltSegment, error) {
	previous, err := st.PreviousMetadata(ctx, def.Score, n)
	if err != nil {
		return BuiltSegment{}, fmt.Errorf("build segment %d first: %w", n-1, err)
	}

	res, err := b.maker.Run(ctx, def, previous)
	if err != nil {
		return BuiltSegment{}, err
	}
	if res.Metadata.SegmentNumber != n {
		return BuiltSegment{}, fmt.Errorf("run produced segment %d, want %d", res.Metadata.SegmentNumber, n)
	}
	if err := st.WriteSegment(ctx, def.Score, res.RunID, res.Metadata); err != nil {
		return BuiltSegment{}, err
	}

	path := filepath.Join(b.output, fmt.Sprintf("%s-%02d.ly", def.Score, n))
	if err := writeLilyPond(path, res); err != nil {
		return BuiltSegment{}, err
	}

	md := res.Metadata
	slog.Info("built segment",
		"score", def.Score,
		"segment", n,
		"run_id", res.RunID,
		"first_measure", md.FirstMeasureNumber,
		"measures", md.MeasureCount(),
		"output", path)

	return BuiltSegment{
		Number:             n,
		RunID:              res.RunID,
		FirstMeasureNumber: md.FirstMeasureNumber,
		Measures:           md.MeasureCount(),
		StartClockTime:     deref(md.StartClockTime),
		StopClockTime:      deref(md.StopClockTime),
		Reapplied:          res.Reapply.Reapplied + res.Reapply.Retained,
		Dropped:            res.Reapply.Dropped + res.Dropped,
		Output:             path,
	}, nil
}

func writeLilyPond(path string, res *segment.Result) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := lilypond.Document(file, res.Score); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeBuildText(w io.Writer, result *BuildResult) {
	fmt.Fprintf(w, "✓ Built %d segment(s) of %s\n", len(result.Segments), result.Score)
	for _, s := range result.Segments {
		last := s.FirstMeasureNumber + s.Measures - 1
		fmt.Fprintf(w, "  segment %d: measures %d-%d", s.Number, s.FirstMeasureNumber, last)
		if s.StopClockTime != "" {
			fmt.Fprintf(w, ", %s-%s", s.StartClockTime, s.StopClockTime)
		}
		fmt.Fprintf(w, " → %s\n", s.Output)
		if s.Dropped > 0 {
			fmt.Fprintf(w, "    %d momento(s) dropped\n", s.Dropped)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
