package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/segmaker/internal/compiler"
)

// CheckedSegment summarizes one compiled segment definition.
type CheckedSegment struct {
	Number          int      `json:"number"`
	TimeSignatures  []string `json:"time_signatures"`
	Rhythms         int      `json:"rhythms"`
	Commands        int      `json:"commands"`
	FermataMeasures []int    `json:"fermata_measures,omitempty"`
}

// CheckResult is the output of the check command.
type CheckResult struct {
	Score    string           `json:"score"`
	Files    []string         `json:"files"`
	Staves   []string         `json:"staves"`
	Segments []CheckedSegment `json:"segments"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [score-dir]",
		Short: "Compile a CUE score directory without building",
		Long: `Compile and validate a CUE score directory.

Reports schema violations with their file position, duplicate manifest
keys, unknown command types and measures outside a segment. Nothing is
built or stored.

Examples:
  segmaker check ./score
  segmaker check ./score --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, args []string, stdout, stderr io.Writer) error {
	f := newFormatter(opts, stdout, stderr)

	dir := opts.cfg().Score.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return f.Error(ExitCommandError, ErrCodeIO, fmt.Sprintf("score directory not found: %s", dir), nil)
	}

	loaded, err := compiler.Load(dir)
	if err != nil {
		return f.Fail(err)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", len(loaded.Files), dir)

	def := loaded.Definition
	result := CheckResult{Score: def.Score, Files: loaded.Files, Segments: make([]CheckedSegment, 0, len(def.Segments))}
	if len(def.Segments) > 0 {
		for _, s := range def.Segments[0].Template.Staves {
			result.Staves = append(result.Staves, s.Name)
		}
	}
	for i, s := range def.Segments {
		result.Segments = append(result.Segments, CheckedSegment{
			Number:          i + 1,
			TimeSignatures:  s.TimeSignatures,
			Rhythms:         len(s.Rhythms),
			Commands:        len(s.Commands),
			FermataMeasures: s.FermataMeasures,
		})
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: %d segment(s), %d staff(s)\n", result.Score, len(result.Segments), len(result.Staves))
		for _, s := range result.Segments {
			fmt.Fprintf(w, "  segment %d: %d measure(s), %d rhythm(s), %d command(s)\n",
				s.Number, len(s.TimeSignatures), s.Rhythms, s.Commands)
		}
	})
}
