package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/tags"
)

// TagsOptions holds the tag selectors shared by activate and deactivate.
type TagsOptions struct {
	*RootOptions
	Tags   []string
	Suffix string
	Status string
}

// TagsResult reports how many lines a toggle changed per file.
type TagsResult struct {
	Action string         `json:"action"`
	Files  map[string]int `json:"files"`
	Total  int            `json:"total"`
}

// NewTagsCommand creates the tags command with its activate and deactivate
// subcommands.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Activate or deactivate tagged lines in rendered output",
		Long: `Toggle tagged statements in rendered LilyPond files.

Every annotation segmaker emits carries a tag such as
EXPLICIT_CLEF_COLOR or REAPPLIED_INSTRUMENT_ALERT. Deactivating a tag
comments its lines out in place; activating restores them.

Select tags by exact name (--tag, repeatable), by suffix (--suffix COLOR)
or by status (--status reapplied).

Examples:
  segmaker tags deactivate build/opus-01.ly --suffix COLOR
  segmaker tags activate build/*.ly --tag REDUNDANT_CLEF_COLOR`,
	}

	cmd.AddCommand(newToggleCommand(rootOpts, "activate", tags.Activate))
	cmd.AddCommand(newToggleCommand(rootOpts, "deactivate", tags.Deactivate))
	return cmd
}

type toggleFunc func(text string, match tags.Matcher) (string, int)

func newToggleCommand(rootOpts *RootOptions, action string, toggle toggleFunc) *cobra.Command {
	opts := &TagsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           action + " <file>...",
		Short:         fmt.Sprintf("%s matching tagged lines", action),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(opts, action, toggle, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "exact tag name (repeatable)")
	cmd.Flags().StringVar(&opts.Suffix, "suffix", "", "match tags ending in _SUFFIX")
	cmd.Flags().StringVar(&opts.Status, "status", "", "match tags emitted for a status")

	return cmd
}

func runToggle(opts *TagsOptions, action string, toggle toggleFunc, files []string, stdout, stderr io.Writer) error {
	f := newFormatter(opts.RootOptions, stdout, stderr)

	match, err := opts.matcher()
	if err != nil {
		return f.Error(ExitCommandError, ErrCodeIO, err.Error(), nil)
	}

	result := TagsResult{Action: action, Files: make(map[string]int, len(files))}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return f.Error(ExitCommandError, ErrCodeIO, fmt.Sprintf("reading %s: %v", path, err), nil)
		}
		text, n := toggle(string(data), match)
		if n > 0 {
			if err := os.WriteFile(path, []byte(text), 0644); err != nil {
				return f.Error(ExitCommandError, ErrCodeIO, fmt.Sprintf("writing %s: %v", path, err), nil)
			}
		}
		f.VerboseLog("%s: %d line(s)", path, n)
		result.Files[path] = n
		result.Total += n
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %sd %d line(s) in %d file(s)\n", action, result.Total, len(files))
	})
}

// matcher combines the selectors; a line matches when any selector does.
func (o *TagsOptions) matcher() (tags.Matcher, error) {
	var matchers []tags.Matcher
	if len(o.Tags) > 0 {
		matchers = append(matchers, tags.Exactly(o.Tags...))
	}
	if o.Suffix != "" {
		matchers = append(matchers, tags.WithSuffix(o.Suffix))
	}
	if o.Status != "" {
		status, err := ir.ParseStatus(o.Status)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, tags.WithStatus(status))
	}
	if len(matchers) == 0 {
		return nil, fmt.Errorf("select tags with --tag, --suffix or --status")
	}
	return func(tag string) bool {
		for _, m := range matchers {
			if m(tag) {
				return true
			}
		}
		return false
	}, nil
}
