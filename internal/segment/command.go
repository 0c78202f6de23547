package segment

import (
	"fmt"
	"sort"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/manifest"
	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/tags"
)

// Env is what commands may consult besides the score.
type Env struct {
	Manifests        *manifest.Set
	MeasuresPerStage []int
}

// Command is one composition command.
type Command interface {
	Apply(s *score.Score, env *Env) error
	String() string
}

// CompileCommand turns a command description into a Command. Unknown command
// types are configuration errors.
func CompileCommand(spec ir.CommandSpec) (Command, error) {
	if spec.Context == "" {
		return nil, configError(nil, "%s command without context", spec.Type)
	}
	switch spec.Type {
	case ir.CommandClef, ir.CommandDynamic, ir.CommandStaffLines:
		if spec.Type == ir.CommandStaffLines && spec.Number < 0 {
			return nil, configError(nil, "staff_lines command with negative count %d", spec.Number)
		}
		if spec.Type != ir.CommandStaffLines && spec.Value == "" {
			return nil, configError(nil, "%s command without value", spec.Type)
		}
		return &indicatorCommand{spec: spec}, nil
	case ir.CommandInstrument, ir.CommandMarginMarkup, ir.CommandMetronomeMark:
		if spec.Value == "" {
			return nil, configError(nil, "%s command without manifest key", spec.Type)
		}
		return &indicatorCommand{spec: spec}, nil
	case ir.CommandLiteral:
		if spec.Literal == "" {
			return nil, configError(nil, "literal command without text")
		}
		if spec.Position != "" && spec.Position != "before" && spec.Position != "after" {
			return nil, configError(nil, "literal command with position %q", spec.Position)
		}
		return &literalCommand{spec: spec}, nil
	}
	return nil, configError(nil, "unknown command type %q", spec.Type)
}

type indicatorCommand struct {
	spec ir.CommandSpec
}

func (c *indicatorCommand) String() string {
	return describe(c.spec)
}

func (c *indicatorCommand) Apply(s *score.Score, env *Env) error {
	leaf, err := selectLeaf(s, env, c.spec)
	if err != nil {
		return err
	}
	ind, err := c.indicator(env.Manifests)
	if err != nil {
		return err
	}
	var opts []score.AttachOption
	if ind.Kind == indicator.KindMetronomeMark {
		sp, ok := s.Spanner(MetronomeMarkSpanner)
		if !ok {
			return fmt.Errorf("no metronome mark spanner")
		}
		skips, _ := s.Context(score.NameGlobalSkips)
		skip := s.LeafAt(skips, leaf.Offset)
		if skip == nil || skip.Offset.Cmp(leaf.Offset) != 0 {
			return invariantError("metronome mark at offset %s does not start a measure", leaf.Offset.RatString())
		}
		leaf = skip
		opts = append(opts, score.WithSpanner(sp))
	}
	_, err = s.Attach(leaf, ind, opts...)
	return err
}

func (c *indicatorCommand) indicator(m *manifest.Set) (indicator.Indicator, error) {
	spec := c.spec
	switch spec.Type {
	case ir.CommandClef:
		return indicator.Clef(spec.Value), nil
	case ir.CommandDynamic:
		return indicator.Dynamic(spec.Value), nil
	case ir.CommandStaffLines:
		return indicator.StaffLines(spec.Number), nil
	}
	proto := map[string]ir.Prototype{
		ir.CommandInstrument:    ir.PrototypeInstrument,
		ir.CommandMarginMarkup:  ir.PrototypeMarginMarkup,
		ir.CommandMetronomeMark: ir.PrototypeMetronomeMark,
	}[spec.Type]
	ind, ok := m.Lookup(proto, spec.Value)
	if !ok {
		return indicator.Indicator{}, configError(nil, "%s %q not in manifest", proto, spec.Value)
	}
	return ind, nil
}

type literalCommand struct {
	spec ir.CommandSpec
}

func (c *literalCommand) String() string {
	return describe(c.spec)
}

func (c *literalCommand) Apply(s *score.Score, env *Env) error {
	leaf, err := selectLeaf(s, env, c.spec)
	if err != nil {
		return err
	}
	leaf.AddLiteral(score.Literal{
		Statement: c.spec.Literal,
		Tag:       tags.Literal,
		After:     c.spec.Position == "after",
	})
	return nil
}

func describe(spec ir.CommandSpec) string {
	target := "first leaf"
	switch {
	case spec.Leaf != nil:
		target = fmt.Sprintf("leaf %d", *spec.Leaf)
	case spec.Measure != 0:
		target = fmt.Sprintf("measure %d", spec.Measure)
	case spec.Stage != 0:
		target = fmt.Sprintf("stage %d", spec.Stage)
	}
	arg := spec.Value
	switch spec.Type {
	case ir.CommandStaffLines:
		arg = fmt.Sprint(spec.Number)
	case ir.CommandLiteral:
		arg = spec.Literal
	}
	return fmt.Sprintf("%s(%q) on %s %s", spec.Type, arg, spec.Context, target)
}

// selectLeaf resolves a command's target leaf.
func selectLeaf(s *score.Score, env *Env, spec ir.CommandSpec) (*score.Leaf, error) {
	c, ok := s.Context(spec.Context)
	if !ok {
		return nil, configError(nil, "unknown context %q", spec.Context)
	}
	leaves := s.LeavesUnder(c)
	if len(leaves) == 0 {
		return nil, configError(nil, "context %q has no leaves", spec.Context)
	}
	sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].Offset.Cmp(leaves[j].Offset) < 0 })

	measure := spec.Measure
	switch {
	case spec.Leaf != nil:
		i := *spec.Leaf
		if i < 0 || i >= len(leaves) {
			return nil, invariantError("leaf index %d outside 0..%d of %s", i, len(leaves)-1, spec.Context)
		}
		return leaves[i], nil
	case spec.Measure != 0:
	case spec.Stage != 0:
		m, err := stageMeasure(spec.Stage, env.MeasuresPerStage, len(s.Measures))
		if err != nil {
			return nil, err
		}
		measure = m
	default:
		return leaves[0], nil
	}

	if measure < 1 || measure > len(s.Measures) {
		return nil, invariantError("measure %d outside 1..%d", measure, len(s.Measures))
	}
	grid := s.Measures[measure-1]
	for _, l := range leaves {
		if l.Offset.Cmp(grid.Start) >= 0 && l.Offset.Cmp(grid.Stop) < 0 {
			return l, nil
		}
	}
	return nil, invariantError("no leaf of %s starts in measure %d", spec.Context, measure)
}

// stageMeasure returns the first measure of a 1-based stage. Without a
// stage layout every measure is its own stage.
func stageMeasure(stage int, perStage []int, measureCount int) (int, error) {
	if len(perStage) == 0 {
		if stage < 1 || stage > measureCount {
			return 0, invariantError("stage %d outside 1..%d", stage, measureCount)
		}
		return stage, nil
	}
	if stage < 1 || stage > len(perStage) {
		return 0, invariantError("stage %d outside 1..%d", stage, len(perStage))
	}
	first := 1
	for _, n := range perStage[:stage-1] {
		first += n
	}
	return first, nil
}
