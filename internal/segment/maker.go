package segment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/manifest"
	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/tags"
)

// Options configures a Maker. Zero values select defaults.
type Options struct {
	// FermataMeasureStaffLineCount applies when a definition does not set
	// its own. Nil leaves fermata measures unstyled.
	FermataMeasureStaffLineCount *int

	// DisableSpacing skips the spacing step.
	DisableSpacing bool

	Spacer        Spacer
	SpacingBudget time.Duration

	// Now is the wall clock used for budgets and run timing.
	Now func() time.Time

	IDs IDGenerator
}

// Maker runs segments.
type Maker struct {
	opts Options
}

// NewMaker returns a Maker with defaults filled in.
func NewMaker(opts Options) *Maker {
	if opts.Spacer == nil {
		opts.Spacer = ProportionalSpacer{}
	}
	if opts.SpacingBudget == 0 {
		opts.SpacingBudget = DefaultSpacingBudget
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	return &Maker{opts: opts}
}

// Result is the output of one successful run.
type Result struct {
	RunID     string
	Score     *score.Score
	Manifests *manifest.Set
	Metadata  *ir.Metadata

	Reapply ReapplyStats

	// Dropped counts momentos dropped at collection.
	Dropped int
}

// Run builds the segment described by def. previous is the snapshot of the
// preceding segment, or nil for the first segment of a score.
func (m *Maker) Run(ctx context.Context, def *ir.SegmentDefinition, previous *ir.Metadata) (res *Result, err error) {
	started := m.opts.Now()
	runID := m.opts.IDs.Generate()
	ctx, span := tracer.Start(ctx, "segment.Run",
		trace.WithAttributes(
			attribute.String("segment.score", def.Score),
			attribute.String("segment.run_id", runID),
			attribute.Bool("segment.first", previous == nil),
		),
	)
	defer func() {
		runDuration.Observe(m.opts.Now().Sub(started).Seconds())
		if err != nil {
			runsTotal.WithLabelValues("error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			runsTotal.WithLabelValues("ok").Inc()
		}
		span.End()
	}()

	manifests, err := manifest.FromSpec(def.Manifests)
	if err != nil {
		return nil, configError(err, "manifests")
	}
	s, err := m.build(def, previous)
	if err != nil {
		return nil, err
	}

	res = &Result{RunID: runID, Score: s, Manifests: manifests}
	if previous == nil {
		if err := attachDefaults(s, def.Template, manifests); err != nil {
			return nil, err
		}
	} else {
		res.Reapply, err = Reapply(ctx, s, manifests, previous)
		if err != nil {
			return nil, err
		}
	}

	if err := runCommands(s, def, manifests); err != nil {
		return nil, err
	}
	classified := Categorize(ctx, s)

	if !m.opts.DisableSpacing {
		if err := applySpacing(s, m.opts.Spacer, m.opts.SpacingBudget, m.opts.Now); err != nil {
			return nil, err
		}
	}

	lineCount := def.FermataMeasureStaffLineCount
	if lineCount == nil {
		lineCount = m.opts.FermataMeasureStaffLineCount
	}
	if lineCount != nil {
		err := StyleFermataMeasures(ctx, s, FermataOptions{
			Measures:  def.FermataMeasures,
			Breaks:    def.Breaks,
			LineCount: *lineCount,
		})
		if err != nil {
			return nil, err
		}
	}

	momentos, dropped := Collect(s, manifests, previous)
	res.Dropped = dropped
	res.Metadata = buildMetadata(previous, s, momentos)

	slog.Info("segment built",
		"score", def.Score,
		"segment", res.Metadata.SegmentNumber,
		"run_id", runID,
		"measures", len(s.Measures),
		"classified", classified,
		"reapplied", res.Reapply.Reapplied,
		"dropped", res.Reapply.Dropped+dropped)
	return res, nil
}

// build lays out the context tree, the measure grid and the rhythms.
func (m *Maker) build(def *ir.SegmentDefinition, previous *ir.Metadata) (*score.Score, error) {
	if len(def.TimeSignatures) == 0 {
		return nil, configError(nil, "segment has no time signatures")
	}
	sigs := make([]indicator.Indicator, len(def.TimeSignatures))
	for i, raw := range def.TimeSignatures {
		ts, err := indicator.ParseTimeSignature(raw)
		if err != nil {
			return nil, configError(err, "measure %d", i+1)
		}
		sigs[i] = ts
	}
	if n := sum(def.MeasuresPerStage); len(def.MeasuresPerStage) > 0 && n != len(sigs) {
		return nil, invariantError("stages cover %d measures, segment has %d", n, len(sigs))
	}

	s, err := score.FromTemplate(def.Template)
	if err != nil {
		return nil, configError(err, "template")
	}
	s.SetMeasures(sigs)

	firstMeasure := 1
	if previous != nil {
		firstMeasure = previous.NextFirstMeasureNumber()
	}
	if err := makeGlobalContext(s, firstMeasure); err != nil {
		return nil, err
	}
	if err := buildRhythms(s, def.Rhythms); err != nil {
		return nil, err
	}
	return s, nil
}

// makeGlobalContext fills the global skips and rests, attaches a time
// signature wherever the meter changes and spans the skips with the
// metronome mark spanner.
func makeGlobalContext(s *score.Score, firstMeasure int) error {
	skips, _ := s.Context(score.NameGlobalSkips)
	rests, _ := s.Context(score.NameGlobalRests)
	var previous *indicator.Indicator
	for i, meas := range s.Measures {
		d := meas.TimeSignature.Duration()
		skip := s.Append(skips, score.LeafSkip, "", d)
		s.Append(rests, score.LeafMultimeasureRest, "", d)
		if previous == nil || !meas.TimeSignature.Equal(*previous) {
			if _, err := s.Attach(skip, meas.TimeSignature); err != nil {
				return configError(err, "time signature of measure %d", i+1)
			}
		}
		ts := meas.TimeSignature
		previous = &ts
	}
	if firstMeasure != 1 {
		skips.Leaves[0].AddLiteral(score.Literal{
			Statement: fmt.Sprintf(`\set Score.currentBarNumber = #%d`, firstMeasure),
			Tag:       tags.MeasureNumber,
		})
	}
	s.AddSpanner(MetronomeMarkSpanner, skips.Leaves)
	return nil
}

// attachDefaults attaches the template's first-segment defaults.
func attachDefaults(s *score.Score, tmpl ir.TemplateSpec, manifests *manifest.Set) error {
	for _, st := range tmpl.Staves {
		staff, ok := s.Context(score.StaffName(st.Name))
		if !ok {
			continue
		}
		leaf := s.FirstLeaf(staff)
		if leaf == nil {
			continue
		}
		var defaults []indicator.Indicator
		if st.Clef != "" {
			defaults = append(defaults, indicator.Clef(st.Clef))
		}
		for _, ref := range []struct {
			proto ir.Prototype
			key   string
		}{
			{ir.PrototypeInstrument, st.Instrument},
			{ir.PrototypeMarginMarkup, st.MarginMarkup},
		} {
			if ref.key == "" {
				continue
			}
			ind, ok := manifests.Lookup(ref.proto, ref.key)
			if !ok {
				return configError(nil, "template staff %q: %s %q not in manifest", st.Name, ref.proto, ref.key)
			}
			defaults = append(defaults, ind)
		}
		for _, ind := range defaults {
			if _, err := s.Attach(leaf, ind, score.AsDefault()); err != nil {
				return configError(err, "template staff %q", st.Name)
			}
		}
	}
	return nil
}

// runCommands compiles and applies every command in order. Failures are
// wrapped with the command's description.
func runCommands(s *score.Score, def *ir.SegmentDefinition, manifests *manifest.Set) error {
	env := &Env{Manifests: manifests, MeasuresPerStage: def.MeasuresPerStage}
	for i, spec := range def.Commands {
		cmd, err := CompileCommand(spec)
		if err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		if err := cmd.Apply(s, env); err != nil {
			return &SegmentError{
				Code:    ErrCodeCommand,
				Message: fmt.Sprintf("command %d failed", i),
				Command: cmd.String(),
				Err:     err,
			}
		}
		slog.Debug("command applied", "index", i, "command", cmd.String())
	}
	return nil
}

func buildMetadata(previous *ir.Metadata, s *score.Score, momentos map[string][]ir.Momento) *ir.Metadata {
	md := &ir.Metadata{
		SegmentNumber:        1,
		FirstMeasureNumber:   1,
		TimeSignatures:       make([]string, len(s.Measures)),
		PersistentIndicators: momentos,
	}
	if previous != nil {
		md.SegmentNumber = previous.SegmentNumber + 1
		md.FirstMeasureNumber = previous.NextFirstMeasureNumber()
	}
	for i, meas := range s.Measures {
		md.TimeSignatures[i] = meas.TimeSignature.String()
	}
	md.Duration, md.StartClockTime, md.StopClockTime = ClockTimes(s, previous)
	return md
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
