package segment

import (
	"fmt"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/tags"
)

// statusColors maps a status to its {alert, redraw} x11 colors.
var statusColors = map[ir.Status][2]string{
	ir.StatusDefault:   {"DarkViolet", "violet"},
	ir.StatusExplicit:  {"blue", "DeepSkyBlue2"},
	ir.StatusReapplied: {"green4", "OliveDrab"},
	ir.StatusRedundant: {"DeepPink1", "DeepPink4"},
}

// Color returns the x11 color name for status. redraw selects the dimmer
// steady-state color.
func Color(status ir.Status, redraw bool) string {
	c := statusColors[status]
	if redraw {
		return c[1]
	}
	return c[0]
}

// AnnotateOptions adjusts Annotate.
type AnnotateOptions struct {
	// Prefix is inserted between stem and suffix in every tag.
	Prefix string

	// Uncolor emits only the deactivated color-cancellation scaffold.
	Uncolor bool
}

// Annotate assigns status to w and generates its tagged emissions.
//
// Every emission is tagged STATUS_STEM[_PREFIX][_SUFFIX]. Clefs also get a
// forced-clef directive, latent indicators an alert markup, and redraw
// indicators that are not hidden a steady-state redraw color.
func Annotate(w *score.Wrapper, status ir.Status, opts AnnotateOptions) {
	ind := w.Indicator
	tr := ind.Traits()
	tag := func(suffix string) string {
		return tags.Tag{Status: status, Stem: tr.Stem, Prefix: opts.Prefix, Suffix: suffix}.String()
	}
	grob := fmt.Sprintf("%s.%s", grobContext(tr.Context), tr.Grob)

	w.Status = status
	w.Tag = tag("")
	w.Emissions = nil

	cancel := score.Literal{
		Statement:  fmt.Sprintf(`\override %s.color = ##f`, grob),
		Tag:        tag(tags.SuffixColorCancellation),
		After:      true,
		Deactivate: true,
	}
	if opts.Uncolor {
		w.Emissions = append(w.Emissions, cancel)
		return
	}

	if ind.Kind == indicator.KindClef {
		w.Emissions = append(w.Emissions, score.Literal{
			Statement: fmt.Sprintf(`\set %s.forceClef = ##t`, tr.Context),
			Tag:       tag(tags.SuffixForced),
		})
	}
	w.Emissions = append(w.Emissions, score.Literal{
		Statement: fmt.Sprintf(`\once \override %s.color = #(x11-color '%s)`, grob, Color(status, false)),
		Tag:       tag(tags.SuffixColor),
	})
	if ind.Latent() {
		w.Emissions = append(w.Emissions, score.Literal{
			Statement: fmt.Sprintf(`^ \markup { \with-color #(x11-color '%s) "(%s)" }`, Color(status, false), ind.Label()),
			Tag:       tag(tags.SuffixAlert),
			After:     true,
		})
	}
	if ind.Redraw() && !ind.Hide {
		w.Emissions = append(w.Emissions, cancel, score.Literal{
			Statement: fmt.Sprintf(`\override %s.color = #(x11-color '%s)`, grob, Color(status, true)),
			Tag:       tag(tags.SuffixRedrawColor),
			After:     true,
		})
	}
}

// grobContext names the LilyPond context grob overrides are addressed to.
func grobContext(home string) string {
	if home == indicator.ContextGlobal {
		return "Score"
	}
	return home
}
