package testutil

import "github.com/roach88/segmaker/internal/ir"

// Manifests returns the manifests shared by test definitions.
func Manifests() ir.ManifestSpec {
	return ir.ManifestSpec{
		Instruments: []ir.InstrumentSpec{
			{Key: "Flute", Name: "Flute", ShortName: "Fl."},
			{Key: "Cello", Name: "Cello", ShortName: "Vc."},
		},
		MetronomeMarks: []ir.MetronomeMarkSpec{
			{Key: "60", Unit: "1/4", UnitsPerMinute: 60},
			{Key: "90", Unit: "1/4", UnitsPerMinute: 90},
		},
		MarginMarkups: []ir.MarginMarkupSpec{
			{Key: "Fl.", Markup: "Fl."},
			{Key: "Vc.", Markup: "Vc."},
		},
	}
}

// Quarters returns n quarter-note leaves of pitch.
func Quarters(pitch string, n int) []ir.LeafSpec {
	leaves := make([]ir.LeafSpec, n)
	for i := range leaves {
		leaves[i] = ir.LeafSpec{Kind: "note", Pitch: pitch, Duration: "1/4"}
	}
	return leaves
}

// Definition returns a three-measure segment (4/4, 3/4, 4/4) for a flute
// and a cello staff. The flute plays eleven quarter notes; the cello rests.
// No defaults and no commands are set.
func Definition() *ir.SegmentDefinition {
	return &ir.SegmentDefinition{
		Score:          "test",
		TimeSignatures: []string{"4/4", "3/4", "4/4"},
		Template: ir.TemplateSpec{Staves: []ir.StaffSpec{
			{Name: "Flute"},
			{Name: "Cello"},
		}},
		Manifests: Manifests(),
		Rhythms: []ir.RhythmSpec{
			{Voice: "Flute_Voice", Start: 1, Stop: 3, Leaves: Quarters("c''", 11)},
		},
	}
}

// Command returns a command of typ on context with value, targeting leaf.
func Command(typ, context, value string, leaf int) ir.CommandSpec {
	return ir.CommandSpec{Type: typ, Context: context, Value: value, Leaf: &leaf}
}
