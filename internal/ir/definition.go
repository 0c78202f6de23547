package ir

// SegmentDefinition is the compiled input of one segment run.
//
// It is produced by the CUE compiler or decoded directly from a harness
// scenario, and consumed by segment.Maker. Measure and stage numbers are
// 1-based and local to the segment.
type SegmentDefinition struct {
	Score            string        `json:"score" yaml:"score"`
	TimeSignatures   []string      `json:"time_signatures" yaml:"time_signatures"`
	MeasuresPerStage []int         `json:"measures_per_stage,omitempty" yaml:"measures_per_stage,omitempty"`
	Template         TemplateSpec  `json:"template" yaml:"template"`
	Manifests        ManifestSpec  `json:"manifests" yaml:"manifests"`
	Rhythms          []RhythmSpec  `json:"rhythms,omitempty" yaml:"rhythms,omitempty"`
	Commands         []CommandSpec `json:"commands,omitempty" yaml:"commands,omitempty"`

	// FermataMeasures lists measures rendered with a collapsed staff.
	FermataMeasures []int `json:"fermata_measures,omitempty" yaml:"fermata_measures,omitempty"`

	// Breaks lists measures that begin a new system.
	Breaks []int `json:"breaks,omitempty" yaml:"breaks,omitempty"`

	// FermataMeasureStaffLineCount overrides the configured line count for
	// fermata measures. Nil leaves fermata measures unstyled unless the
	// maker is configured with a default.
	FermataMeasureStaffLineCount *int `json:"fermata_measure_staff_line_count,omitempty" yaml:"fermata_measure_staff_line_count,omitempty"`
}

// TemplateSpec describes the staves the score template builds.
type TemplateSpec struct {
	Staves []StaffSpec `json:"staves" yaml:"staves"`
}

// StaffSpec describes one staff of the template and its first-segment defaults.
//
// Name is the stem of the generated context names: "<Name>_Staff" and
// "<Name>_Voice". Instrument and MarginMarkup are manifest keys.
type StaffSpec struct {
	Name         string `json:"name" yaml:"name"`
	Clef         string `json:"clef,omitempty" yaml:"clef,omitempty"`
	Instrument   string `json:"instrument,omitempty" yaml:"instrument,omitempty"`
	MarginMarkup string `json:"margin_markup,omitempty" yaml:"margin_markup,omitempty"`
}

// ManifestSpec holds the three ordered manifests of a score.
type ManifestSpec struct {
	Instruments    []InstrumentSpec    `json:"instruments,omitempty" yaml:"instruments,omitempty"`
	MetronomeMarks []MetronomeMarkSpec `json:"metronome_marks,omitempty" yaml:"metronome_marks,omitempty"`
	MarginMarkups  []MarginMarkupSpec  `json:"margin_markups,omitempty" yaml:"margin_markups,omitempty"`
}

// InstrumentSpec is one instrument manifest entry.
type InstrumentSpec struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	ShortName string `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Hide      bool   `json:"hide,omitempty" yaml:"hide,omitempty"`
}

// MetronomeMarkSpec is one metronome mark manifest entry.
// Unit is a rational duration string such as "1/4".
type MetronomeMarkSpec struct {
	Key            string `json:"key" yaml:"key"`
	Unit           string `json:"unit" yaml:"unit"`
	UnitsPerMinute int    `json:"units_per_minute" yaml:"units_per_minute"`
	Text           string `json:"text,omitempty" yaml:"text,omitempty"`
}

// MarginMarkupSpec is one margin markup manifest entry.
type MarginMarkupSpec struct {
	Key    string `json:"key" yaml:"key"`
	Markup string `json:"markup" yaml:"markup"`
	Hide   bool   `json:"hide,omitempty" yaml:"hide,omitempty"`
}

// RhythmSpec assigns leaves to a voice over an inclusive measure range.
// Leaf durations must sum to the duration of the range.
type RhythmSpec struct {
	Voice  string     `json:"voice" yaml:"voice"`
	Start  int        `json:"start" yaml:"start"`
	Stop   int        `json:"stop" yaml:"stop"`
	Leaves []LeafSpec `json:"leaves" yaml:"leaves"`
}

// LeafSpec describes one leaf. Kind is "note", "rest" or "skip"; Duration is
// a rational string such as "3/8".
type LeafSpec struct {
	Kind     string `json:"kind" yaml:"kind"`
	Pitch    string `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Duration string `json:"duration" yaml:"duration"`
}

// Command types understood by the segment maker.
const (
	CommandClef          = "clef"
	CommandDynamic       = "dynamic"
	CommandInstrument    = "instrument"
	CommandMarginMarkup  = "margin_markup"
	CommandMetronomeMark = "metronome_mark"
	CommandStaffLines    = "staff_lines"
	CommandLiteral       = "literal"
)

// CommandTypes lists every valid CommandSpec.Type.
var CommandTypes = []string{
	CommandClef,
	CommandDynamic,
	CommandInstrument,
	CommandMarginMarkup,
	CommandMetronomeMark,
	CommandStaffLines,
	CommandLiteral,
}

// CommandSpec describes one composition command.
//
// The target leaf is selected in Context by, in order of precedence, Leaf
// (0-based index), Measure, or Stage; with none set the first leaf is used.
// Value carries clef/dynamic names and manifest keys; Number carries staff
// line counts; Literal carries raw LilyPond text for literal commands.
type CommandSpec struct {
	Type     string `json:"type" yaml:"type"`
	Context  string `json:"context" yaml:"context"`
	Leaf     *int   `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Measure  int    `json:"measure,omitempty" yaml:"measure,omitempty"`
	Stage    int    `json:"stage,omitempty" yaml:"stage,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Number   int    `json:"number,omitempty" yaml:"number,omitempty"`
	Literal  string `json:"literal,omitempty" yaml:"literal,omitempty"`
	Position string `json:"position,omitempty" yaml:"position,omitempty"`
}
