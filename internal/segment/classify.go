package segment

import (
	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
)

// Classify decides the status of candidate given the indicator effective
// immediately before it. previous is nil when nothing of the kind is in
// effect. isDefault marks attachments made by the score template.
//
// Classify is pure; callers annotate separately.
func Classify(candidate indicator.Indicator, previous *indicator.Indicator, isDefault bool) ir.Status {
	if previous == nil {
		if isDefault {
			return ir.StatusDefault
		}
		return ir.StatusExplicit
	}
	if candidate.Equal(*previous) && !candidate.Traits().Repeatable {
		return ir.StatusRedundant
	}
	return ir.StatusExplicit
}
