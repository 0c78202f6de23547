package segment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentError_Message(t *testing.T) {
	err := &SegmentError{
		Code:    ErrCodeCommand,
		Message: "command 2 failed",
		Command: `clef("bass") on Flute_Voice leaf 0`,
		Err:     errors.New("boom"),
	}
	assert.Equal(t, `COMMAND: command 2 failed (command=clef("bass") on Flute_Voice leaf 0): boom`, err.Error())
}

func TestIsHelpers_WalkChain(t *testing.T) {
	inner := invariantError("measure %d outside 1..%d", 9, 3)
	wrapped := fmt.Errorf("context: %w", &SegmentError{Code: ErrCodeCommand, Message: "failed", Err: inner})

	assert.True(t, IsCommandError(wrapped))
	assert.True(t, IsInvariantError(wrapped))
	assert.True(t, IsConfigurationError(wrapped))
	assert.False(t, IsPerformanceError(wrapped))

	assert.False(t, IsInvariantError(errors.New("plain")))
	assert.False(t, IsInvariantError(nil))
}
