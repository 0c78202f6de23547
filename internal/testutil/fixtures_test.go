package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefinition_IsFresh(t *testing.T) {
	a := Definition()
	b := Definition()
	a.Commands = append(a.Commands, Command("clef", "Flute_Voice", "bass", 0))
	assert.Empty(t, b.Commands)
	assert.Len(t, a.Rhythms[0].Leaves, 11)
}

func TestCommand_LeafPointer(t *testing.T) {
	c := Command("dynamic", "Flute_Voice", "p", 3)
	if assert.NotNil(t, c.Leaf) {
		assert.Equal(t, 3, *c.Leaf)
	}
}
