package score

// LeafID is the stable identity of a leaf within one score.
//
// IDs are assigned in creation order and never reused, so they can key side
// tables that outlive wrapper replacement.
type LeafID int64

// idClock hands out leaf IDs. The first call to next returns 1.
type idClock struct {
	seq int64
}

func (c *idClock) next() LeafID {
	c.seq++
	return LeafID(c.seq)
}
