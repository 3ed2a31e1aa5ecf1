package q565

// colorCache is the fixed table of recently seen pixels shared in spirit by
// encoder and decoder: each owns its own copy and must mutate it in lockstep
// with the other side, record by record, or decoding silently diverges.
// Slots are overwritten unconditionally; there is no chaining and no
// eviction policy beyond the overwrite.
type colorCache [cacheSize]uint16

// at returns the pixel stored in a slot. Empty slots read as zero, which is
// indistinguishable from a cached black pixel; the format accepts that.
func (c *colorCache) at(slot uint8) uint16 {
	return c[slot]
}

// hit reports the pixel's own hash slot and whether it currently holds this
// exact pixel.
func (c *colorCache) hit(p uint16) (uint8, bool) {
	slot := hashPixel(p)

	return slot, c[slot] == p
}

// insert stores the pixel in its hash slot, overwriting the previous
// occupant, and returns the slot.
func (c *colorCache) insert(p uint16) uint8 {
	slot := hashPixel(p)
	c[slot] = p

	return slot
}
