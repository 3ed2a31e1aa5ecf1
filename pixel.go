package q565

import "math/bits"

// RGB565 pixel handling

// PixelOrder selects the byte order of decoded pixels in memory.
type PixelOrder uint8

const (
	// LittleEndian stores decoded pixels as native uint16 values with
	// little-endian wire layout.
	LittleEndian PixelOrder = iota
	// BigEndian byte-swaps decoded pixels, for framebuffers that expect
	// big-endian 16-bit words.
	BigEndian
)

// wire converts a packed pixel to the configured in-memory order.
func (o PixelOrder) wire(p uint16) uint16 {
	if o == BigEndian {
		return bits.ReverseBytes16(p)
	}

	return p
}

// hashPixel maps a pixel to its cache slot. The sum of the two packed bytes
// masked to the cache size is part of the wire format: encoder and decoder
// must derive identical slots from identical pixel sequences.
func hashPixel(p uint16) uint8 {
	return (uint8(p) + uint8(p>>8)) & (cacheSize - 1)
}

// unpack565 splits a packed pixel into its 5-bit red, 6-bit green and 5-bit
// blue components.
func unpack565(p uint16) (r, g, b uint8) {
	return uint8(p >> 11), uint8(p>>5) & 0x3f, uint8(p) & 0x1f
}

// pack565 composes components into a packed pixel. Component bits above the
// channel width must already be clear.
func pack565(r, g, b uint8) uint16 {
	return uint16(r)<<11 | uint16(g)<<5 | uint16(b)
}

// diffN is the wrapping difference of two n-bit channel values, sign
// extended from n bits.
func diffN(a, b, n uint8) int8 {
	return int8((a-b)<<(8-n)) >> (8 - n)
}

// sumN applies a signed delta to an n-bit channel value, wrapping within
// n bits.
func sumN(a uint8, d int8, n uint8) uint8 {
	return uint8(int8(a)+d) << (8 - n) >> (8 - n)
}

// applyDiff adds per-channel deltas to a pixel with wrapping channel
// arithmetic.
func applyDiff(p uint16, dr, dg, db int8) uint16 {
	r, g, b := unpack565(p)

	return pack565(sumN(r, dr, 5), sumN(g, dg, 6), sumN(b, db, 5))
}
