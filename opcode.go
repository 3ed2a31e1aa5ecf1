package q565

// Opcode vocabulary and the per-pixel encoding choice shared by encoder and
// decoder. The tag values, bit layouts and biases are fixed parts of the
// format.

const (
	opIndex       = 0x00 // 00iiiiii
	opDiff        = 0x40 // 01rrggbb
	opLuma        = 0x80 // 100ggggg rrrrbbbb
	opDiffIndexed = 0xa0 // 101ggrr  bbiiiiii
	opRun         = 0xc0 // 11cccccc
	opRGB565      = 0xfe // literal, followed by the pixel in little-endian
	opEnd         = 0xff // end-of-stream marker
)

const (
	cacheSize  = 64
	maxRunLen  = 62 // run counts 63 and 64 collide with opRGB565 and opEnd
	headerSize = 8
)

var magic = [4]byte{'q', '5', '6', '5'}

type recordKind uint8

const (
	recIndex recordKind = iota
	recDiff
	recLuma
	recDiffIndexed
	recLiteral
)

// record is one staged non-run opcode: its kind, the encoded bytes, and
// whether the pixel enters the color cache.
type record struct {
	kind   recordKind
	buf    [3]byte
	n      uint8
	insert bool
}

// pickRecord chooses the cheapest encoding for a pixel that did not extend a
// run, trying INDEX, DIFF, LUMA and DIFF_INDEX before falling back to the
// literal. The choice is greedy and local; it is a pure function of the
// pixel, the previous pixel's components and the cache, which keeps it
// testable without any I/O.
//
// comps mirrors the cache contents in unpacked form so the DIFF_INDEX scan
// does not re-unpack all 64 entries per pixel.
func pickRecord(pixel uint16, prevC [3]uint8, cache *colorCache, comps *[cacheSize][3]uint8) record {
	if slot, ok := cache.hit(pixel); ok {
		return record{kind: recIndex, buf: [3]byte{opIndex | slot}, n: 1}
	}

	r, g, b := unpack565(pixel)
	dr := diffN(r, prevC[0], 5)
	dg := diffN(g, prevC[1], 6)
	db := diffN(b, prevC[2], 5)

	if dr >= -2 && dr <= 1 && dg >= -2 && dg <= 1 && db >= -2 && db <= 1 {
		return record{
			kind: recDiff,
			buf:  [3]byte{opDiff | uint8(dr+2)<<4 | uint8(dg+2)<<2 | uint8(db+2)},
			n:    1,
		}
	}

	drg := dr - dg
	dbg := db - dg

	if drg >= -8 && drg <= 7 && dg >= -16 && dg <= 15 && dbg >= -8 && dbg <= 7 {
		return record{
			kind:   recLuma,
			buf:    [3]byte{opLuma | uint8(dg+16), uint8(drg+8)<<4 | uint8(dbg+8)},
			n:      2,
			insert: true,
		}
	}

	for i := 0; i < cacheSize; i++ {
		dr := diffN(r, comps[i][0], 5)
		dg := diffN(g, comps[i][1], 6)
		db := diffN(b, comps[i][2], 5)

		if dr >= -2 && dr <= 1 && dg >= -4 && dg <= 3 && db >= -2 && db <= 1 {
			return record{
				kind:   recDiffIndexed,
				buf:    [3]byte{opDiffIndexed | uint8(dg+4)<<2 | uint8(dr+2), uint8(db+2)<<6 | uint8(i)},
				n:      2,
				insert: true,
			}
		}
	}

	return record{
		kind:   recLiteral,
		buf:    [3]byte{opRGB565, byte(pixel), byte(pixel >> 8)},
		n:      3,
		insert: true,
	}
}

// smallDiffPixel reconstructs a DIFF record against the previous pixel.
func smallDiffPixel(prev uint16, b byte) uint16 {
	return applyDiff(prev, int8(b>>4&3)-2, int8(b>>2&3)-2, int8(b&3)-2)
}

// lumaPixel reconstructs a LUMA record from its two bytes.
func lumaPixel(prev uint16, b0, b1 byte) uint16 {
	dg := int8(b0&0x1f) - 16
	drg := int8(b1>>4) - 8
	dbg := int8(b1&0x0f) - 8

	return applyDiff(prev, drg+dg, dg, dbg+dg)
}

// indexedDiffPixel reconstructs a DIFF_INDEX record against the referenced
// cache slot.
func indexedDiffPixel(cache *colorCache, b0, b1 byte) uint16 {
	dg := int8(b0>>2&7) - 4
	dr := int8(b0&3) - 2
	db := int8(b1>>6) - 2

	return applyDiff(cache.at(b1&(cacheSize-1)), dr, dg, db)
}
