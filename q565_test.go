package q565

import (
	"bytes"
	"testing"
)

// Synthetic test images. All generators are deterministic so failures
// reproduce exactly.

func solidImage(w, h int, p uint16) []uint16 {
	pix := make([]uint16, w*h)
	for i := range pix {
		pix[i] = p
	}
	return pix
}

// gradientImage produces smooth horizontal and vertical ramps that mostly
// exercise the DIFF and LUMA records.
func gradientImage(w, h int) []uint16 {
	pix := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8((x * 31) / max(w-1, 1))
			g := uint8((y * 63) / max(h-1, 1))
			b := uint8(((x + y) * 31) / max(w+h-2, 1))
			pix[y*w+x] = pack565(r, g, b)
		}
	}
	return pix
}

// noiseImage produces uncorrelated pixels that mostly exercise literals
// and the cache.
func noiseImage(w, h int, seed uint32) []uint16 {
	pix := make([]uint16, w*h)
	s := seed | 1
	for i := range pix {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		pix[i] = uint16(s)
	}
	return pix
}

// cycleImage repeats a palette of exactly n distinct colors so every color
// eventually collides with another in the cache, forcing encoder and
// decoder to evict in lockstep.
func cycleImage(pixels, n int) []uint16 {
	palette := make([]uint16, n)
	for i := range palette {
		palette[i] = uint16(i*2551 + 7919)
	}
	pix := make([]uint16, pixels)
	for i := range pix {
		pix[i] = palette[i%n]
	}
	return pix
}

func mustEncode(t testing.TB, w, h int, pix []uint16) []byte {
	t.Helper()

	data, err := Encode(w, h, pix)
	if err != nil {
		t.Fatalf("Encode(%dx%d): %v", w, h, err)
	}
	return data
}

// TestRoundTrip verifies the round-trip law over a spread of image shapes
// and contents, including a single pixel.
func TestRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		w, h int
		pix  []uint16
	}{
		{"one pixel", 1, 1, []uint16{0xbeef}},
		{"one black pixel", 1, 1, []uint16{0}},
		{"solid", 17, 9, solidImage(17, 9, 0x07e0)},
		{"solid black", 8, 8, solidImage(8, 8, 0)},
		{"gradient", 64, 48, gradientImage(64, 48)},
		{"noise", 31, 27, noiseImage(31, 27, 0xdeadbeef)},
		{"cache cycle 64", 13, 40, cycleImage(520, 64)},
		{"cache cycle 65", 13, 40, cycleImage(520, 65)},
		{"cache cycle 200", 25, 32, cycleImage(800, 200)},
		{"single row", 300, 1, gradientImage(300, 1)},
		{"single column", 1, 300, gradientImage(1, 300)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := mustEncode(t, tc.w, tc.h, tc.pix)

			img, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if img.Width != tc.w || img.Height != tc.h {
				t.Fatalf("decoded %dx%d, want %dx%d", img.Width, img.Height, tc.w, tc.h)
			}
			for i := range tc.pix {
				if img.Pix[i] != tc.pix[i] {
					t.Fatalf("pixel %d = %#04x, want %#04x", i, img.Pix[i], tc.pix[i])
				}
			}
		})
	}
}

// TestEncodeDeterminism verifies that encoding the same input twice yields
// byte-identical streams.
func TestEncodeDeterminism(t *testing.T) {
	pix := noiseImage(40, 30, 12345)

	a := mustEncode(t, 40, 30, pix)
	b := mustEncode(t, 40, 30, pix)

	if !bytes.Equal(a, b) {
		t.Error("two encodes of the same image differ")
	}
}

// TestKnownVectors pins exact stream bytes so the format cannot drift.
func TestKnownVectors(t *testing.T) {
	testCases := []struct {
		name string
		w, h int
		pix  []uint16
		want []byte
	}{
		{
			name: "run literal run",
			w:    2, h: 2,
			pix: []uint16{0x0000, 0x0000, 0x1234, 0x1234},
			want: []byte{
				'q', '5', '6', '5', 2, 0, 2, 0,
				opRun | 1, // two black pixels
				opRGB565, 0x34, 0x12,
				opRun | 0,
				opEnd,
			},
		},
		{
			name: "small diff",
			w:    1, h: 1,
			pix:  []uint16{0x0821}, // (1,1,1)
			want: []byte{'q', '5', '6', '5', 1, 0, 1, 0, 0x7f, opEnd},
		},
		{
			name: "luma diff",
			w:    1, h: 1,
			pix:  []uint16{0x28a5}, // (5,5,5)
			want: []byte{'q', '5', '6', '5', 1, 0, 1, 0, 0x95, 0x88, opEnd},
		},
		{
			name: "index of implicit black slot",
			w:    3, h: 1,
			pix:  []uint16{0x0821, 0x0000, 0x0821},
			want: []byte{'q', '5', '6', '5', 3, 0, 1, 0, 0x7f, 0x00, 0x7f, opEnd},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustEncode(t, tc.w, tc.h, tc.pix)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("stream = % x, want % x", got, tc.want)
			}

			img, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			for i := range tc.pix {
				if img.Pix[i] != tc.pix[i] {
					t.Fatalf("pixel %d = %#04x, want %#04x", i, img.Pix[i], tc.pix[i])
				}
			}
		})
	}
}

// TestDecodeInto verifies the allocation-free one-shot decode path.
func TestDecodeInto(t *testing.T) {
	pix := gradientImage(20, 10)
	data := mustEncode(t, 20, 10, pix)

	out := make([]uint16, 200)
	hdr, n, err := DecodeInto(data, out)
	if err != nil {
		t.Fatalf("DecodeInto: %v", err)
	}
	if hdr.Width != 20 || hdr.Height != 10 || n != 200 {
		t.Fatalf("hdr = %+v, n = %d", hdr, n)
	}
	for i := range pix {
		if out[i] != pix[i] {
			t.Fatalf("pixel %d = %#04x, want %#04x", i, out[i], pix[i])
		}
	}

	if _, _, err := DecodeInto(data, make([]uint16, 199)); err != ErrOutputTooSmall {
		t.Errorf("short output: err = %v, want ErrOutputTooSmall", err)
	}
}

// TestBigEndianOutput verifies the byte-swapped output pixel order.
func TestBigEndianOutput(t *testing.T) {
	pix := []uint16{0x1234, 0x1234, 0xabcd}
	data := mustEncode(t, 3, 1, pix)

	img, err := Decode(data, &Options{Order: BigEndian})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []uint16{0x3412, 0x3412, 0xcdab}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Errorf("pixel %d = %#04x, want %#04x", i, img.Pix[i], want[i])
		}
	}
}

// FuzzDecode checks that no input, valid or hostile, can panic the
// decoder, and that anything the encoder emits survives a round trip.
func FuzzDecode(f *testing.F) {
	f.Add(mustEncode(f, 8, 8, gradientImage(8, 8)))
	f.Add(mustEncode(f, 5, 3, noiseImage(5, 3, 99)))
	f.Add(mustEncode(f, 4, 4, solidImage(4, 4, 0x1234)))
	f.Add([]byte("q565"))
	f.Add([]byte{'q', '5', '6', '5', 1, 0, 1, 0, opRun | 61, opEnd})

	f.Fuzz(func(t *testing.T, data []byte) {
		img, err := Decode(data)
		if err != nil {
			return
		}

		// Valid streams must re-encode and decode to the same pixels.
		again, err := Encode(img.Width, img.Height, img.Pix)
		if err != nil {
			t.Fatalf("re-encode of decoded image: %v", err)
		}
		back, err := Decode(again)
		if err != nil {
			t.Fatalf("decode of re-encode: %v", err)
		}
		for i := range img.Pix {
			if back.Pix[i] != img.Pix[i] {
				t.Fatalf("pixel %d changed across round trip", i)
			}
		}
	})
}
