// Package main exports the q565 streaming API behind a C calling
// convention, for consumption from embedded code written in C. Build it as
// a library:
//
//	go build -buildmode=c-archive ./capi
//	go build -buildmode=c-shared  ./capi
//
// Every entry point forwards to the core package; there is no independent
// logic here. Streaming state lives behind opaque uintptr_t handles that
// must be released with the matching *_free call.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"errors"
	"runtime/cgo"
	"unsafe"

	"github.com/mcuimg/q565"
)

// Status and error codes shared by the exported calls. Non-negative values
// are statuses or byte/pixel counts; negative values are fatal errors.
const (
	q565StatusDone      = 0
	q565StatusSuspended = 1

	q565ErrDimensions     = -1
	q565ErrInvalidHeader  = -2
	q565ErrUnexpectedEnd  = -3
	q565ErrCorruptStream  = -4
	q565ErrOutputTooSmall = -5
	q565ErrBufferTooSmall = -6
	q565ErrBadHandle      = -7
)

func errCode(err error) C.ptrdiff_t {
	switch {
	case errors.Is(err, q565.ErrDimensionMismatch):
		return q565ErrDimensions
	case errors.Is(err, q565.ErrInvalidHeader):
		return q565ErrInvalidHeader
	case errors.Is(err, q565.ErrUnexpectedEnd):
		return q565ErrUnexpectedEnd
	case errors.Is(err, q565.ErrOutputTooSmall):
		return q565ErrOutputTooSmall
	default:
		return q565ErrCorruptStream
	}
}

func pixelSlice(p *C.uint16_t, n C.size_t) []uint16 {
	return unsafe.Slice((*uint16)(unsafe.Pointer(p)), int(n))
}

func byteSlice(p *C.uint8_t, n C.size_t) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}

// q565_encode encodes width*height RGB565 pixels into out. Returns the
// number of bytes written, or a negative error code; q565ErrBufferTooSmall
// if out cannot hold the whole stream.
//
//export q565_encode
func q565_encode(width, height C.uint32_t, pixels *C.uint16_t, pixelCount C.size_t, out *C.uint8_t, outLen C.size_t) C.ptrdiff_t {
	e, err := q565.NewStreamEncoder(int(width), int(height), pixelSlice(pixels, pixelCount))
	if err != nil {
		return errCode(err)
	}

	n, status := e.Encode(byteSlice(out, outLen))
	if status != q565.StatusDone {
		return q565ErrBufferTooSmall
	}

	return C.ptrdiff_t(n)
}

// q565_decode_le decodes a complete stream into out as little-endian
// RGB565. Returns the number of pixels written or a negative error code.
//
//export q565_decode_le
func q565_decode_le(input *C.uint8_t, inputLen C.size_t, output *C.uint16_t, outputLen C.size_t) C.ptrdiff_t {
	return decode(input, inputLen, output, outputLen, q565.LittleEndian)
}

// q565_decode_be decodes a complete stream into out as big-endian RGB565.
// Returns the number of pixels written or a negative error code.
//
//export q565_decode_be
func q565_decode_be(input *C.uint8_t, inputLen C.size_t, output *C.uint16_t, outputLen C.size_t) C.ptrdiff_t {
	return decode(input, inputLen, output, outputLen, q565.BigEndian)
}

func decode(input *C.uint8_t, inputLen C.size_t, output *C.uint16_t, outputLen C.size_t, order q565.PixelOrder) C.ptrdiff_t {
	_, n, err := q565.DecodeInto(byteSlice(input, inputLen), pixelSlice(output, outputLen), &q565.Options{Order: order})
	if err != nil {
		return errCode(err)
	}

	return C.ptrdiff_t(n)
}

// q565_encoder_new creates a streaming encoder over the caller's pixel
// buffer, which must stay valid and unmodified until the encoder is freed.
// Returns an opaque handle, or 0 on invalid dimensions.
//
//export q565_encoder_new
func q565_encoder_new(width, height C.uint32_t, pixels *C.uint16_t, pixelCount C.size_t) C.uintptr_t {
	e, err := q565.NewStreamEncoder(int(width), int(height), pixelSlice(pixels, pixelCount))
	if err != nil {
		return 0
	}

	return C.uintptr_t(cgo.NewHandle(e))
}

// q565_encoder_next writes the next chunk of the stream into out and
// stores the byte count in written. Returns q565StatusSuspended while more
// output remains, q565StatusDone when the stream is complete, or a
// negative error code.
//
//export q565_encoder_next
func q565_encoder_next(h C.uintptr_t, out *C.uint8_t, outLen C.size_t, written *C.size_t) C.ptrdiff_t {
	e, ok := cgo.Handle(h).Value().(*q565.StreamEncoder)
	if !ok {
		return q565ErrBadHandle
	}

	n, status := e.Encode(byteSlice(out, outLen))
	*written = C.size_t(n)
	if status == q565.StatusDone {
		return q565StatusDone
	}

	return q565StatusSuspended
}

// q565_encoder_free releases a streaming encoder handle.
//
//export q565_encoder_free
func q565_encoder_free(h C.uintptr_t) {
	cgo.Handle(h).Delete()
}

// q565_decoder_new creates a streaming decoder writing into the caller's
// output buffer, which must stay valid until the decoder is freed. The
// header is parsed from the stream; output must hold width*height pixels
// once it is known. big_endian selects the output pixel byte order.
//
//export q565_decoder_new
func q565_decoder_new(output *C.uint16_t, outputLen C.size_t, bigEndian C.int) C.uintptr_t {
	order := q565.LittleEndian
	if bigEndian != 0 {
		order = q565.BigEndian
	}

	d := q565.NewStreamDecoder(pixelSlice(output, outputLen), &q565.Options{Order: order})

	return C.uintptr_t(cgo.NewHandle(d))
}

// q565_decoder_feed consumes one input chunk and stores the number of
// bytes consumed in consumed. Returns q565StatusSuspended while the stream
// is incomplete, q565StatusDone once the end marker was consumed, or a
// negative error code, after which the decode must be abandoned.
//
//export q565_decoder_feed
func q565_decoder_feed(h C.uintptr_t, input *C.uint8_t, inputLen C.size_t, consumed *C.size_t) C.ptrdiff_t {
	d, ok := cgo.Handle(h).Value().(*q565.StreamDecoder)
	if !ok {
		return q565ErrBadHandle
	}

	n, status, err := d.Decode(byteSlice(input, inputLen))
	*consumed = C.size_t(n)
	if err != nil {
		return errCode(err)
	}
	if status == q565.StatusDone {
		return q565StatusDone
	}

	return q565StatusSuspended
}

// q565_decoder_pixels returns the number of pixels decoded so far.
//
//export q565_decoder_pixels
func q565_decoder_pixels(h C.uintptr_t) C.size_t {
	d, ok := cgo.Handle(h).Value().(*q565.StreamDecoder)
	if !ok {
		return 0
	}

	return C.size_t(d.Produced())
}

// q565_decoder_free releases a streaming decoder handle.
//
//export q565_decoder_free
func q565_decoder_free(h C.uintptr_t) {
	cgo.Handle(h).Delete()
}

func main() {}
