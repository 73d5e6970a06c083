package dop2

import (
	"encoding/binary"
	"fmt"
)

// All multi-byte integers on the wire are big-endian.

// payloadReader walks a leaf payload with truncation checks. It is not safe
// for concurrent use; decoders create one per call.
type payloadReader struct {
	buf []byte
	off int
}

func newPayloadReader(buf []byte) *payloadReader {
	return &payloadReader{buf: buf}
}

func (r *payloadReader) remaining() int {
	return len(r.buf) - r.off
}

func (r *payloadReader) need(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedPayload, n, r.off, r.remaining())
	}
	return nil
}

func (r *payloadReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *payloadReader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *payloadReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *payloadReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// appendU16 appends a big-endian uint16 to a payload under construction.
func appendU16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}
