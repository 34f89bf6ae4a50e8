// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package buffer provides the byte cursor that header codecs read from and
// write to. All multi-byte helpers use network byte order.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is reported when a read or write runs past the end of the
// underlying slice.
var ErrShortBuffer = errors.New("buffer: short buffer")

// Iterator is a cursor over a caller-owned byte slice.
//
// The first out-of-range access is recorded and every later call becomes a
// no-op, so a codec can issue a sequence of reads/writes and check Err once.
type Iterator struct {
	buf []byte
	pos int
	err error
}

// NewIterator returns an iterator positioned at the start of buf.
func NewIterator(buf []byte) *Iterator {
	return &Iterator{buf: buf}
}

// Offset is the current position.
func (it *Iterator) Offset() int { return it.pos }

// Remaining is the number of bytes between the cursor and the end.
func (it *Iterator) Remaining() int { return len(it.buf) - it.pos }

// Bytes returns the underlying slice.
func (it *Iterator) Bytes() []byte { return it.buf }

// Err returns the first short-buffer error, if any.
func (it *Iterator) Err() error { return it.err }

// next reserves n bytes and returns them, or nil once the iterator failed.
func (it *Iterator) next(n int) []byte {
	if it.err != nil {
		return nil
	}
	if it.Remaining() < n {
		it.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, it.pos, it.Remaining())
		return nil
	}
	b := it.buf[it.pos : it.pos+n]
	it.pos += n
	return b
}

func (it *Iterator) WriteU8(v uint8) {
	if b := it.next(1); b != nil {
		b[0] = v
	}
}

func (it *Iterator) WriteHtonU16(v uint16) {
	if b := it.next(2); b != nil {
		binary.BigEndian.PutUint16(b, v)
	}
}

func (it *Iterator) WriteHtonU32(v uint32) {
	if b := it.next(4); b != nil {
		binary.BigEndian.PutUint32(b, v)
	}
}

// Write copies p verbatim.
func (it *Iterator) Write(p []byte) {
	if b := it.next(len(p)); b != nil {
		copy(b, p)
	}
}

func (it *Iterator) ReadU8() uint8 {
	if b := it.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (it *Iterator) ReadNtohU16() uint16 {
	if b := it.next(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (it *Iterator) ReadNtohU32() uint32 {
	if b := it.next(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

// ReadInto fills dst from the cursor. On a short buffer dst is left untouched.
func (it *Iterator) ReadInto(dst []byte) {
	if b := it.next(len(dst)); b != nil {
		copy(dst, b)
	}
}
