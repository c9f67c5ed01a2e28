// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"bufio"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// wireReader decodes SANE wire primitives from a byte stream. All values
// are transmitted as streams of 4-byte big-endian words; strings carry
// their own length. Every method returns an *IoError on short reads and
// a *ProtocolError on a value that cannot mean what the wire format
// requires (e.g. a string body that is not NUL-terminated). String
// length words are not checked against any upper bound.
type wireReader struct {
	r  *bufio.Reader
	op string // name of the RPC in progress, for error context
}

func newWireReader(r io.Reader) *wireReader {
	return &wireReader{r: bufio.NewReader(r)}
}

func (r *wireReader) readWord() (int32, error) {
	var b [wordSize]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, &IoError{Op: r.op + ": read word", Err: err}
	}
	return decodeWord(b), nil
}

func (r *wireReader) readUWord() (uint32, error) {
	w, err := r.readWord()
	return uint32(w), err
}

func (r *wireReader) readBool() (bool, error) {
	w, err := r.readWord()
	if err != nil {
		return false, err
	}
	return w != 0, nil
}

func (r *wireReader) readFixed() (float64, error) {
	w, err := r.readWord()
	if err != nil {
		return 0, err
	}
	return decodeFixed(w), nil
}

// readPointer reads the pointer word that precedes strings, ranges, and
// option-value payloads: non-zero means "a value follows".
func (r *wireReader) readPointer() (bool, error) {
	w, err := r.readWord()
	if err != nil {
		return false, err
	}
	return w != 0, nil
}

// iso88591Decoder turns the raw ISO-8859-1 bytes SANE puts on the wire
// into a Go string; every byte maps 1:1 onto its Unicode code point, but
// going through x/text keeps the mapping explicit and reusable for the
// encode direction's error checking.
var iso88591Decoder = charmap.ISO8859_1.NewDecoder()
var iso88591Encoder = charmap.ISO8859_1.NewEncoder()

// readString reads a length-prefixed, NUL-terminated ISO-8859-1 string.
// A zero length word means the empty string with no body.
func (r *wireReader) readString() (string, error) {
	n, err := r.readUWord()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", &IoError{Op: r.op + ": read string body", Err: err}
	}
	if buf[n-1] != 0 {
		return "", &ProtocolError{Op: r.op + ": read string", Err: errNotNULTerminated}
	}
	buf = buf[:n-1]
	decoded, err := iso88591Decoder.Bytes(buf)
	if err != nil {
		return "", &ProtocolError{Op: r.op + ": decode ISO-8859-1 string", Err: err}
	}
	return string(decoded), nil
}

func (r *wireReader) readStatus() (Status, error) {
	w, err := r.readWord()
	if err != nil {
		return 0, err
	}
	return Status(w), nil
}

// Parameters describes the geometry of one frame of scanned image data.
type Parameters struct {
	FrameType     FrameType
	LastFrame     bool
	BytesPerLine  int
	PixelsPerLine int
	LineCount     int // -1 means unknown height (hand-held scanner)
	Depth         int // bits per sample: 1, 8, or 16
}

// readParameters reads the six-word Parameters record.
func (r *wireReader) readParameters() (Parameters, error) {
	var p Parameters
	ft, err := r.readWord()
	if err != nil {
		return p, err
	}
	last, err := r.readBool()
	if err != nil {
		return p, err
	}
	bpl, err := r.readWord()
	if err != nil {
		return p, err
	}
	ppl, err := r.readWord()
	if err != nil {
		return p, err
	}
	lines, err := r.readWord()
	if err != nil {
		return p, err
	}
	depth, err := r.readWord()
	if err != nil {
		return p, err
	}
	p.FrameType = FrameType(ft)
	p.LastFrame = last
	p.BytesPerLine = int(bpl)
	p.PixelsPerLine = int(ppl)
	p.LineCount = int(lines)
	p.Depth = int(depth)
	return p, nil
}

var errNotNULTerminated = &wireFormatError{"string body is not NUL-terminated"}
var errRecordTooLarge = &wireFormatError{"record length exceeds INT32_MAX"}

type wireFormatError struct{ msg string }

func (e *wireFormatError) Error() string { return e.msg }

// wireWriter encodes SANE wire primitives to a byte stream.
type wireWriter struct {
	w  *bufio.Writer
	op string
}

func newWireWriter(w io.Writer) *wireWriter {
	return &wireWriter{w: bufio.NewWriter(w)}
}

func (w *wireWriter) writeWord(v int32) error {
	b := encodeWord(v)
	if _, err := w.w.Write(b[:]); err != nil {
		return &IoError{Op: w.op + ": write word", Err: err}
	}
	return nil
}

func (w *wireWriter) writeUWord(v uint32) error { return w.writeWord(int32(v)) }

func (w *wireWriter) writeBool(b bool) error {
	if b {
		return w.writeWord(1)
	}
	return w.writeWord(0)
}

func (w *wireWriter) writeFixed(v float64) error {
	return w.writeWord(encodeFixed(v))
}

func (w *wireWriter) writeOpcode(op opcode) error {
	w.op = op.String()
	return w.writeWord(int32(op))
}

// writeString writes a length-prefixed, NUL-terminated ISO-8859-1
// string: the wire length is len(s)+1 to account for the terminator; a
// zero-length string is a single zero word with no body.
func (w *wireWriter) writeString(s string) error {
	encoded, err := iso88591Encoder.String(s)
	if err != nil {
		return &ProtocolError{Op: w.op + ": encode ISO-8859-1 string", Err: err}
	}
	if len(encoded) == 0 {
		return w.writeWord(0)
	}
	if err := w.writeUWord(uint32(len(encoded) + 1)); err != nil {
		return err
	}
	buf := make([]byte, len(encoded)+1)
	copy(buf, encoded)
	if _, err := w.w.Write(buf); err != nil {
		return &IoError{Op: w.op + ": write string body", Err: err}
	}
	return nil
}

func (w *wireWriter) flush() error {
	if err := w.w.Flush(); err != nil {
		return &IoError{Op: w.op + ": flush", Err: err}
	}
	return nil
}

// byteOrderBigEndian and byteOrderLittleEndian are the words START
// returns to announce the byte order in which multi-byte samples of the
// upcoming frame are encoded.
const (
	byteOrderBigEndian    int32 = 0x4321
	byteOrderLittleEndian int32 = 0x1234
)
