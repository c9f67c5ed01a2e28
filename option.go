// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import "fmt"

// RangeConstraint bounds a numeric option's value. Min, Max, and Quant
// are interpreted as integers or as fixed-precision numbers depending on
// the host option's Kind. Quant == 0 means "unquantized".
type RangeConstraint struct {
	Min, Max, Quant int32
}

// Info describes the effects of a successful option write, decoded from
// the write-info bitset the daemon returns.
type Info struct {
	Inexact      bool // the written value was adjusted to the nearest legal one
	ReloadOpts   bool // the descriptor cache must be refetched
	ReloadParams bool // scanning parameters changed as a side effect
}

// Option is one tunable parameter on an open Device. Its Kind determines
// which typed accessor methods are valid to call; calling the wrong one
// returns a *PreconditionError rather than panicking, since Go has no sum
// type to enforce this statically.
type Option struct {
	device *Device
	index  int32
	size   int // wire size in bytes

	Name           string
	Title          string
	Description    string
	Group          string
	Kind           ValueKind
	Units          Unit
	Length         int // element count: size/4 for INT/FIXED, 1 for BOOL/STRING, 0 for BUTTON
	Capabilities   map[Capability]bool
	ConstraintKind ConstraintKind
	Range          *RangeConstraint
	WordList       []int32  // raw constraint words; interpret via Kind
	StringList     []string
}

func (o *Option) has(c Capability) bool { return o.Capabilities[c] }

// IsActive reports whether the option currently accepts GET/SET calls.
func (o *Option) IsActive() bool { return !o.has(CapInactive) }

// IsSettable reports whether SET_VALUE may be issued for this option.
func (o *Option) IsSettable() bool { return o.has(CapSoftSelect) }

// IsDetectable reports whether GET_VALUE may be issued for this option.
func (o *Option) IsDetectable() bool { return o.has(CapSoftDetect) }

// IsAutomatic reports whether SET_AUTO is supported.
func (o *Option) IsAutomatic() bool { return o.has(CapAutomatic) }

// elementCountFor computes the Length invariant from size and kind.
func elementCountFor(kind ValueKind, size int) int {
	switch kind {
	case KindInt, KindFixed:
		return size / wordSize
	case KindBool, KindString:
		return 1
	default:
		return 0
	}
}

// visible applies the option-visibility filter: an option
// is omitted if it claims both soft- and hard-select, claims soft-select
// without soft-detect, or claims none of soft-select/soft-detect/hard-select.
func visible(caps map[Capability]bool) bool {
	soft := caps[CapSoftSelect]
	hard := caps[CapHardSelect]
	detect := caps[CapSoftDetect]
	switch {
	case soft && hard:
		return false
	case soft && !detect:
		return false
	case !soft && !detect && !hard:
		return false
	default:
		return true
	}
}

// validConstraint reports whether kind/constraintKind form one of the
// combinations this protocol allows: {STRING, StringList}, {INT|FIXED,
// Range|WordList}, or {any, None}.
func validConstraint(kind ValueKind, ck ConstraintKind) bool {
	switch ck {
	case ConstraintNone:
		return true
	case ConstraintStringList:
		return kind == KindString
	case ConstraintRange, ConstraintWordList:
		return kind == KindInt || kind == KindFixed
	default:
		return false
	}
}

// readOptionDescriptor decodes one option descriptor record, per the
// wire layout: ptr, name, title, description, valueKind,
// units, size, capabilityBits, constraintKind, constraintPayload.
func (r *wireReader) readOptionDescriptor() (*Option, error) {
	present, err := r.readPointer()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, &ProtocolError{Op: "read option descriptor", Err: errNilDescriptor}
	}
	name, err := r.readString()
	if err != nil {
		return nil, err
	}
	title, err := r.readString()
	if err != nil {
		return nil, err
	}
	desc, err := r.readString()
	if err != nil {
		return nil, err
	}
	kindWord, err := r.readWord()
	if err != nil {
		return nil, err
	}
	unitWord, err := r.readWord()
	if err != nil {
		return nil, err
	}
	sizeWord, err := r.readWord()
	if err != nil {
		return nil, err
	}
	capWord, err := r.readWord()
	if err != nil {
		return nil, err
	}
	ckWord, err := r.readWord()
	if err != nil {
		return nil, err
	}

	kind := ValueKind(kindWord)
	ck := ConstraintKind(ckWord)
	o := &Option{
		Name:           name,
		Title:          title,
		Description:    desc,
		Kind:           kind,
		Units:          Unit(unitWord),
		size:           int(sizeWord),
		Capabilities:   decodeCapabilities(capWord),
		ConstraintKind: ck,
	}
	o.Length = elementCountFor(kind, o.size)

	if !validConstraint(kind, ck) {
		defaultLogger.Warn("option has unsupported kind/constraint combination; treating as unconstrained",
			"option", name, "kind", kind, "constraint", ck)
		o.ConstraintKind = ConstraintNone
		ck = ConstraintNone
	}

	switch ck {
	case ConstraintNone:
		// no payload
	case ConstraintRange:
		present, err := r.readPointer()
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, &ProtocolError{Op: "read range constraint", Err: errNilDescriptor}
		}
		min, err := r.readWord()
		if err != nil {
			return nil, err
		}
		max, err := r.readWord()
		if err != nil {
			return nil, err
		}
		quant, err := r.readWord()
		if err != nil {
			return nil, err
		}
		o.Range = &RangeConstraint{Min: min, Max: max, Quant: quant}
	case ConstraintWordList:
		n, err := r.readWord()
		if err != nil {
			return nil, err
		}
		words := make([]int32, n)
		for i := range words {
			words[i], err = r.readWord()
			if err != nil {
				return nil, err
			}
		}
		if n > 0 && words[0] != n {
			return nil, &ProtocolError{Op: "read word-list constraint", Err: errWordListCountMismatch}
		}
		if n > 0 {
			o.WordList = words[1:]
		}
	case ConstraintStringList:
		n, err := r.readWord()
		if err != nil {
			return nil, err
		}
		strs := make([]string, n)
		for i := range strs {
			strs[i], err = r.readString()
			if err != nil {
				return nil, err
			}
		}
		if n > 0 {
			o.StringList = strs[:n-1] // drop the empty terminator
		}
	}
	return o, nil
}

var errNilDescriptor = &wireFormatError{"null pointer where a value was expected"}
var errWordListCountMismatch = &wireFormatError{"word-list constraint's first element does not match its count"}
var errTruncatedValue = &wireFormatError{"value payload shorter than its declared wire size"}

// --- typed GET/SET accessors -------------------------------------------------

const (
	actionGetValue int32 = 0
	actionSetValue int32 = 1
	actionSetAuto  int32 = 2
)

func (o *Option) precondition(op string, ok bool, reason string) error {
	if !ok {
		return &PreconditionError{Op: fmt.Sprintf("%s option %q", op, o.Name), Reason: reason}
	}
	return nil
}

// GetBool reads a BOOLEAN option's current value.
func (o *Option) GetBool() (bool, error) {
	if err := o.precondition("read", o.Kind == KindBool, "option is not boolean-valued"); err != nil {
		return false, err
	}
	if err := o.precondition("read", o.Length == 1, "option is not a scalar"); err != nil {
		return false, err
	}
	if err := o.precondition("read", o.IsDetectable(), "option is not soft-detectable"); err != nil {
		return false, err
	}
	if err := o.precondition("read", o.IsActive(), "option is inactive"); err != nil {
		return false, err
	}
	payload, _, err := o.device.controlOption(o, actionGetValue, nil)
	if err != nil {
		return false, err
	}
	if len(payload) < wordSize {
		return false, &IoError{Op: fmt.Sprintf("read option %q", o.Name), Err: errTruncatedValue}
	}
	return decodeWord([wordSize]byte(payload[:wordSize])) != 0, nil
}

// SetBool writes a BOOLEAN option's value.
func (o *Option) SetBool(v bool) (Info, error) {
	if err := o.precondition("write", o.Kind == KindBool, "option is not boolean-valued"); err != nil {
		return Info{}, err
	}
	if err := o.precondition("write", o.IsSettable(), "option is not soft-selectable"); err != nil {
		return Info{}, err
	}
	w := int32(0)
	if v {
		w = 1
	}
	b := encodeWord(w)
	_, info, err := o.device.controlOption(o, actionSetValue, b[:])
	return info, err
}

// GetInt reads a scalar INT option's current value.
func (o *Option) GetInt() (int32, error) {
	vs, err := o.GetInts()
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		return 0, &IoError{Op: fmt.Sprintf("read option %q", o.Name), Err: errTruncatedValue}
	}
	return vs[0], nil
}

// GetInts reads an INT-array option's current values.
func (o *Option) GetInts() ([]int32, error) {
	if err := o.precondition("read", o.Kind == KindInt, "option is not int-valued"); err != nil {
		return nil, err
	}
	if err := o.precondition("read", o.IsDetectable(), "option is not soft-detectable"); err != nil {
		return nil, err
	}
	if err := o.precondition("read", o.IsActive(), "option is inactive"); err != nil {
		return nil, err
	}
	payload, _, err := o.device.controlOption(o, actionGetValue, nil)
	if err != nil {
		return nil, err
	}
	return decodeWords(payload), nil
}

// SetInt writes a scalar INT option's value.
func (o *Option) SetInt(v int32) (Info, error) {
	return o.SetInts([]int32{v})
}

// SetInts writes an INT-array option's values.
func (o *Option) SetInts(vs []int32) (Info, error) {
	if err := o.precondition("write", o.Kind == KindInt, "option is not int-valued"); err != nil {
		return Info{}, err
	}
	if err := o.precondition("write", o.IsSettable(), "option is not soft-selectable"); err != nil {
		return Info{}, err
	}
	_, info, err := o.device.controlOption(o, actionSetValue, encodeWords(vs))
	return info, err
}

// GetFixed reads a scalar FIXED option's current value.
func (o *Option) GetFixed() (float64, error) {
	vs, err := o.GetFixeds()
	if err != nil {
		return 0, err
	}
	if len(vs) == 0 {
		return 0, &IoError{Op: fmt.Sprintf("read option %q", o.Name), Err: errTruncatedValue}
	}
	return vs[0], nil
}

// GetFixeds reads a FIXED-array option's current values.
func (o *Option) GetFixeds() ([]float64, error) {
	if err := o.precondition("read", o.Kind == KindFixed, "option is not fixed-valued"); err != nil {
		return nil, err
	}
	if err := o.precondition("read", o.IsDetectable(), "option is not soft-detectable"); err != nil {
		return nil, err
	}
	if err := o.precondition("read", o.IsActive(), "option is inactive"); err != nil {
		return nil, err
	}
	payload, _, err := o.device.controlOption(o, actionGetValue, nil)
	if err != nil {
		return nil, err
	}
	words := decodeWords(payload)
	out := make([]float64, len(words))
	for i, w := range words {
		out[i] = decodeFixed(w)
	}
	return out, nil
}

// SetFixed writes a scalar FIXED option's value.
func (o *Option) SetFixed(v float64) (Info, error) {
	return o.SetFixeds([]float64{v})
}

// SetFixeds writes a FIXED-array option's values.
func (o *Option) SetFixeds(vs []float64) (Info, error) {
	if err := o.precondition("write", o.Kind == KindFixed, "option is not fixed-valued"); err != nil {
		return Info{}, err
	}
	if err := o.precondition("write", o.IsSettable(), "option is not soft-selectable"); err != nil {
		return Info{}, err
	}
	words := make([]int32, len(vs))
	for i, v := range vs {
		if !validFixed(v) {
			return Info{}, &PreconditionError{
				Op:     fmt.Sprintf("write option %q", o.Name),
				Reason: fmt.Sprintf("value %v outside representable range [%v, %v]", v, MinFixed, MaxFixed),
			}
		}
		words[i] = encodeFixed(v)
	}
	_, info, err := o.device.controlOption(o, actionSetValue, encodeWords(words))
	return info, err
}

// GetString reads a STRING option's current value, truncated at the
// first NUL byte.
func (o *Option) GetString() (string, error) {
	if err := o.precondition("read", o.Kind == KindString, "option is not string-valued"); err != nil {
		return "", err
	}
	if err := o.precondition("read", o.IsDetectable(), "option is not soft-detectable"); err != nil {
		return "", err
	}
	if err := o.precondition("read", o.IsActive(), "option is inactive"); err != nil {
		return "", err
	}
	payload, _, err := o.device.controlOption(o, actionGetValue, nil)
	if err != nil {
		return "", err
	}
	return decodeNULString(payload)
}

// SetString writes a STRING option's value. newValue must be strictly
// shorter than the option's wire size, since the NUL terminator occupies
// the final byte. If the daemon reports the write as INEXACT, the
// returned string may differ from newValue; otherwise a divergent
// returned value is a protocol violation.
func (o *Option) SetString(newValue string) (string, Info, error) {
	if err := o.precondition("write", o.Kind == KindString, "option is not string-valued"); err != nil {
		return "", Info{}, err
	}
	if err := o.precondition("write", o.IsSettable(), "option is not soft-selectable"); err != nil {
		return "", Info{}, err
	}
	encoded, err := iso88591Encoder.String(newValue)
	if err != nil {
		return "", Info{}, &ProtocolError{Op: "encode option string", Err: err}
	}
	if len(encoded) >= o.size {
		return "", Info{}, &PreconditionError{
			Op:     fmt.Sprintf("write option %q", o.Name),
			Reason: fmt.Sprintf("value of %d bytes does not fit in %d-byte field", len(encoded), o.size),
		}
	}
	payload := make([]byte, o.size)
	copy(payload, encoded)
	retPayload, info, err := o.device.controlOption(o, actionSetValue, payload)
	if err != nil {
		return "", Info{}, err
	}
	got, err := decodeNULString(retPayload)
	if err != nil {
		return "", Info{}, err
	}
	if got != newValue && !info.Inexact {
		return "", Info{}, &ProtocolError{Op: fmt.Sprintf("write option %q", o.Name), Err: errStringWriteDiverged}
	}
	return got, info, nil
}

var errStringWriteDiverged = &wireFormatError{"returned value differs from requested value without INEXACT"}

// SetAuto puts the option into automatic mode (SET_AUTO).
func (o *Option) SetAuto() (Info, error) {
	if err := o.precondition("write", o.IsAutomatic(), "option has no automatic mode"); err != nil {
		return Info{}, err
	}
	if err := o.precondition("write", o.IsSettable(), "option is not soft-selectable"); err != nil {
		return Info{}, err
	}
	_, info, err := o.device.controlOption(o, actionSetAuto, nil)
	return info, err
}

// PressButton activates a BUTTON option.
func (o *Option) PressButton() (Info, error) {
	if err := o.precondition("write", o.Kind == KindButton, "option is not a button"); err != nil {
		return Info{}, err
	}
	if err := o.precondition("write", o.IsSettable(), "option is not soft-selectable"); err != nil {
		return Info{}, err
	}
	_, info, err := o.device.controlOption(o, actionSetValue, nil)
	return info, err
}

func decodeWords(b []byte) []int32 {
	out := make([]int32, len(b)/wordSize)
	for i := range out {
		var w [wordSize]byte
		copy(w[:], b[i*wordSize:(i+1)*wordSize])
		out[i] = decodeWord(w)
	}
	return out
}

func encodeWords(vs []int32) []byte {
	out := make([]byte, len(vs)*wordSize)
	for i, v := range vs {
		w := encodeWord(v)
		copy(out[i*wordSize:], w[:])
	}
	return out
}

func decodeNULString(b []byte) (string, error) {
	n := len(b)
	for i, c := range b {
		if c == 0 {
			n = i
			break
		}
	}
	decoded, err := iso88591Decoder.Bytes(b[:n])
	if err != nil {
		return "", &ProtocolError{Op: "decode option string value", Err: err}
	}
	return string(decoded), nil
}
