// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleFiltersBothSelects(t *testing.T) {
	assert.False(t, visible(map[Capability]bool{CapSoftSelect: true, CapHardSelect: true}))
}

func TestVisibleFiltersSoftWithoutDetect(t *testing.T) {
	assert.False(t, visible(map[Capability]bool{CapSoftSelect: true}))
}

func TestVisibleFiltersNoSelectBits(t *testing.T) {
	assert.False(t, visible(map[Capability]bool{CapAdvanced: true}))
}

func TestVisibleAllowsSoftSelectWithDetect(t *testing.T) {
	assert.True(t, visible(map[Capability]bool{CapSoftSelect: true, CapSoftDetect: true}))
}

func TestVisibleAllowsHardSelectAlone(t *testing.T) {
	assert.True(t, visible(map[Capability]bool{CapHardSelect: true}))
}

func TestValidConstraint(t *testing.T) {
	assert.True(t, validConstraint(KindString, ConstraintNone))
	assert.True(t, validConstraint(KindString, ConstraintStringList))
	assert.False(t, validConstraint(KindBool, ConstraintRange))
	assert.True(t, validConstraint(KindInt, ConstraintRange))
	assert.True(t, validConstraint(KindFixed, ConstraintWordList))
	assert.False(t, validConstraint(KindString, ConstraintRange))
}

func TestElementCountFor(t *testing.T) {
	assert.Equal(t, 3, elementCountFor(KindInt, 12))
	assert.Equal(t, 1, elementCountFor(KindBool, 4))
	assert.Equal(t, 1, elementCountFor(KindString, 64))
	assert.Equal(t, 0, elementCountFor(KindButton, 0))
}

func TestGetBoolWrongKindFails(t *testing.T) {
	o := &Option{Name: "resolution", Kind: KindInt}
	_, err := o.GetBool()
	require.Error(t, err)
	var pe *PreconditionError
	assert.ErrorAs(t, err, &pe)
}

func TestSetIntNotSettableFails(t *testing.T) {
	o := &Option{Name: "resolution", Kind: KindInt, Capabilities: map[Capability]bool{CapSoftDetect: true}}
	_, err := o.SetInt(300)
	require.Error(t, err)
}

func TestSetFixedOutOfRangeFails(t *testing.T) {
	o := &Option{
		Name:         "brightness",
		Kind:         KindFixed,
		Capabilities: map[Capability]bool{CapSoftSelect: true, CapSoftDetect: true},
	}
	_, err := o.SetFixed(MaxFixed + 1000)
	require.Error(t, err)
}

func TestSetAutoRequiresAutomaticCapability(t *testing.T) {
	o := &Option{Name: "resolution", Kind: KindInt, Capabilities: map[Capability]bool{CapSoftSelect: true}}
	_, err := o.SetAuto()
	require.Error(t, err)
}

func TestPressButtonWrongKindFails(t *testing.T) {
	o := &Option{Name: "calibrate", Kind: KindInt, Capabilities: map[Capability]bool{CapSoftSelect: true}}
	_, err := o.PressButton()
	require.Error(t, err)
}

func TestDecodeEncodeWordsRoundTrip(t *testing.T) {
	vs := []int32{1, -2, 300}
	assert.Equal(t, vs, decodeWords(encodeWords(vs)))
}

func TestDecodeNULString(t *testing.T) {
	got, err := decodeNULString([]byte{'h', 'i', 0, 'x'})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}
