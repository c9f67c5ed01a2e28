// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesRoundTrip(t *testing.T) {
	set := map[Capability]bool{
		CapSoftSelect: true,
		CapSoftDetect: true,
		CapAdvanced:   true,
	}
	word := encodeCapabilities(set)
	got := decodeCapabilities(word)
	assert.Equal(t, set, got)
}

func TestDecodeCapabilitiesIgnoresUnknownBits(t *testing.T) {
	word := int32(1 << 30)
	got := decodeCapabilities(word)
	assert.Empty(t, got)
}

func TestWriteInfoRoundTrip(t *testing.T) {
	set := map[writeInfo]bool{
		infoInexact:       true,
		infoReloadOptions: true,
	}
	word := encodeWriteInfo(set)
	got := decodeWriteInfo(word)
	assert.Equal(t, set, got)
}

func TestWriteInfoEmpty(t *testing.T) {
	assert.Equal(t, int32(0), encodeWriteInfo(nil))
	assert.Empty(t, decodeWriteInfo(0))
}
