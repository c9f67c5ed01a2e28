// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

// allCapabilities lists every defined Capability bit, in wire order.
var allCapabilities = []Capability{
	CapSoftSelect, CapHardSelect, CapSoftDetect, CapEmulated,
	CapAutomatic, CapInactive, CapAdvanced,
}

// decodeCapabilities builds the set of capability members whose bit is
// present in word, ignoring any unrecognized bits.
func decodeCapabilities(word int32) map[Capability]bool {
	set := make(map[Capability]bool, len(allCapabilities))
	for _, c := range allCapabilities {
		if Capability(word).Has(c) {
			set[c] = true
		}
	}
	return set
}

// encodeCapabilities ORs together the bits of every member present in set.
func encodeCapabilities(set map[Capability]bool) int32 {
	var w Capability
	for c, present := range set {
		if present {
			w |= c
		}
	}
	return int32(w)
}

var allWriteInfo = []writeInfo{infoInexact, infoReloadOptions, infoReloadParameters}

func decodeWriteInfo(word int32) map[writeInfo]bool {
	set := make(map[writeInfo]bool, len(allWriteInfo))
	for _, i := range allWriteInfo {
		if writeInfo(word).has(i) {
			set[i] = true
		}
	}
	return set
}

func encodeWriteInfo(set map[writeInfo]bool) int32 {
	var w writeInfo
	for i, present := range set {
		if present {
			w |= i
		}
	}
	return int32(w)
}
