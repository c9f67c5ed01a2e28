// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingListener struct {
	started  int
	records  int
	finished int
}

func (l *recordingListener) ScanningStarted(*Device) { l.started++ }
func (l *recordingListener) FrameAcquisitionStarted(*Device, Parameters, int, int) {
}
func (l *recordingListener) RecordRead(*Device, int, int, bool) { l.records++ }
func (l *recordingListener) ScanningFinished(*Device)           { l.finished++ }

func TestRateLimitingListenerDropsWithinInterval(t *testing.T) {
	under := &recordingListener{}
	rl := NewRateLimitingListener(under, time.Hour)
	d := &Device{}

	rl.RecordRead(d, 10, 100, true)
	rl.RecordRead(d, 20, 100, true)
	rl.RecordRead(d, 30, 100, true)

	assert.Equal(t, 1, under.records)
}

func TestRateLimitingListenerPassesAfterInterval(t *testing.T) {
	under := &recordingListener{}
	rl := NewRateLimitingListener(under, 0)
	d := &Device{}

	rl.RecordRead(d, 10, 100, true)
	rl.RecordRead(d, 20, 100, true)

	assert.Equal(t, 2, under.records)
}

func TestRateLimitingListenerTracksPerDevice(t *testing.T) {
	under := &recordingListener{}
	rl := NewRateLimitingListener(under, time.Hour)
	a, b := &Device{}, &Device{}

	rl.RecordRead(a, 1, 1, true)
	rl.RecordRead(b, 1, 1, true)

	assert.Equal(t, 2, under.records)
}

func TestRateLimitingListenerForwardsOtherCallbacks(t *testing.T) {
	under := &recordingListener{}
	rl := NewRateLimitingListener(under, time.Hour)
	d := &Device{}

	rl.ScanningStarted(d)
	rl.FrameAcquisitionStarted(d, Parameters{}, 0, 1)
	rl.ScanningFinished(d)

	assert.Equal(t, 1, under.started)
	assert.Equal(t, 1, under.finished)
}

func TestRateLimitingListenerClearsStateOnFinish(t *testing.T) {
	under := &recordingListener{}
	rl := NewRateLimitingListener(under, time.Hour)
	d := &Device{}

	rl.RecordRead(d, 1, 1, true)
	rl.ScanningFinished(d)
	rl.RecordRead(d, 2, 1, true)

	assert.Equal(t, 2, under.records)
}
