// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"sync"
	"time"
)

// ScanListener receives progress notifications during Device.AcquireImage.
// All callbacks execute synchronously on the scanning goroutine and must
// return promptly; a slow listener stalls the scan.
type ScanListener interface {
	// ScanningStarted fires once, before the first START RPC.
	ScanningStarted(device *Device)
	// FrameAcquisitionStarted fires before each pass of the scan loop.
	// likelyTotalFrames is 3 when params.FrameType is Red, Green, or
	// Blue, and 1 otherwise; it is a hint, not a guarantee.
	FrameAcquisitionStarted(device *Device, params Parameters, currentFrameIndex, likelyTotalFrames int)
	// RecordRead fires after every record read from the data socket.
	// expectedImageBytes is meaningless when expectedKnown is false
	// (lineCount was unknown going into the frame).
	RecordRead(device *Device, totalBytesRead, expectedImageBytes int, expectedKnown bool)
	// ScanningFinished fires once, after the last frame's data socket
	// has been closed, whether or not the acquisition succeeded.
	ScanningFinished(device *Device)
}

// NopScanListener implements ScanListener with no-op callbacks, for
// embedding in a listener that only cares about a subset of events.
type NopScanListener struct{}

func (NopScanListener) ScanningStarted(*Device)                                    {}
func (NopScanListener) FrameAcquisitionStarted(*Device, Parameters, int, int)       {}
func (NopScanListener) RecordRead(*Device, int, int, bool)                          {}
func (NopScanListener) ScanningFinished(*Device)                                    {}

// RateLimitingListener wraps a ScanListener and drops RecordRead
// notifications for a given device that arrive within MinInterval of
// the last one that was let through. All other callbacks pass through
// unconditionally.
type RateLimitingListener struct {
	Underlying  ScanListener
	MinInterval time.Duration

	mu   sync.Mutex
	last map[*Device]time.Time
}

func NewRateLimitingListener(underlying ScanListener, minInterval time.Duration) *RateLimitingListener {
	return &RateLimitingListener{
		Underlying:  underlying,
		MinInterval: minInterval,
		last:        make(map[*Device]time.Time),
	}
}

func (l *RateLimitingListener) ScanningStarted(d *Device) {
	l.Underlying.ScanningStarted(d)
}

func (l *RateLimitingListener) FrameAcquisitionStarted(d *Device, params Parameters, currentFrameIndex, likelyTotalFrames int) {
	l.Underlying.FrameAcquisitionStarted(d, params, currentFrameIndex, likelyTotalFrames)
}

func (l *RateLimitingListener) RecordRead(d *Device, totalBytesRead, expectedImageBytes int, expectedKnown bool) {
	now := time.Now()
	l.mu.Lock()
	last, ok := l.last[d]
	if ok && now.Sub(last) < l.MinInterval {
		l.mu.Unlock()
		return
	}
	l.last[d] = now
	l.mu.Unlock()
	l.Underlying.RecordRead(d, totalBytesRead, expectedImageBytes, expectedKnown)
}

func (l *RateLimitingListener) ScanningFinished(d *Device) {
	l.mu.Lock()
	delete(l.last, d)
	l.mu.Unlock()
	l.Underlying.ScanningFinished(d)
}
