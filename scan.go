// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"fmt"

	"github.com/lolhens/gosane/internal/netutil"
)

// AcquireImage executes one full acquisition: repeated passes of
// START, a transient data-socket open, GET_PARAMETERS, and a frame
// read, until a frame reports LastFrame, assembling the results into
// an Image. listener may be nil.
//
// Like every Device/Session operation save Abort, AcquireImage holds
// the session for its entire duration; a scan in progress is stopped
// from another goroutine by calling Session.Abort. Device.Cancel waits
// for the session and so runs only after AcquireImage has returned.
func (d *Device) AcquireImage(listener ScanListener) (*Image, error) {
	if listener == nil {
		listener = NopScanListener{}
	}
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !d.isOpen {
		return nil, &PreconditionError{Op: fmt.Sprintf("acquire image on %q", d.desc.Name), Reason: "device is not open"}
	}

	listener.ScanningStarted(d)
	defer listener.ScanningFinished(d)

	var frames []*Frame
	for frameIndex := 0; ; frameIndex++ {
		frame, lastFrame, err := d.acquireFrame(listener, frameIndex)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
		if lastFrame {
			break
		}
	}
	return assembleImage(frames)
}

// acquireFrame runs one pass of the scan loop: START, open the data
// socket, GET_PARAMETERS, and read one Frame from it. The data socket
// is closed on every exit path.
func (d *Device) acquireFrame(listener ScanListener, frameIndex int) (*Frame, bool, error) {
	s := d.session

	port, bigEndian, err := d.start()
	if err != nil {
		return nil, false, err
	}

	target := fmt.Sprintf("%s:%d", s.address, port)
	data, err := netutil.DialTimeout(target, 0)
	if err != nil {
		return nil, false, &IoError{Op: "connect to data socket " + target, Err: err}
	}
	defer data.Close()

	params, err := d.getParameters()
	if err != nil {
		return nil, false, err
	}

	likelyTotalFrames := 1
	switch params.FrameType {
	case FrameRed, FrameGreen, FrameBlue:
		likelyTotalFrames = 3
	}
	listener.FrameAcquisitionStarted(d, params, frameIndex, likelyTotalFrames)

	observe := func(total, expected int, expectedKnown bool) {
		listener.RecordRead(d, total, expected, expectedKnown)
	}
	frame, err := readFrame(data, params, bigEndian, observe)
	if err != nil {
		return nil, false, err
	}
	return frame, params.LastFrame, nil
}

// start sends START(handle) and completes any interleaved AUTHORIZE
// round, returning the data-socket port and whether its byte order is
// big-endian.
func (d *Device) start() (int32, bool, error) {
	s := d.session
	if err := s.beginRPC(opStart); err != nil {
		return 0, false, err
	}
	if err := s.w.writeWord(d.handle); err != nil {
		return 0, false, err
	}
	if err := s.w.flush(); err != nil {
		return 0, false, err
	}

	type startReply struct {
		status    Status
		port      int32
		bigEndian bool
	}
	reply, err := withAuth(s, func() (startReply, string, error) {
		status, err := s.r.readStatus()
		if err != nil {
			return startReply{}, "", err
		}
		port, err := s.r.readWord()
		if err != nil {
			return startReply{}, "", err
		}
		byteOrder, err := s.r.readWord()
		if err != nil {
			return startReply{}, "", err
		}
		resource, err := s.r.readString()
		if err != nil {
			return startReply{}, "", err
		}
		return startReply{status, port, byteOrder == byteOrderBigEndian}, resource, nil
	})
	if err != nil {
		return 0, false, err
	}
	if reply.status != StatusGood {
		return 0, false, &StatusError{Op: "START", Status: reply.status}
	}
	return reply.port, reply.bigEndian, nil
}

// getParameters sends GET_PARAMETERS(handle) and reads its reply. It is
// not subject to interleaved authorization: the daemon has already
// authorized this handle by the time a scan is in progress.
func (d *Device) getParameters() (Parameters, error) {
	s := d.session
	if err := s.beginRPC(opGetParameters); err != nil {
		return Parameters{}, err
	}
	if err := s.w.writeWord(d.handle); err != nil {
		return Parameters{}, err
	}
	if err := s.w.flush(); err != nil {
		return Parameters{}, err
	}
	status, err := s.r.readStatus()
	if err != nil {
		return Parameters{}, err
	}
	if status != StatusGood {
		return Parameters{}, &StatusError{Op: "GET_PARAMETERS", Status: status}
	}
	return s.r.readParameters()
}
