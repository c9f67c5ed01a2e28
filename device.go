// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"fmt"
	"io"
)

// Device is a handle to one scanning device within a Session. A device
// may be open at most once within its session; while open it owns its
// wire handle and its option descriptor cache.
type Device struct {
	session *Session
	desc    DeviceDescriptor

	handle int32
	isOpen bool

	options []*Option
	byName  map[string]*Option
	groups  []*Group
}

// Descriptor returns the device's vendor/model/type metadata, populated
// if the Device came from ListDevices/DeviceByDescriptor, or bearing
// only Name otherwise.
func (d *Device) Descriptor() DeviceDescriptor { return d.desc }

// Open performs the OPEN RPC, including any interleaved AUTHORIZE
// round, and binds this handle to the wire device handle the daemon
// returns.
func (d *Device) Open() error {
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openDevices[d.desc.Name] {
		return &PreconditionError{Op: fmt.Sprintf("open device %q", d.desc.Name), Reason: "device is already open in this session"}
	}

	if err := s.beginRPC(opOpen); err != nil {
		return err
	}
	if err := s.w.writeString(d.desc.Name); err != nil {
		return err
	}
	if err := s.w.flush(); err != nil {
		return err
	}

	type openReply struct {
		status Status
		handle int32
	}
	reply, err := withAuth(s, func() (openReply, string, error) {
		status, err := s.r.readStatus()
		if err != nil {
			return openReply{}, "", err
		}
		handle, err := s.r.readWord()
		if err != nil {
			return openReply{}, "", err
		}
		resource, err := s.r.readString()
		if err != nil {
			return openReply{}, "", err
		}
		return openReply{status, handle}, resource, nil
	})
	if err != nil {
		return err
	}
	if reply.status != StatusGood {
		return &StatusError{Op: "OPEN", Status: reply.status}
	}
	d.handle = reply.handle
	d.isOpen = true
	s.openDevices[d.desc.Name] = true
	return nil
}

// Close sends CLOSE and releases the device's entry in its session.
// Calling Close on a device that is not open is a precondition error,
// including a second call to Close.
func (d *Device) Close() error {
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !d.isOpen {
		return &PreconditionError{Op: fmt.Sprintf("close device %q", d.desc.Name), Reason: "device is not open"}
	}

	if err := s.beginRPC(opClose); err != nil {
		return err
	}
	if err := s.w.writeWord(d.handle); err != nil {
		return err
	}
	if err := s.w.flush(); err != nil {
		return err
	}
	status, err := s.r.readStatus()

	// The device is considered closed regardless of outcome: a second
	// Close call must still see "not open", and a reader blocked
	// mid-reply should not be retried against a handle the daemon may
	// already have discarded.
	d.isOpen = false
	delete(s.openDevices, d.desc.Name)
	d.options = nil
	d.byName = nil
	d.groups = nil

	if err != nil {
		return err
	}
	if status != StatusGood {
		return &StatusError{Op: "CLOSE", Status: status}
	}
	return nil
}

// Cancel sends CANCEL for the device's current handle. Sent between
// scans it is a no-op from the caller's perspective.
func (d *Device) Cancel() error {
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !d.isOpen {
		return &PreconditionError{Op: fmt.Sprintf("cancel device %q", d.desc.Name), Reason: "device is not open"}
	}
	if err := s.beginRPC(opCancel); err != nil {
		return err
	}
	if err := s.w.writeWord(d.handle); err != nil {
		return err
	}
	if err := s.w.flush(); err != nil {
		return err
	}
	status, err := s.r.readStatus()
	if err != nil {
		return err
	}
	if status != StatusGood {
		return &StatusError{Op: "CANCEL", Status: status}
	}
	return nil
}

// invalidateOptions drops the cached descriptor list; the next
// ListOptions call re-fetches it in full.
func (d *Device) invalidateOptions() {
	d.options = nil
	d.byName = nil
	d.groups = nil
}

// ListOptions performs GET_OPTION_DESCRIPTORS, honoring the cache: if a
// valid descriptor list is already held, it is returned without a round
// trip. The cache is invalidated by a write that returns RELOAD_OPTIONS.
func (d *Device) ListOptions() ([]*Option, error) {
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return d.listOptionsLocked()
}

func (d *Device) listOptionsLocked() ([]*Option, error) {
	s := d.session
	if !d.isOpen {
		return nil, &PreconditionError{Op: fmt.Sprintf("list options on %q", d.desc.Name), Reason: "device is not open"}
	}
	if d.options != nil {
		return d.options, nil
	}

	if err := s.beginRPC(opGetOptionDescriptors); err != nil {
		return nil, err
	}
	if err := s.w.writeWord(d.handle); err != nil {
		return nil, err
	}
	if err := s.w.flush(); err != nil {
		return nil, err
	}
	countWord, err := s.r.readWord()
	if err != nil {
		return nil, err
	}
	if countWord < 1 {
		return nil, &ProtocolError{Op: "GET_OPTION_DESCRIPTORS", Err: errOptionCount}
	}
	n := int(countWord) - 1

	var options []*Option
	byName := make(map[string]*Option)
	var groups []*Group
	var curGroup *Group
	for i := 0; i < n; i++ {
		index := int32(i + 1)
		opt, err := s.r.readOptionDescriptor()
		if err != nil {
			return nil, err
		}
		if opt.Kind == kindGroup {
			g := &Group{Title: opt.Title}
			groups = append(groups, g)
			curGroup = g
			continue
		}
		if opt.Name == "" {
			defaultLogger.Debug("omitting option with empty name", "device", d.desc.Name, "index", index)
			continue
		}
		if !visible(opt.Capabilities) {
			continue
		}
		opt.device = d
		opt.index = index
		if curGroup != nil {
			opt.Group = curGroup.Title
			curGroup.Members = append(curGroup.Members, opt)
		}
		options = append(options, opt)
		byName[opt.Name] = opt
	}
	d.options = options
	d.byName = byName
	d.groups = groups
	return options, nil
}

var errOptionCount = &wireFormatError{"option descriptor count word is zero"}

// OptionGroups returns the option groups in the order their GROUP
// descriptors arrived, fetching the descriptor list first if needed.
func (d *Device) OptionGroups() ([]*Group, error) {
	if _, err := d.ListOptions(); err != nil {
		return nil, err
	}
	return d.groups, nil
}

// Option returns the named option, fetching the descriptor list first if
// needed.
func (d *Device) Option(name string) (*Option, error) {
	if _, err := d.ListOptions(); err != nil {
		return nil, err
	}
	d.session.mu.Lock()
	o, ok := d.byName[name]
	d.session.mu.Unlock()
	if !ok {
		return nil, &PreconditionError{Op: fmt.Sprintf("option %q on %q", name, d.desc.Name), Reason: "no such option"}
	}
	return o, nil
}

// controlOption issues one CONTROL_OPTION RPC, honoring any interleaved
// AUTHORIZE round, and applies the returned info bits:
// RELOAD_OPTIONS invalidates the descriptor cache; RELOAD_PARAMETERS
// additionally triggers an immediate re-fetch.
func (d *Device) controlOption(o *Option, action int32, payload []byte) ([]byte, Info, error) {
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if !d.isOpen {
		return nil, Info{}, &PreconditionError{Op: fmt.Sprintf("control option %q", o.Name), Reason: "device is not open"}
	}

	if err := s.beginRPC(opControlOption); err != nil {
		return nil, Info{}, err
	}
	if err := s.w.writeWord(d.handle); err != nil {
		return nil, Info{}, err
	}
	if err := s.w.writeWord(o.index); err != nil {
		return nil, Info{}, err
	}
	if err := s.w.writeWord(action); err != nil {
		return nil, Info{}, err
	}
	if err := s.w.writeWord(int32(o.Kind)); err != nil {
		return nil, Info{}, err
	}
	if err := s.w.writeWord(int32(o.size)); err != nil {
		return nil, Info{}, err
	}
	if err := s.w.writeWord(int32(o.Length)); err != nil {
		return nil, Info{}, err
	}
	if action == actionSetValue && len(payload) > 0 {
		if _, err := s.w.w.Write(payload); err != nil {
			return nil, Info{}, &IoError{Op: "CONTROL_OPTION: write payload", Err: err}
		}
	}
	if err := s.w.flush(); err != nil {
		return nil, Info{}, err
	}

	type controlReply struct {
		status  Status
		info    Info
		kind    ValueKind
		size    int32
		payload []byte
	}
	reply, err := withAuth(s, func() (controlReply, string, error) {
		status, err := s.r.readStatus()
		if err != nil {
			return controlReply{}, "", err
		}
		infoWord, err := s.r.readWord()
		if err != nil {
			return controlReply{}, "", err
		}
		kindWord, err := s.r.readWord()
		if err != nil {
			return controlReply{}, "", err
		}
		sizeWord, err := s.r.readWord()
		if err != nil {
			return controlReply{}, "", err
		}
		present, err := s.r.readPointer()
		if err != nil {
			return controlReply{}, "", err
		}
		var value []byte
		if present {
			value = make([]byte, sizeWord)
			if _, err := io.ReadFull(s.r.r, value); err != nil {
				return controlReply{}, "", &IoError{Op: "CONTROL_OPTION: read value", Err: err}
			}
		}
		resource, err := s.r.readString()
		if err != nil {
			return controlReply{}, "", err
		}
		bits := decodeWriteInfo(infoWord)
		info := Info{
			Inexact:      bits[infoInexact],
			ReloadOpts:   bits[infoReloadOptions],
			ReloadParams: bits[infoReloadParameters],
		}
		return controlReply{status, info, ValueKind(kindWord), sizeWord, value}, resource, nil
	})
	if err != nil {
		return nil, Info{}, err
	}
	if reply.status != StatusGood {
		return nil, Info{}, &StatusError{Op: "CONTROL_OPTION", Status: reply.status}
	}

	if reply.info.ReloadOpts {
		d.invalidateOptions()
		if reply.info.ReloadParams {
			if _, err := d.listOptionsLocked(); err != nil {
				return nil, Info{}, err
			}
		}
	}
	return reply.payload, reply.info, nil
}
