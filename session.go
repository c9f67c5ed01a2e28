// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"fmt"
	"net"
	"os/user"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lolhens/gosane/internal/netutil"
)

// DeviceDescriptor identifies one scanning device as reported by
// GET_DEVICES. Identity is Name.
type DeviceDescriptor struct {
	Name, Vendor, Model, Type string
}

// Options configures a Session at Open time.
type Options struct {
	// Timeout bounds the initial TCP connect. A non-zero value that
	// rounds to 0ms is clamped to 1ms.
	Timeout time.Duration
	// Logger replaces the package default structured logger for the
	// messages Open logs (the clamped-timeout warning and the connect
	// notice). Messages logged by later operations use the package
	// default.
	Logger Logger
	// PasswordProvider supplies credentials for any AUTHORIZE
	// challenge the daemon raises. It may also be installed later via
	// SetPasswordProvider.
	PasswordProvider PasswordProvider
}

// Session owns one TCP control connection to a saned daemon for its
// entire life. A Session and its open Devices are not safe for
// concurrent use by multiple goroutines save for Abort, which is the
// one escape hatch for unblocking a goroutine parked in a blocking read.
type Session struct {
	mu sync.Mutex

	conn     net.Conn
	r        *wireReader
	w        *wireWriter
	username string
	logger   Logger
	id       string

	passwordProvider PasswordProvider
	openDevices      map[string]bool
	closed           bool

	address string
}

// Open connects to the saned daemon at address:port, performs the INIT
// handshake, and returns a ready Session. There are no retries: a
// connection refusal or timeout fails session creation outright.
func Open(address string, port int, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = defaultLogger
	}
	timeout := clampTimeout(logger, opts.Timeout)

	target := fmt.Sprintf("%s:%d", address, port)
	conn, err := netutil.DialTimeout(target, timeout)
	if err != nil {
		return nil, &IoError{Op: "connect to " + target, Err: err}
	}

	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	s := &Session{
		conn:             conn,
		r:                newWireReader(conn),
		w:                newWireWriter(conn),
		username:         username,
		logger:           logger,
		id:               uuid.NewString(),
		passwordProvider: opts.PasswordProvider,
		openDevices:      make(map[string]bool),
		address:          address,
	}

	if err := s.negotiateInit(); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Debug("session established", "session", s.id, "address", target, "user", username)
	return s, nil
}

// clampTimeout: a non-zero timeout that rounds to
// 0ms is clamped to 1ms, with a warning logged.
func clampTimeout(logger Logger, d time.Duration) time.Duration {
	if d != 0 && d.Round(time.Millisecond) == 0 {
		logger.Warn("connect timeout rounds to 0ms; clamping to 1ms", "requested", d)
		return time.Millisecond
	}
	return d
}

// beginRPC writes op's opcode and tags both the reader and writer with
// its name, so any I/O error encountered while reading the reply or
// writing the request names the RPC in progress.
func (s *Session) beginRPC(op opcode) error {
	if err := s.w.writeOpcode(op); err != nil {
		return err
	}
	s.r.op = op.String()
	return nil
}

// negotiateInit sends INIT with the requested protocol version and the
// current OS username, then discards the two-word reply.
func (s *Session) negotiateInit() error {
	if err := s.beginRPC(opInit); err != nil {
		return err
	}
	if err := s.w.writeWord(versionWord(protocolVersion.Major, protocolVersion.Minor, protocolVersion.Build)); err != nil {
		return err
	}
	if err := s.w.writeString(s.username); err != nil {
		return err
	}
	if err := s.w.flush(); err != nil {
		return err
	}
	if _, err := s.r.readWord(); err != nil {
		return err
	}
	if _, err := s.r.readWord(); err != nil {
		return err
	}
	return nil
}

// SetPasswordProvider installs or replaces the credential source used to
// answer AUTHORIZE challenges raised by any subsequent RPC.
func (s *Session) SetPasswordProvider(p PasswordProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordProvider = p
}

// ListDevices performs GET_DEVICES and returns every device saned
// reports. An empty server response is legal and yields an empty slice.
func (s *Session) ListDevices() ([]DeviceDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginRPC(opGetDevices); err != nil {
		return nil, err
	}
	if err := s.w.flush(); err != nil {
		return nil, err
	}
	status, err := s.r.readStatus()
	if err != nil {
		return nil, err
	}
	if status != StatusGood {
		return nil, &StatusError{Op: "GET_DEVICES", Status: status}
	}
	lenWord, err := s.r.readWord()
	if err != nil {
		return nil, err
	}
	if lenWord < 1 {
		return nil, &ProtocolError{Op: "GET_DEVICES", Err: errDeviceListLength}
	}
	count := int(lenWord) - 1

	devices := make([]DeviceDescriptor, 0, count)
	for i := 0; i < count; i++ {
		present, err := s.r.readPointer()
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, &ProtocolError{Op: "GET_DEVICES", Err: errNilDescriptor}
		}
		name, err := s.r.readString()
		if err != nil {
			return nil, err
		}
		vendor, err := s.r.readString()
		if err != nil {
			return nil, err
		}
		model, err := s.r.readString()
		if err != nil {
			return nil, err
		}
		typ, err := s.r.readString()
		if err != nil {
			return nil, err
		}
		devices = append(devices, DeviceDescriptor{Name: name, Vendor: vendor, Model: model, Type: typ})
	}
	// Always consume the list's terminating null-pointer word,
	// regardless of which branch produced the reply.
	if _, err := s.r.readWord(); err != nil {
		return nil, err
	}
	return devices, nil
}

var errDeviceListLength = &wireFormatError{"device list length word is zero"}

// Device returns a handle bound to the named device. The handle is not
// opened; call Open on it to establish a device session.
func (s *Session) Device(name string) *Device {
	return &Device{
		session: s,
		desc:    DeviceDescriptor{Name: name},
	}
}

// DeviceByDescriptor is like Device but preserves the vendor/model/type
// metadata ListDevices already returned, avoiding a second round trip
// just to populate them.
func (s *Session) DeviceByDescriptor(desc DeviceDescriptor) *Device {
	return &Device{session: s, desc: desc}
}

// Close performs a best-effort EXIT and then closes the control socket.
// The socket is guaranteed closed on any error path; Close never masks
// the original error behind a secondary close failure and is safe to
// call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.writeOpcode(opExit); err == nil {
		_ = s.w.flush()
	}
	if err := s.conn.Close(); err != nil {
		return &IoError{Op: "close session", Err: err}
	}
	return nil
}

// Abort forcibly closes the underlying socket, the one way to unblock a
// goroutine parked in a blocking read on this session from another
// goroutine ("or by closing the socket, which triggers an I/O
// error on the blocked reader"). It does not perform EXIT and is not a
// substitute for Close on a session that is not wedged.
func (s *Session) Abort() error {
	return s.conn.Close()
}

// authorize answers one AUTHORIZE challenge for resource. If no password
// provider is installed, or it cannot satisfy resource, the session
// fails the authorization without sending any credentials.
func (s *Session) authorize(resource string) error {
	if s.passwordProvider == nil {
		return &AuthError{Resource: resource, Reason: "no password provider installed"}
	}
	cred, ok := s.passwordProvider.Lookup(resource)
	if !ok {
		return &AuthError{Resource: resource, Reason: "no credential for this resource"}
	}
	encodedPassword, err := encodePassword(resource, cred.Password)
	if err != nil {
		return err
	}
	if err := s.beginRPC(opAuthorize); err != nil {
		return err
	}
	if err := s.w.writeString(resource); err != nil {
		return err
	}
	if err := s.w.writeString(cred.User); err != nil {
		return err
	}
	if err := s.w.writeString(encodedPassword); err != nil {
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
		return &StatusError{Op: "AUTHORIZE", Status: status}
	}
	return nil
}

// withAuth reads an RPC reply that may interleave an AUTHORIZE round:
// read is called repeatedly, each time decoding a fresh copy of the
// reply record, until it reports an empty resource field (
// "the reply stream is then re-parsed from the beginning of the reply
// record ... as if fresh").
func withAuth[T any](s *Session, read func() (T, string, error)) (T, error) {
	for {
		val, resource, err := read()
		if err != nil {
			var zero T
			return zero, err
		}
		if resource == "" {
			return val, nil
		}
		if err := s.authorize(resource); err != nil {
			var zero T
			return zero, err
		}
	}
}
