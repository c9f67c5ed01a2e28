// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon starts a one-shot TCP listener on loopback and runs handle
// against the first accepted connection, standing in for saned in these
// tests.
func fakeDaemon(t *testing.T, handle func(r *wireReader, w *wireWriter)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := newWireReader(conn)
		w := newWireWriter(conn)
		handle(r, w)
	}()
	return ln.Addr().String()
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func handshakeThen(t *testing.T, r *wireReader, w *wireWriter, after func()) {
	t.Helper()
	op, err := r.readWord()
	require.NoError(t, err)
	assert.Equal(t, int32(opInit), op)
	_, err = r.readWord() // version
	require.NoError(t, err)
	_, err = r.readString() // username
	require.NoError(t, err)
	require.NoError(t, w.writeWord(versionWord(1, 0, 3)))
	require.NoError(t, w.writeWord(0)) // session id, unused by the client
	require.NoError(t, w.flush())
	after()
}

func TestOpenAndListDevices(t *testing.T) {
	addr := fakeDaemon(t, func(r *wireReader, w *wireWriter) {
		handshakeThen(t, r, w, func() {
			op, err := r.readWord()
			require.NoError(t, err)
			assert.Equal(t, int32(opGetDevices), op)

			require.NoError(t, w.writeWord(int32(StatusGood)))
			require.NoError(t, w.writeWord(2)) // one device + terminator
			require.NoError(t, w.writeWord(1)) // pointer present
			require.NoError(t, w.writeString("flatbed0"))
			require.NoError(t, w.writeString("Acme"))
			require.NoError(t, w.writeString("Scanner 3000"))
			require.NoError(t, w.writeString("flatbed scanner"))
			require.NoError(t, w.writeWord(0)) // terminating null pointer
			require.NoError(t, w.flush())
		})
	})
	host, port := splitHostPort(t, addr)

	s, err := Open(host, port, Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	defer s.Close()

	devices, err := s.ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, DeviceDescriptor{
		Name: "flatbed0", Vendor: "Acme", Model: "Scanner 3000", Type: "flatbed scanner",
	}, devices[0])
}

func TestOpenDeviceWithInterleavedAuthorization(t *testing.T) {
	const resource = "test$MD5$abc123"
	const password = "secret"
	addr := fakeDaemon(t, func(r *wireReader, w *wireWriter) {
		handshakeThen(t, r, w, func() {
			op, err := r.readWord()
			require.NoError(t, err)
			assert.Equal(t, int32(opOpen), op)
			name, err := r.readString()
			require.NoError(t, err)
			assert.Equal(t, "flatbed0", name)

			// First pass of the reply interrupts itself with a
			// non-empty resource, demanding authorization.
			require.NoError(t, w.writeWord(int32(StatusGood)))
			require.NoError(t, w.writeWord(42)) // handle
			require.NoError(t, w.writeString(resource))
			require.NoError(t, w.flush())

			authOp, err := r.readWord()
			require.NoError(t, err)
			assert.Equal(t, int32(opAuthorize), authOp)
			gotResource, err := r.readString()
			require.NoError(t, err)
			assert.Equal(t, resource, gotResource)
			_, err = r.readString() // username
			require.NoError(t, err)
			gotPassword, err := r.readString()
			require.NoError(t, err)
			wantPassword, err := encodePassword(resource, password)
			require.NoError(t, err)
			assert.Equal(t, wantPassword, gotPassword)
			require.NoError(t, w.writeWord(int32(StatusGood)))
			require.NoError(t, w.flush())

			// The reply is now re-parsed from the beginning, this
			// time with an empty resource field.
			require.NoError(t, w.writeWord(int32(StatusGood)))
			require.NoError(t, w.writeWord(42))
			require.NoError(t, w.writeString(""))
			require.NoError(t, w.flush())
		})
	})
	host, port := splitHostPort(t, addr)

	s, err := Open(host, port, Options{
		Timeout:          2 * time.Second,
		PasswordProvider: staticProvider{Credential{User: "alice", Password: password}},
	})
	require.NoError(t, err)
	defer s.Close()

	d := s.Device("flatbed0")
	require.NoError(t, d.Open())
	assert.Equal(t, int32(42), d.handle)
}

type staticProvider struct{ cred Credential }

func (p staticProvider) Lookup(string) (Credential, bool) { return p.cred, true }

func TestAuthorizeWithoutProviderFails(t *testing.T) {
	addr := fakeDaemon(t, func(r *wireReader, w *wireWriter) {
		handshakeThen(t, r, w, func() {
			_, _ = r.readWord() // opOpen
			_, _ = r.readString()
			require.NoError(t, w.writeWord(int32(StatusGood)))
			require.NoError(t, w.writeWord(42))
			require.NoError(t, w.writeString("test$MD5$abc123"))
			require.NoError(t, w.flush())
		})
	})
	host, port := splitHostPort(t, addr)

	s, err := Open(host, port, Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	defer s.Close()

	d := s.Device("flatbed0")
	err = d.Open()
	require.Error(t, err)
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}
