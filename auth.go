// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// md5SaltPrefix marks a resource name as requesting a salted password:
// "<resource>$MD5$<salt>".
const md5SaltPrefix = "$MD5$"

// splitResource separates a resource name into its backend name and, if
// present, its MD5 salt. ok is false if resource carries no salt suffix.
func splitResource(resource string) (backend, salt string, ok bool) {
	i := strings.Index(resource, md5SaltPrefix)
	if i < 0 {
		return resource, "", false
	}
	return resource[:i], resource[i+len(md5SaltPrefix):], true
}

// encodePassword renders the password string to send in response to an
// AUTHORIZE request for resource: plain if resource carries no salt,
// otherwise "$MD5$" followed by the lowercase hex digest of
// md5(salt || password) taken over ISO-8859-1 bytes.
func encodePassword(resource, password string) (string, error) {
	_, salt, salted := splitResource(resource)
	if !salted {
		return password, nil
	}
	saltBytes, err := iso88591Encoder.String(salt)
	if err != nil {
		return "", &ProtocolError{Op: "encode MD5 salt", Err: err}
	}
	passBytes, err := iso88591Encoder.String(password)
	if err != nil {
		return "", &ProtocolError{Op: "encode MD5 password", Err: err}
	}
	sum := md5.Sum(append([]byte(saltBytes), []byte(passBytes)...))
	return md5SaltPrefix + hex.EncodeToString(sum[:]), nil
}
