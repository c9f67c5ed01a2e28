// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitResourcePlain(t *testing.T) {
	backend, salt, ok := splitResource("test")
	assert.Equal(t, "test", backend)
	assert.Equal(t, "", salt)
	assert.False(t, ok)
}

func TestSplitResourceSalted(t *testing.T) {
	backend, salt, ok := splitResource("test$MD5$abc123")
	assert.True(t, ok)
	assert.Equal(t, "test", backend)
	assert.Equal(t, "abc123", salt)
}

func TestEncodePasswordPlain(t *testing.T) {
	got, err := encodePassword("test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

// TestEncodePasswordSalted matches the worked scenario: resource
// "test$MD5$abc123" with password "secret" must produce
// "$MD5$" + md5("abc123secret").
func TestEncodePasswordSalted(t *testing.T) {
	got, err := encodePassword("test$MD5$abc123", "secret")
	require.NoError(t, err)
	assert.Equal(t, "$MD5$38d4588fdbc729ba5f07c49b42d195a0", got)
}
