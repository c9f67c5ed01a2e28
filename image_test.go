// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayFrame() *Frame {
	return &Frame{FrameType: FrameGray, Width: 1, Height: 1, Channels: 1, Depth: 8, bytesPerLine: 1, data: []byte{0x80}}
}

func rgbFrame() *Frame {
	return &Frame{FrameType: FrameRgb, Width: 1, Height: 1, Channels: 3, Depth: 8, bytesPerLine: 3, data: []byte{10, 20, 30}}
}

func channelFrame(ft FrameType, v byte) *Frame {
	return &Frame{FrameType: ft, Width: 1, Height: 1, Channels: 1, Depth: 8, bytesPerLine: 1, data: []byte{v}}
}

func TestAssembleImageSingletonGray(t *testing.T) {
	img, err := assembleImage([]*Frame{grayFrame()})
	require.NoError(t, err)
	assert.Equal(t, color.GrayModel, img.ColorModel())
}

func TestAssembleImageSingletonRgb(t *testing.T) {
	img, err := assembleImage([]*Frame{rgbFrame()})
	require.NoError(t, err)
	c := img.At(0, 0).(color.RGBA)
	assert.Equal(t, color.RGBA{10, 20, 30, 0xff}, c)
}

func TestAssembleImageReordersRGBTriple(t *testing.T) {
	// Arrive out of order: blue, red, green.
	frames := []*Frame{
		channelFrame(FrameBlue, 30),
		channelFrame(FrameRed, 10),
		channelFrame(FrameGreen, 20),
	}
	img, err := assembleImage(frames)
	require.NoError(t, err)
	c := img.At(0, 0).(color.RGBA)
	assert.Equal(t, color.RGBA{10, 20, 30, 0xff}, c)
}

func TestAssembleImageNoFrames(t *testing.T) {
	_, err := assembleImage(nil)
	require.Error(t, err)
}

func TestAssembleImageDuplicateFrameType(t *testing.T) {
	_, err := assembleImage([]*Frame{grayFrame(), grayFrame()})
	require.Error(t, err)
}

func TestAssembleImageIncompleteTriple(t *testing.T) {
	_, err := assembleImage([]*Frame{channelFrame(FrameRed, 1), channelFrame(FrameGreen, 2)})
	require.Error(t, err)
}

func TestAssembleImageGreenAloneIsIncomplete(t *testing.T) {
	_, err := assembleImage([]*Frame{channelFrame(FrameGreen, 1)})
	require.Error(t, err)
}
