// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"image"
	"image/color"
)

var (
	opaque8  = uint8(0xff)
	opaque16 = uint16(0xffff)
)

// Image is a scanned image assembled from one or more Frames: a single
// Gray or Rgb frame stands alone, while Red/Green/Blue arrive as three
// separate frames that must be composed in that order.
type Image struct {
	fs [3]*Frame // non-interleaved channels are held in R,G,B order
}

// Bounds returns the domain for which At returns valid pixels.
func (m *Image) Bounds() image.Rectangle {
	f := m.fs[0]
	return image.Rect(0, 0, f.Width, f.Height)
}

// ColorModel returns the Image's color model.
func (m *Image) ColorModel() color.Model {
	f := m.fs[0]
	switch {
	case f.Depth != 16 && f.FrameType == FrameGray:
		return color.GrayModel
	case f.Depth == 16 && f.FrameType == FrameGray:
		return color.Gray16Model
	case f.Depth != 16:
		return color.RGBAModel
	default:
		return color.RGBA64Model
	}
}

// At returns the color of the pixel at (x, y).
func (m *Image) At(x, y int) color.Color {
	if x < 0 || x >= m.fs[0].Width || y < 0 || y >= m.fs[0].Height {
		return color.RGBA{}
	}
	if m.fs[0].FrameType == FrameGray {
		switch m.fs[0].Depth {
		case 1:
			return color.Gray{uint8(0xFF * m.fs[0].At(x, y, 0))}
		case 8:
			return color.Gray{uint8(m.fs[0].At(x, y, 0))}
		case 16:
			return color.Gray16{m.fs[0].At(x, y, 0)}
		}
		return color.Gray{}
	}

	var r, g, b uint16
	if m.fs[0].FrameType == FrameRgb {
		r = m.fs[0].At(x, y, 0)
		g = m.fs[0].At(x, y, 1)
		b = m.fs[0].At(x, y, 2)
	} else {
		r = m.fs[0].At(x, y, 0)
		g = m.fs[1].At(x, y, 0)
		b = m.fs[2].At(x, y, 0)
	}
	switch m.fs[0].Depth {
	case 1:
		return color.RGBA{uint8(0xFF * r), uint8(0xFF * g), uint8(0xFF * b), opaque8}
	case 8:
		return color.RGBA{uint8(r), uint8(g), uint8(b), opaque8}
	case 16:
		return color.RGBA64{r, g, b, opaque16}
	}
	return color.RGBA{}
}

// assembleImage folds a completed sequence of frames, in the order the
// scan loop read them, into an Image. It enforces these
// invariants: no frame type may repeat, a Gray or Rgb frame may not
// share its slot with another Gray, Rgb, or Red frame, and a Red frame
// must be accompanied by both a Green and a Blue frame.
func assembleImage(frames []*Frame) (*Image, error) {
	if len(frames) == 0 {
		return nil, &ProtocolError{Op: "assemble image", Err: errNoFrames}
	}
	var img Image
	for _, f := range frames {
		switch f.FrameType {
		case FrameGray, FrameRgb, FrameRed:
			if img.fs[0] != nil {
				return nil, &ProtocolError{Op: "assemble image", Err: errDuplicateFrameType}
			}
			img.fs[0] = f
		case FrameGreen:
			if img.fs[1] != nil {
				return nil, &ProtocolError{Op: "assemble image", Err: errDuplicateFrameType}
			}
			img.fs[1] = f
		case FrameBlue:
			if img.fs[2] != nil {
				return nil, &ProtocolError{Op: "assemble image", Err: errDuplicateFrameType}
			}
			img.fs[2] = f
		default:
			return nil, &ProtocolError{Op: "assemble image", Err: errUnknownFrameType}
		}
	}
	if img.fs[0] == nil || img.fs[0].FrameType == FrameGreen || img.fs[0].FrameType == FrameBlue {
		return nil, &ProtocolError{Op: "assemble image", Err: errIncompleteFrameSet}
	}
	if img.fs[0].FrameType == FrameRed && (img.fs[1] == nil || img.fs[2] == nil) {
		return nil, &ProtocolError{Op: "assemble image", Err: errIncompleteFrameSet}
	}
	return &img, nil
}

var (
	errNoFrames           = &wireFormatError{"no frames to assemble into an image"}
	errDuplicateFrameType = &wireFormatError{"frame type repeated within one image"}
	errUnknownFrameType   = &wireFormatError{"unrecognized frame type"}
	errIncompleteFrameSet = &wireFormatError{"red/green/blue triple is missing a channel"}
)
