// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

// Group collects the options that followed a GROUP-kind descriptor in
// the order GET_OPTION_DESCRIPTORS returned them: "Created
// by the option engine when a GROUP-kind descriptor is read; subsequent
// non-group options belong to the most recent group."
type Group struct {
	Title   string
	Members []*Option
}
