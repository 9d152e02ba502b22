// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package mysqlversion provides information about MySQL versions.
package mysqlversion

import (
	"strings"

	"golang.org/x/mod/semver"
)

// V provides information about MySQL versions.
type V string

// SupportsTextDefault reports if the version supports the DEFAULT
// clause on TEXT/BLOB columns. An unknown (empty) version reports
// false, keeping the corrective rewrite on for the engines that
// need it.
func (v V) SupportsTextDefault() bool {
	if v == "" {
		return false
	}
	u := "8.0.13"
	if v.Maria() {
		u = "10.2.1"
	}
	return v.GTE(u)
}

// Maria reports if the MySQL version is MariaDB.
func (v V) Maria() bool {
	return strings.Index(string(v), "MariaDB") > 0
}

// Compare returns an integer comparing two versions according to
// semantic version precedence.
func (v V) Compare(w string) int {
	u := string(v)
	switch idx := strings.Index(u, "-"); {
	case v.Maria():
		u = u[:strings.Index(u, "MariaDB")-1]
	case idx > 0:
		// Remove server build information.
		u = u[:idx]
	}
	return semver.Compare("v"+u, "v"+w)
}

// GTE reports if the version is >= w.
func (v V) GTE(w string) bool { return v.Compare(w) >= 0 }

// LT reports if the version is < w.
func (v V) LT(w string) bool { return v.Compare(w) == -1 }
