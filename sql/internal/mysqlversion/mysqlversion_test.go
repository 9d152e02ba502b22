// Copyright 2024-present The Stencil Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package mysqlversion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupportsTextDefault(t *testing.T) {
	for v, want := range map[V]bool{
		"":                          false,
		"5.7.42":                    false,
		"8.0.12":                    false,
		"8.0.13":                    true,
		"8.0.33-0ubuntu0.22.04.2":   true,
		"10.1.48-MariaDB":           false,
		"10.7.1-MariaDB-1:10.7.1+1": true,
	} {
		require.Equal(t, want, v.SupportsTextDefault(), "version %q", v)
	}
}

func TestCompare(t *testing.T) {
	require.True(t, V("8.0.19").GTE("8.0.19"))
	require.True(t, V("8.0.2").LT("8.0.19"))
	require.False(t, V("10.2.1-MariaDB").LT("10.2.1"))
}
