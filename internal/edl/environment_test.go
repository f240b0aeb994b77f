// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

package edl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvironmentForPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		exp    Environment
	}{
		{prefix: "podaac-svc-sit", exp: EnvironmentUAT},
		{prefix: "podaac-svc-uat", exp: EnvironmentUAT},
		{prefix: "podaac-svc-ops", exp: EnvironmentOPS},
		{prefix: "podaac-svc", exp: EnvironmentOPS},
		{prefix: "", exp: EnvironmentOPS},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			require.Equal(t, tt.exp, EnvironmentForPrefix(tt.prefix))
		})
	}
}

func TestEnvironmentBaseURL(t *testing.T) {
	require.Equal(t, "https://urs.earthdata.nasa.gov", EnvironmentOPS.BaseURL())
	require.Equal(t, "https://uat.urs.earthdata.nasa.gov", EnvironmentUAT.BaseURL())
}
