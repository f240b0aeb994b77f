// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

package edl

import "strings"

// Environment selects an Earthdata Login deployment.
type Environment string

const (
	// EnvironmentOPS is the production Earthdata Login deployment.
	EnvironmentOPS Environment = "ops"
	// EnvironmentUAT is the user acceptance testing deployment, shared by
	// SIT and UAT venues.
	EnvironmentUAT Environment = "uat"
)

// BaseURL returns the root URL of the environment's Earthdata Login API.
func (e Environment) BaseURL() string {
	if e == EnvironmentUAT {
		return "https://uat.urs.earthdata.nasa.gov"
	}
	return "https://urs.earthdata.nasa.gov"
}

// EnvironmentForPrefix maps a deployment prefix to the Earthdata Login
// environment its tokens come from. SIT and UAT venues share the UAT
// deployment; everything else is OPS.
func EnvironmentForPrefix(prefix string) Environment {
	if strings.HasSuffix(prefix, "-sit") || strings.HasSuffix(prefix, "-uat") {
		return EnvironmentUAT
	}
	return EnvironmentOPS
}
