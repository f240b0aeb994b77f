// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	h := newHandler(aws.Config{Region: "us-west-2"}, logger)
	require.NotNil(t, h.Rotator)
	require.NotNil(t, h.Notifier)
	require.NotNil(t, h.Logger)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expDebug bool
	}{
		{name: "default", logLevel: "", expDebug: false},
		{name: "debug", logLevel: "debug", expDebug: true},
		{name: "unparseable falls back to info", logLevel: "chatty", expDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(tt.logLevel)
			require.Equal(t, tt.expDebug, logger.Enabled(t.Context(), slog.LevelDebug))
		})
	}
}
