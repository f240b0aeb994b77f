// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Package handler wires the rotation core into a Lambda invocation:
// rotate on every event, notify the failure topic when anything goes
// wrong.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Event is the invocation payload. The scheduler supplies only the
// deployment prefix, which selects both the parameter names and the
// Earthdata Login environment.
type Event struct {
	Prefix string `json:"prefix"`
}

// Rotator renews the bearer token for a deployment prefix and returns
// the new token's expiration time.
type Rotator interface {
	Rotate(ctx context.Context, prefix string) (time.Time, error)
}

// Notifier reports a rotation failure.
type Notifier interface {
	NotifyFailure(ctx context.Context, cause error) error
}

// Handler runs one rotation per invocation.
type Handler struct {
	Rotator  Rotator
	Notifier Notifier
	Logger   *slog.Logger
}

// Handle processes one scheduled invocation. Any failure is published
// to the notification topic before being returned; a failed publish is
// logged but never masks the rotation error.
func (h *Handler) Handle(ctx context.Context, event Event) error {
	if event.Prefix == "" {
		err := fmt.Errorf("event carries no deployment prefix")
		h.notify(ctx, err)
		return err
	}

	expiresAt, err := h.Rotator.Rotate(ctx, event.Prefix)
	if err != nil {
		h.Logger.Error("token rotation failed", "prefix", event.Prefix, "error", err)
		h.notify(ctx, err)
		return err
	}

	h.Logger.Info("token rotation succeeded",
		"prefix", event.Prefix,
		"expires_at", expiresAt.Format(time.RFC3339))
	return nil
}

func (h *Handler) notify(ctx context.Context, cause error) {
	if err := h.Notifier.NotifyFailure(ctx, cause); err != nil {
		h.Logger.Error("failed to publish failure notification", "error", err)
	}
}
