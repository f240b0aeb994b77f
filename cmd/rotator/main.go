// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Command rotator is the Lambda entrypoint for the scheduled EDL token
// rotation.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/podaac/edl-token-rotator/internal/edl"
	"github.com/podaac/edl-token-rotator/internal/handler"
	"github.com/podaac/edl-token-rotator/internal/notify"
	"github.com/podaac/edl-token-rotator/internal/rotators"
)

func main() {
	logger := newLogger(os.Getenv("LOG_LEVEL"))
	cfg, err := rotators.DefaultAWSConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	lambda.Start(newHandler(cfg, logger).Handle)
}

func newHandler(cfg aws.Config, logger *slog.Logger) *handler.Handler {
	edlClient := edl.NewClient(nil, logger)
	return &handler.Handler{
		Rotator:  rotators.NewEDLTokenRotator(cfg, edlClient, logger),
		Notifier: notify.NewFailureNotifier(cfg, logger),
		Logger:   logger,
	}
}

// newLogger builds the process logger, defaulting to info when the
// LOG_LEVEL environment variable is empty or unparseable.
func newLogger(logLevel string) *slog.Logger {
	var level slog.Level
	if logLevel != "" {
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			level = slog.LevelInfo
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
