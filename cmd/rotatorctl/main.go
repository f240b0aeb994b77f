// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Command rotatorctl drives the rotation core from an operator's
// machine: force a rotation out of band, or check whether the stored
// token is due for one.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/podaac/edl-token-rotator/internal/edl"
	"github.com/podaac/edl-token-rotator/internal/rotators"
	"github.com/podaac/edl-token-rotator/internal/version"
)

type (
	cmd struct {
		Version struct{}  `cmd:"" help:"Show version."`
		Rotate  cmdRotate `cmd:"" help:"Run one token rotation against the configured AWS account."`
		Status  cmdStatus `cmd:"" help:"Show when the stored token is due for rotation."`
	}
	cmdRotate struct {
		Prefix string `required:"" help:"Deployment prefix, e.g. podaac-svc-uat."`
		Env    string `help:"EDL environment override (uat or ops). Derived from the prefix when empty." enum:",uat,ops" default:""`
	}
	cmdStatus struct {
		Prefix string        `required:"" help:"Deployment prefix, e.g. podaac-svc-uat."`
		Window time.Duration `default:"24h" help:"Pre-rotation window: report the token as due this long before it expires."`
	}
)

type (
	rotateFn func(c cmdRotate, stdout, stderr io.Writer) error
	statusFn func(c cmdStatus, stdout, stderr io.Writer) error
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Args[1:], rotate, status)
}

func doMain(stdout, stderr io.Writer, args []string, rf rotateFn, sf statusFn) {
	var c cmd
	parser, err := kong.New(&c,
		kong.Name("rotatorctl"),
		kong.Description("EDL Token Rotator CLI"),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		log.Fatalf("Error creating parser: %v", err)
	}
	ctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)
	switch ctx.Command() {
	case "version":
		_, _ = stdout.Write([]byte(fmt.Sprintf("EDL Token Rotator CLI: %s\n", version.Version)))
	case "rotate":
		if err := rf(c.Rotate, stdout, stderr); err != nil {
			log.Fatalf("Error rotating token: %v", err)
		}
	case "status":
		if err := sf(c.Status, stdout, stderr); err != nil {
			log.Fatalf("Error checking token status: %v", err)
		}
	default:
		panic("unreachable")
	}
}

func newRotator(ctx context.Context, stderr io.Writer) (*rotators.EDLTokenRotator, error) {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{}))
	cfg, err := rotators.DefaultAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return rotators.NewEDLTokenRotator(cfg, edl.NewClient(nil, logger), logger), nil
}

// rotate runs one rotation. Unlike the Lambda, failures surface on the
// operator's terminal rather than the notification topic.
func rotate(c cmdRotate, stdout, stderr io.Writer) error {
	ctx := context.Background()
	rotator, err := newRotator(ctx, stderr)
	if err != nil {
		return err
	}
	env := edl.EnvironmentForPrefix(c.Prefix)
	if c.Env != "" {
		env = edl.Environment(c.Env)
	}
	expiresAt, err := rotator.RotateWithEnvironment(ctx, c.Prefix, env)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Stored token %s, expires %s\n",
		rotators.TokenParameterName(c.Prefix), expiresAt.Format(time.RFC3339))
	return nil
}

func status(c cmdStatus, stdout, stderr io.Writer) error {
	ctx := context.Background()
	rotator, err := newRotator(ctx, stderr)
	if err != nil {
		return err
	}
	preRotationTime, err := rotator.GetPreRotationTime(ctx, c.Prefix, c.Window)
	if err != nil {
		return err
	}
	if preRotationTime.IsZero() {
		fmt.Fprintf(stdout, "No expiration recorded for %s, rotation is due\n",
			rotators.TokenParameterName(c.Prefix))
		return nil
	}
	if rotators.IsExpired(0, preRotationTime) {
		fmt.Fprintf(stdout, "Token %s is due for rotation (expires %s)\n",
			rotators.TokenParameterName(c.Prefix), preRotationTime.Add(c.Window).Format(time.RFC3339))
		return nil
	}
	fmt.Fprintf(stdout, "Token %s is current until %s\n",
		rotators.TokenParameterName(c.Prefix), preRotationTime.Add(c.Window).Format(time.RFC3339))
	return nil
}
