// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

package rotators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/podaac/edl-token-rotator/internal/edl"
)

// defaultTokenLifetime is the documented lifetime of an EDL token, used
// when the issuer's response carries no parseable expiration date.
const defaultTokenLifetime = 60 * 24 * time.Hour

// TokenProvider obtains a fresh bearer token from Earthdata Login using
// the user's long-lived credentials.
type TokenProvider interface {
	ObtainToken(ctx context.Context, env edl.Environment, username, password string) (*edl.Token, error)
}

// EDLTokenRotator renews the bearer token for one deployment prefix. It
// reads the EDL credentials from SSM Parameter Store, obtains a new
// token, and overwrites the rotating token parameter as a SecureString.
type EDLTokenRotator struct {
	// ssmClient provides SSM Parameter Store operations.
	ssmClient SSMClient
	// kmsClient resolves the encryption key for the token parameter.
	kmsClient KMSClient
	// tokenProvider issues fresh bearer tokens.
	tokenProvider TokenProvider
	// logger is used for structured logging.
	logger *slog.Logger
}

// NewEDLTokenRotator creates a rotator backed by the given AWS config.
func NewEDLTokenRotator(cfg aws.Config, tokenProvider TokenProvider, logger *slog.Logger) *EDLTokenRotator {
	return &EDLTokenRotator{
		ssmClient:     NewSSMClient(cfg),
		kmsClient:     NewKMSClient(cfg),
		tokenProvider: tokenProvider,
		logger:        logger,
	}
}

// Rotate obtains a fresh bearer token for the prefix's environment and
// overwrites the stored token. It returns the new token's expiration
// time.
func (r *EDLTokenRotator) Rotate(ctx context.Context, prefix string) (time.Time, error) {
	return r.RotateWithEnvironment(ctx, prefix, edl.EnvironmentForPrefix(prefix))
}

// RotateWithEnvironment rotates against an explicit EDL environment
// instead of the prefix-derived one.
func (r *EDLTokenRotator) RotateWithEnvironment(ctx context.Context, prefix string, env edl.Environment) (time.Time, error) {
	r.logger.Info("rotating EDL bearer token", "prefix", prefix, "environment", string(env))

	username, password, err := r.credentials(ctx)
	if err != nil {
		return time.Time{}, err
	}

	token, err := r.tokenProvider.ObtainToken(ctx, env, username, password)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to obtain bearer token: %w", err)
	}

	expiresAt, err := token.ExpiresAt()
	if err != nil {
		expiresAt = time.Now().Add(defaultTokenLifetime)
		r.logger.Warn("token response carries no parseable expiration date, assuming default lifetime",
			"expires_at", expiresAt.Format(time.RFC3339))
	}

	if err := r.storeToken(ctx, prefix, token.AccessToken, expiresAt); err != nil {
		return time.Time{}, err
	}
	r.logger.Info("stored EDL bearer token",
		"parameter", TokenParameterName(prefix),
		"expires_at", expiresAt.Format(time.RFC3339))
	return expiresAt, nil
}

// GetPreRotationTime returns the stored token's expiration time minus
// the given window. A zero time is returned when no expiration has been
// recorded yet.
func (r *EDLTokenRotator) GetPreRotationTime(ctx context.Context, prefix string, window time.Duration) (time.Time, error) {
	out, err := r.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(ExpirationParameterName(prefix)),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get parameter %s: %w", ExpirationParameterName(prefix), err)
	}
	expirationTime, err := time.Parse(time.RFC3339, aws.ToString(out.Parameter.Value))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored expiration time: %w", err)
	}
	return expirationTime.Add(-window), nil
}

// credentials reads the long-lived EDL username and password from SSM
// Parameter Store.
func (r *EDLTokenRotator) credentials(ctx context.Context) (string, string, error) {
	username, err := getDecryptedParameter(ctx, r.ssmClient, UsernameParameterName)
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve EDL username: %w", err)
	}
	password, err := getDecryptedParameter(ctx, r.ssmClient, PasswordParameterName)
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve EDL password: %w", err)
	}
	return username, password, nil
}

// storeToken overwrites the rotating token parameter and records the
// expiration time alongside it. The token is written first so a failed
// expiration write can never leave a fresh expiry next to a stale
// token.
func (r *EDLTokenRotator) storeToken(ctx context.Context, prefix, token string, expiresAt time.Time) error {
	keyOut, err := r.kmsClient.DescribeKey(ctx, &kms.DescribeKeyInput{
		KeyId: aws.String(ssmKeyAlias),
	})
	if err != nil {
		return fmt.Errorf("failed to describe KMS key %s: %w", ssmKeyAlias, err)
	}

	_, err = r.ssmClient.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(TokenParameterName(prefix)),
		Description: aws.String("Temporary EDL bearer token"),
		Value:       aws.String(token),
		Type:        types.ParameterTypeSecureString,
		KeyId:       keyOut.KeyMetadata.KeyId,
		Overwrite:   aws.Bool(true),
		Tier:        types.ParameterTierStandard,
	})
	if err != nil {
		return fmt.Errorf("failed to store bearer token: %w", err)
	}

	_, err = r.ssmClient.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(ExpirationParameterName(prefix)),
		Description: aws.String("Expiration time of the stored EDL bearer token"),
		Value:       aws.String(expiresAt.Format(time.RFC3339)),
		Type:        types.ParameterTypeString,
		Overwrite:   aws.Bool(true),
		Tier:        types.ParameterTierStandard,
	})
	if err != nil {
		return fmt.Errorf("failed to store token expiration time: %w", err)
	}
	return nil
}
