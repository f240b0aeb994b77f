// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Package rotators provides the credential rotation core: it exchanges
// stored long-lived Earthdata Login credentials for a fresh bearer
// token and overwrites the rotating token parameter in SSM Parameter
// Store.
package rotators

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

const (
	// UsernameParameterName holds the long-lived EDL username.
	UsernameParameterName = "generate-edl-username"
	// PasswordParameterName holds the long-lived EDL password.
	PasswordParameterName = "generate-edl-password"

	// ssmKeyAlias is the KMS key alias used to encrypt the stored token.
	ssmKeyAlias = "alias/aws/ssm"
)

// TokenParameterName returns the name of the rotating token parameter
// for a deployment prefix.
func TokenParameterName(prefix string) string {
	return prefix + "-edl-token"
}

// ExpirationParameterName returns the name of the parameter recording
// the stored token's expiration time.
func ExpirationParameterName(prefix string) string {
	return prefix + "-edl-token-expiration"
}

// DefaultAWSConfig returns an AWS config with adaptive retry mode
// enabled for better handling of transient API failures.
func DefaultAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithRetryMode(aws.RetryModeAdaptive),
	)
}

// SSMClient defines the SSM Parameter Store operations required by the
// rotator.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// KMSClient defines the KMS operations required by the rotator.
type KMSClient interface {
	DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
}

// NewSSMClient creates an SSMClient backed by the AWS SDK.
func NewSSMClient(cfg aws.Config) SSMClient {
	return ssm.NewFromConfig(cfg)
}

// NewKMSClient creates a KMSClient backed by the AWS SDK.
func NewKMSClient(cfg aws.Config) KMSClient {
	return kms.NewFromConfig(cfg)
}

// IsExpired checks if the expiration time minus the buffer is before
// the current time.
func IsExpired(buffer time.Duration, expirationTime time.Time) bool {
	return expirationTime.Add(-buffer).Before(time.Now())
}

// getDecryptedParameter reads a SecureString parameter's value.
func getDecryptedParameter(ctx context.Context, client SSMClient, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}
