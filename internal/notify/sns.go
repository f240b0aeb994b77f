// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Package notify publishes rotation failures to the batch-job-failure
// SNS topic.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const (
	// topicFragment identifies the failure topic among the account's SNS
	// topics.
	topicFragment = "batch-job-failure"

	subject = "EDL Token Rotator Failure"
)

// SNSClient defines the SNS operations required by the notifier.
type SNSClient interface {
	ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// FailureNotifier publishes rotation failures to the account's
// batch-job-failure topic. The topic is discovered by ARN substring so
// deployments don't have to wire the full ARN through configuration.
type FailureNotifier struct {
	client SNSClient
	logger *slog.Logger
}

// NewFailureNotifier creates a notifier backed by the given AWS config.
func NewFailureNotifier(cfg aws.Config, logger *slog.Logger) *FailureNotifier {
	return &FailureNotifier{client: sns.NewFromConfig(cfg), logger: logger}
}

// NotifyFailure publishes a message describing the rotation failure.
func (n *FailureNotifier) NotifyFailure(ctx context.Context, cause error) error {
	topicARN, err := n.topicARN(ctx)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("The EDL token rotator has encountered an error.\nError description: %v\n", cause)
	if logGroup := os.Getenv("AWS_LAMBDA_LOG_GROUP_NAME"); logGroup != "" {
		message += fmt.Sprintf("Log file: %s/%s\n", logGroup, os.Getenv("AWS_LAMBDA_LOG_STREAM_NAME"))
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS topic %s: %w", topicARN, err)
	}
	n.logger.Info("published failure notification", "topic", topicARN)
	return nil
}

// topicARN finds the failure topic's ARN, paging through the account's
// topics until one matches.
func (n *FailureNotifier) topicARN(ctx context.Context) (string, error) {
	input := &sns.ListTopicsInput{}
	for {
		out, err := n.client.ListTopics(ctx, input)
		if err != nil {
			return "", fmt.Errorf("failed to list SNS topics: %w", err)
		}
		for _, topic := range out.Topics {
			arn := aws.ToString(topic.TopicArn)
			if strings.Contains(arn, topicFragment) {
				return arn, nil
			}
		}
		if out.NextToken == nil {
			return "", fmt.Errorf("no SNS topic matching %q found", topicFragment)
		}
		input.NextToken = out.NextToken
	}
}
