// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSNSClient struct {
	mock.Mock
}

func (m *mockSNSClient) ListTopics(ctx context.Context, params *sns.ListTopicsInput, _ ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.ListTopicsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestNotifier(client SNSClient) *FailureNotifier {
	return &FailureNotifier{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})),
	}
}

func TestFailureNotifierNotifyFailure(t *testing.T) {
	failureARN := "arn:aws:sns:us-west-2:123456789012:svc-batch-job-failure"

	t.Run("publishes to matching topic", func(t *testing.T) {
		t.Setenv("AWS_LAMBDA_LOG_GROUP_NAME", "/aws/lambda/edl-token-rotator")
		t.Setenv("AWS_LAMBDA_LOG_STREAM_NAME", "2026/08/29/[$LATEST]abc")

		client := &mockSNSClient{}
		client.On("ListTopics", mock.Anything, &sns.ListTopicsInput{}).
			Return(&sns.ListTopicsOutput{Topics: []types.Topic{
				{TopicArn: aws.String("arn:aws:sns:us-west-2:123456789012:other-topic")},
				{TopicArn: aws.String(failureARN)},
			}}, nil)
		client.On("Publish", mock.Anything, mock.MatchedBy(func(input *sns.PublishInput) bool {
			return aws.ToString(input.TopicArn) == failureARN &&
				aws.ToString(input.Subject) == subject
		})).Return(&sns.PublishOutput{}, nil)

		notifier := newTestNotifier(client)
		require.NoError(t, notifier.NotifyFailure(t.Context(), fmt.Errorf("boom")))

		published := client.Calls[len(client.Calls)-1].Arguments.Get(1).(*sns.PublishInput)
		require.Contains(t, aws.ToString(published.Message), "boom")
		require.Contains(t, aws.ToString(published.Message), "/aws/lambda/edl-token-rotator/2026/08/29/[$LATEST]abc")
		client.AssertExpectations(t)
	})

	t.Run("pages through topics", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("ListTopics", mock.Anything, &sns.ListTopicsInput{}).
			Return(&sns.ListTopicsOutput{
				Topics:    []types.Topic{{TopicArn: aws.String("arn:aws:sns:us-west-2:123456789012:first")}},
				NextToken: aws.String("page-2"),
			}, nil)
		client.On("ListTopics", mock.Anything, &sns.ListTopicsInput{NextToken: aws.String("page-2")}).
			Return(&sns.ListTopicsOutput{Topics: []types.Topic{{TopicArn: aws.String(failureARN)}}}, nil)
		client.On("Publish", mock.Anything, mock.Anything).Return(&sns.PublishOutput{}, nil)

		notifier := newTestNotifier(client)
		require.NoError(t, notifier.NotifyFailure(t.Context(), fmt.Errorf("boom")))
		client.AssertExpectations(t)
	})

	t.Run("no matching topic", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("ListTopics", mock.Anything, mock.Anything).
			Return(&sns.ListTopicsOutput{Topics: []types.Topic{
				{TopicArn: aws.String("arn:aws:sns:us-west-2:123456789012:other-topic")},
			}}, nil)

		notifier := newTestNotifier(client)
		err := notifier.NotifyFailure(t.Context(), fmt.Errorf("boom"))
		require.ErrorContains(t, err, "no SNS topic matching")
	})

	t.Run("list failure", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("ListTopics", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("access denied"))

		notifier := newTestNotifier(client)
		err := notifier.NotifyFailure(t.Context(), fmt.Errorf("boom"))
		require.ErrorContains(t, err, "failed to list SNS topics")
	})

	t.Run("publish failure", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("ListTopics", mock.Anything, mock.Anything).
			Return(&sns.ListTopicsOutput{Topics: []types.Topic{{TopicArn: aws.String(failureARN)}}}, nil)
		client.On("Publish", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("access denied"))

		notifier := newTestNotifier(client)
		err := notifier.NotifyFailure(t.Context(), fmt.Errorf("boom"))
		require.ErrorContains(t, err, "failed to publish")
	})
}
