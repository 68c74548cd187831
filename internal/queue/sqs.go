package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pohualizcalli/academy-admin/internal/domain"
)

// sqsAPI is the slice of the SQS client the publisher needs.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSPublisher struct {
	api      sqsAPI
	queueURL string
}

func NewSQSPublisher(awsCfg aws.Config, queueURL, region string) (*SQSPublisher, error) {
	if strings.TrimSpace(queueURL) == "" {
		return nil, fmt.Errorf("%w: queue url is required", domain.ErrQueueUnavailable)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if region != "" {
			o.Region = region
		}
	})

	return &SQSPublisher{api: client, queueURL: queueURL}, nil
}

func (p *SQSPublisher) Publish(ctx context.Context, msg BatchMessage) error {
	if p == nil || p.api == nil {
		return fmt.Errorf("%w: publisher is not initialized", domain.ErrQueueUnavailable)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid batch message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal batch message: %w", err)
	}

	_, err = p.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to publish batch %d: %v", domain.ErrQueueUnavailable, msg.BatchID, err)
	}

	return nil
}
