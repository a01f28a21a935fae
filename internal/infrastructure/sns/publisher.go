package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// EventPublisher fans domain events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type publisher struct {
	client   publishAPI
	topicARN string
}

// NewClient creates an SNS client, pointing it at endpoint when set (LocalStack).
func NewClient(awsCfg aws.Config, endpoint *string) *sns.Client {
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
}

// NewPublisher publishes to topicARN. The event type travels both in the
// message body and as an "event_type" attribute so subscriptions can filter.
func NewPublisher(client publishAPI, topicARN string) EventPublisher {
	return &publisher{client: client, topicARN: topicARN}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (p *publisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(envelope{Type: eventType, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// Nop discards every event. Used when no topic is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
