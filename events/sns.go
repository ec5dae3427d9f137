package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yashrajoria/storefront-service/pkg/aws"
)

type SNSPublisher struct {
	client   aws.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) PublishOrderCreated(ctx context.Context, evt OrderCreated) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.Type, err)
	}
	attrs := map[string]string{"event_type": evt.Type}
	if err := p.client.Publish(ctx, p.topicArn, payload, attrs); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", evt.Type, evt.OrderID, err)
	}
	return nil
}

func (p *SNSPublisher) Close() error { return nil }
