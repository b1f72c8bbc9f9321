// Package messaging publishes integration events to Amazon SQS.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gamehub/payment-service/internal/config"
)

// traceHeaderKey is the carrier key the X-Ray propagator writes.
const traceHeaderKey = "X-Amzn-Trace-Id"

// SqsAPI is the slice of the SQS client the publisher needs.
type SqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SqsPublisher struct {
	client     SqsAPI
	queueURL   string
	propagator propagation.TextMapPropagator
	logger     *slog.Logger
}

func NewSqsPublisher(client SqsAPI, queueURL string, logger *slog.Logger) *SqsPublisher {
	return &SqsPublisher{
		client:     client,
		queueURL:   queueURL,
		propagator: xray.Propagator{},
		logger:     logger,
	}
}

// NewSqsClient builds an SQS client from application config. An endpoint
// override points the client at localstack during development.
func NewSqsClient(ctx context.Context, cfg config.SqsConfig) (*sqs.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Publish sends one message to the FIFO queue. The deduplication id makes
// redelivery after a missed acknowledgement harmless, and the group id keeps
// ordering per purchase. The caller's trace context rides along as the
// AWSTraceHeader system attribute.
func (p *SqsPublisher) Publish(ctx context.Context, body []byte, attributes map[string]string, groupID, dedupID string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:               aws.String(p.queueURL),
		MessageBody:            aws.String(string(body)),
		MessageGroupId:         aws.String(groupID),
		MessageDeduplicationId: aws.String(dedupID),
	}

	if len(attributes) > 0 {
		input.MessageAttributes = make(map[string]sqstypes.MessageAttributeValue, len(attributes))
		for name, value := range attributes {
			input.MessageAttributes[name] = sqstypes.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(value),
			}
		}
	}

	carrier := propagation.MapCarrier{}
	p.propagator.Inject(ctx, carrier)
	if traceHeader := carrier.Get(traceHeaderKey); traceHeader != "" {
		input.MessageSystemAttributes = map[string]sqstypes.MessageSystemAttributeValue{
			string(sqstypes.MessageSystemAttributeNameAWSTraceHeader): {
				DataType:    aws.String("String"),
				StringValue: aws.String(traceHeader),
			},
		}
	}

	output, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("error sending message to SQS: %w", err)
	}

	p.logger.Debug("message published",
		"messageId", aws.ToString(output.MessageId),
		"groupId", groupID,
		"dedupId", dedupID)
	return nil
}
