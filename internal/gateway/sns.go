package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/utils"
)

// snsAPI is the subset of the SNS client this adapter calls.
type snsAPI interface {
	CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error)
	Unsubscribe(ctx context.Context, params *sns.UnsubscribeInput, optFns ...func(*sns.Options)) (*sns.UnsubscribeOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSGateway struct {
	client     snsAPI
	log        *logger.Logger
	apnsAppARN string
	fcmAppARN  string
}

func NewSNSGateway(ctx context.Context, log *logger.Logger) (*SNSGateway, error) {
	gatewayLog := log.With("service", "SNSGateway")

	region := utils.GetEnv("AWS_REGION", "us-east-1", log)
	apnsAppARN := utils.GetEnv("SNS_APNS_PLATFORM_ARN", "", log)
	fcmAppARN := utils.GetEnv("SNS_FCM_PLATFORM_ARN", "", log)

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SNSGateway{
		client:     sns.NewFromConfig(cfg),
		log:        gatewayLog,
		apnsAppARN: apnsAppARN,
		fcmAppARN:  fcmAppARN,
	}, nil
}

var topicNameInvalidChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitizeTopicName maps a slug onto the provider's allowed topic-name
// charset; colons in slugs become hyphens.
func sanitizeTopicName(slug string) string {
	return topicNameInvalidChars.ReplaceAllString(slug, "-")
}

func (g *SNSGateway) CreateTopic(ctx context.Context, name string) (string, error) {
	out, err := g.client.CreateTopic(ctx, &sns.CreateTopicInput{
		Name: aws.String(sanitizeTopicName(name)),
	})
	if err != nil {
		return "", fmt.Errorf("sns create topic: %w", err)
	}
	arn := aws.ToString(out.TopicArn)
	g.log.Debug("Created topic", "topic_arn", arn)
	return arn, nil
}

func (g *SNSGateway) CreateEndpoint(ctx context.Context, platform, deviceToken string) (string, error) {
	appARN := g.fcmAppARN
	if strings.EqualFold(platform, "ios") {
		appARN = g.apnsAppARN
	}
	out, err := g.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appARN),
		Token:                  aws.String(deviceToken),
	})
	if err != nil {
		return "", fmt.Errorf("sns create platform endpoint: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

func (g *SNSGateway) Subscribe(ctx context.Context, endpointARN, topicARN string) (string, error) {
	out, err := g.client.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicARN),
		Protocol: aws.String("application"),
		Endpoint: aws.String(endpointARN),
	})
	if err != nil {
		return "", fmt.Errorf("sns subscribe: %w", err)
	}
	return aws.ToString(out.SubscriptionArn), nil
}

func (g *SNSGateway) Unsubscribe(ctx context.Context, subscriptionARN string) error {
	if _, err := g.client.Unsubscribe(ctx, &sns.UnsubscribeInput{
		SubscriptionArn: aws.String(subscriptionARN),
	}); err != nil {
		return fmt.Errorf("sns unsubscribe: %w", err)
	}
	return nil
}

func (g *SNSGateway) PublishToTopic(ctx context.Context, topicARN string, msg Message) (string, error) {
	envelope, err := buildEnvelope(msg)
	if err != nil {
		return "", err
	}
	out, err := g.client.Publish(ctx, &sns.PublishInput{
		TopicArn:         aws.String(topicARN),
		Message:          aws.String(envelope),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", fmt.Errorf("sns publish to topic: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func (g *SNSGateway) PublishToEndpoint(ctx context.Context, endpointARN string, msg Message) (string, error) {
	envelope, err := buildEnvelope(msg)
	if err != nil {
		return "", err
	}
	out, err := g.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpointARN),
		Message:          aws.String(envelope),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", fmt.Errorf("sns publish to endpoint: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
