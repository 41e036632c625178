package gateway

import (
	"context"
)

// Message is the transport-agnostic push payload. The gateway adapter owns
// the platform-specific envelope; callers never see APNS/FCM shapes.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
	Badge *int   `json:"badge,omitempty"`
	Link  string `json:"link,omitempty"`
}

// Gateway is the remote push provider. Every method returns the
// provider-assigned identifier for the created resource.
type Gateway interface {
	CreateTopic(ctx context.Context, name string) (string, error)
	CreateEndpoint(ctx context.Context, platform, deviceToken string) (string, error)
	Subscribe(ctx context.Context, endpointARN, topicARN string) (string, error)
	Unsubscribe(ctx context.Context, subscriptionARN string) error
	PublishToTopic(ctx context.Context, topicARN string, msg Message) (string, error)
	PublishToEndpoint(ctx context.Context, endpointARN string, msg Message) (string, error)
}
