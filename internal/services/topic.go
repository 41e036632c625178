package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/gateway"
	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/repos"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type TopicService interface {
	// Ensure returns the topic for slug, creating it remotely on a
	// confirmed store miss. Idempotent: repeated calls never create a
	// second remote topic for the same slug.
	Ensure(ctx context.Context, slug, name string) (*types.Topic, error)
	List(ctx context.Context) ([]*types.Topic, error)
	Subscribe(ctx context.Context, clr caller.Context, deviceID uuid.UUID, endpointARN, slug string) (string, error)
	Unsubscribe(ctx context.Context, clr caller.Context, deviceID uuid.UUID, slug string) error
}

type topicService struct {
	db         *gorm.DB
	log        *logger.Logger
	topicRepo  repos.TopicRepo
	deviceRepo repos.DeviceRepo
	subRepo    repos.SubscriptionRepo
	gw         gateway.Gateway
}

func NewTopicService(db *gorm.DB, log *logger.Logger, topicRepo repos.TopicRepo, deviceRepo repos.DeviceRepo, subRepo repos.SubscriptionRepo, gw gateway.Gateway) TopicService {
	return &topicService{
		db:         db,
		log:        log.With("service", "TopicService"),
		topicRepo:  topicRepo,
		deviceRepo: deviceRepo,
		subRepo:    subRepo,
		gw:         gw,
	}
}

func (s *topicService) Ensure(ctx context.Context, slug, name string) (*types.Topic, error) {
	if slug == "" {
		return nil, apierr.Validation("slug")
	}

	// The store is consulted first so a remote topic is only created on a
	// confirmed miss; the result is persisted before returning, keeping
	// store and provider converged. Concurrent first use is safe because
	// the provider's create-by-name call is itself idempotent and the slug
	// row upserts.
	existing, err := s.topicRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, apierr.Upstream("load topic", err)
	}
	if existing != nil && existing.TopicARN != "" {
		return existing, nil
	}

	arn, err := s.gw.CreateTopic(ctx, slug)
	if err != nil {
		return nil, apierr.Upstream("create topic", err)
	}

	topic, err := s.topicRepo.Upsert(ctx, nil, slug, name, arn)
	if err != nil {
		return nil, apierr.Upstream("persist topic", err)
	}
	s.log.Debug("Ensured topic", "slug", slug, "topic_arn", arn)
	return topic, nil
}

func (s *topicService) List(ctx context.Context) ([]*types.Topic, error) {
	topics, err := s.topicRepo.List(ctx, nil)
	if err != nil {
		return nil, apierr.Upstream("list topics", err)
	}
	return topics, nil
}

func (s *topicService) Subscribe(ctx context.Context, clr caller.Context, deviceID uuid.UUID, endpointARN, slug string) (string, error) {
	if !clr.Valid() {
		return "", apierr.Unauthenticated()
	}
	if slug == "" {
		return "", apierr.Validation("slug")
	}
	if deviceID == uuid.Nil && endpointARN == "" {
		return "", apierr.Validation("deviceId or endpointArn")
	}

	topic, err := s.Ensure(ctx, slug, slug)
	if err != nil {
		return "", err
	}

	endpoint := endpointARN
	if endpoint == "" {
		device, err := s.resolveOwnedDevice(ctx, clr, deviceID)
		if err != nil {
			return "", err
		}
		endpoint = device.EndpointARN
	}

	subARN, err := s.gw.Subscribe(ctx, endpoint, topic.TopicARN)
	if err != nil {
		return "", apierr.Upstream("subscribe", err)
	}

	if deviceID != uuid.Nil {
		if _, err := s.subRepo.Upsert(ctx, nil, deviceID, topic.ID, subARN); err != nil {
			return "", apierr.Upstream("persist subscription", err)
		}
	}
	return subARN, nil
}

func (s *topicService) Unsubscribe(ctx context.Context, clr caller.Context, deviceID uuid.UUID, slug string) error {
	if !clr.Valid() {
		return apierr.Unauthenticated()
	}
	if deviceID == uuid.Nil {
		return apierr.Validation("deviceId")
	}
	if slug == "" {
		return apierr.Validation("slug")
	}

	if _, err := s.resolveOwnedDevice(ctx, clr, deviceID); err != nil {
		// The endpoint precondition does not matter for unsubscribing;
		// only ownership does.
		if !apierr.IsPrecondition(err) {
			return err
		}
	}

	sub, err := s.subRepo.GetByDeviceAndSlug(ctx, nil, deviceID, slug)
	if err != nil {
		return apierr.Upstream("load subscription", err)
	}
	if sub == nil {
		return apierr.NotFound("subscription")
	}
	if sub.SubscriptionARN != "" {
		if err := s.gw.Unsubscribe(ctx, sub.SubscriptionARN); err != nil {
			return apierr.Upstream("unsubscribe", err)
		}
	}
	if err := s.subRepo.Delete(ctx, nil, sub.ID); err != nil {
		return apierr.Upstream("delete subscription", err)
	}
	return nil
}

// resolveOwnedDevice loads a device the caller may act on. Non-owners
// without an elevated role get not-found rather than forbidden so the
// response does not confirm the device exists.
func (s *topicService) resolveOwnedDevice(ctx context.Context, clr caller.Context, deviceID uuid.UUID) (*types.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, nil, deviceID)
	if err != nil {
		return nil, apierr.Upstream("load device", err)
	}
	if device == nil {
		return nil, apierr.NotFound("device")
	}
	if device.UserID != clr.UserID && !clr.Elevated() {
		return nil, apierr.NotFound("device")
	}
	if device.EndpointARN == "" {
		return nil, apierr.Precondition(fmt.Sprintf("device %s has no endpoint", device.ID))
	}
	return device, nil
}
