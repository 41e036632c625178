package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/gateway"
	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/repos"
)

// SlugResult is the per-topic outcome of a registration fan-out. The
// fan-out has no rollback, so partial failure is part of the contract: a
// failed slug leaves earlier slugs subscribed, and a full retry of the
// registration is the recovery path.
type SlugResult struct {
	Slug            string
	SubscriptionARN string
	Err             error
}

type RegistrationResult struct {
	DeviceID      uuid.UUID
	EndpointARN   string
	Subscriptions []SlugResult
}

type RegistrarService interface {
	Register(ctx context.Context, clr caller.Context, platform, deviceToken string) (*RegistrationResult, error)
	// Deregister tears down a device at end of life: remote subscriptions
	// are removed, local rows deleted, and the device disabled. The row
	// itself is kept.
	Deregister(ctx context.Context, clr caller.Context, deviceID uuid.UUID) error
}

type registrarService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	staffRepo    repos.StaffRepo
	studentRepo  repos.StudentRepo
	guardianRepo repos.GuardianRepo
	deviceRepo   repos.DeviceRepo
	subRepo      repos.SubscriptionRepo
	topicService TopicService
	gw           gateway.Gateway
}

func NewRegistrarService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	staffRepo repos.StaffRepo,
	studentRepo repos.StudentRepo,
	guardianRepo repos.GuardianRepo,
	deviceRepo repos.DeviceRepo,
	subRepo repos.SubscriptionRepo,
	topicService TopicService,
	gw gateway.Gateway,
) RegistrarService {
	return &registrarService{
		db:           db,
		log:          log.With("service", "RegistrarService"),
		userRepo:     userRepo,
		staffRepo:    staffRepo,
		studentRepo:  studentRepo,
		guardianRepo: guardianRepo,
		deviceRepo:   deviceRepo,
		subRepo:      subRepo,
		topicService: topicService,
		gw:           gw,
	}
}

func (s *registrarService) Register(ctx context.Context, clr caller.Context, platform, deviceToken string) (*RegistrationResult, error) {
	if !clr.Valid() {
		return nil, apierr.Unauthenticated()
	}
	if platform == "" {
		return nil, apierr.Validation("platform")
	}
	if deviceToken == "" {
		return nil, apierr.Validation("deviceToken")
	}

	// The provider call is safe to repeat; whatever identifier it returns
	// this time becomes the device's endpoint.
	endpointARN, err := s.gw.CreateEndpoint(ctx, platform, deviceToken)
	if err != nil {
		return nil, apierr.Upstream("create endpoint", err)
	}

	device, err := s.deviceRepo.Upsert(ctx, nil, clr.UserID, platform, deviceToken, endpointARN)
	if err != nil {
		return nil, apierr.Upstream("persist device", err)
	}

	// Role and relationship facts are read fresh on every registration;
	// re-registration is the only reconciliation path for a device's
	// topic set.
	role, err := s.userRepo.GetRoleName(ctx, nil, clr.UserID)
	if err != nil {
		return nil, apierr.Upstream("load role", err)
	}
	facts, err := s.collectFacts(ctx, clr.UserID, role)
	if err != nil {
		return nil, err
	}

	slugs := ResolveTopicSlugs(role, facts)
	results := make([]SlugResult, 0, len(slugs))
	for _, slug := range slugs {
		results = append(results, s.subscribeSlug(ctx, device.ID, device.EndpointARN, slug))
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.log.Info("Registered device",
		"user_id", clr.UserID,
		"platform", platform,
		"topics", len(results),
		"failed_topics", failed,
	)

	return &RegistrationResult{
		DeviceID:      device.ID,
		EndpointARN:   device.EndpointARN,
		Subscriptions: results,
	}, nil
}

func (s *registrarService) Deregister(ctx context.Context, clr caller.Context, deviceID uuid.UUID) error {
	if !clr.Valid() {
		return apierr.Unauthenticated()
	}
	if deviceID == uuid.Nil {
		return apierr.Validation("deviceId")
	}

	device, err := s.deviceRepo.GetByID(ctx, nil, deviceID)
	if err != nil {
		return apierr.Upstream("load device", err)
	}
	if device == nil || (device.UserID != clr.UserID && !clr.Elevated()) {
		return apierr.NotFound("device")
	}

	subs, err := s.subRepo.ListByDeviceID(ctx, nil, device.ID)
	if err != nil {
		return apierr.Upstream("list subscriptions", err)
	}
	for _, sub := range subs {
		// A failed remote unsubscribe is not fatal; the endpoint is about
		// to be disabled and the provider drops dead subscriptions itself.
		if sub.SubscriptionARN != "" {
			if err := s.gw.Unsubscribe(ctx, sub.SubscriptionARN); err != nil {
				s.log.Warn("Unsubscribe failed during deregistration", "device_id", device.ID, "error", err)
			}
		}
		if err := s.subRepo.Delete(ctx, nil, sub.ID); err != nil {
			return apierr.Upstream("delete subscription", err)
		}
	}

	if err := s.deviceRepo.Disable(ctx, nil, device.ID); err != nil {
		return apierr.Upstream("disable device", err)
	}
	s.log.Info("Deregistered device", "user_id", clr.UserID, "device_id", device.ID, "subscriptions", len(subs))
	return nil
}

func (s *registrarService) collectFacts(ctx context.Context, userID uuid.UUID, role string) (Facts, error) {
	var facts Facts
	switch normalizeRole(role) {
	case normalizeRole(caller.RoleSchoolAdmin), normalizeRole(caller.RoleSchoolStaff):
		ids, err := s.staffRepo.ListCourseIDsByUserID(ctx, nil, userID)
		if err != nil {
			return facts, apierr.Upstream("load staff courses", err)
		}
		facts.StaffCourseIDs = ids
	case normalizeRole(caller.RoleStudent):
		ids, err := s.studentRepo.ListCourseIDsByUserID(ctx, nil, userID)
		if err != nil {
			return facts, apierr.Upstream("load enrollments", err)
		}
		facts.StudentCourseIDs = ids
	case normalizeRole(caller.RoleGuardian):
		ids, err := s.guardianRepo.ListWardCourseIDsByUserID(ctx, nil, userID)
		if err != nil {
			return facts, apierr.Upstream("load ward enrollments", err)
		}
		facts.WardCourseIDs = ids
	}
	return facts, nil
}

func (s *registrarService) subscribeSlug(ctx context.Context, deviceID uuid.UUID, endpointARN, slug string) SlugResult {
	topic, err := s.topicService.Ensure(ctx, slug, slug)
	if err != nil {
		s.log.Warn("Ensure topic failed during registration", "slug", slug, "error", err)
		return SlugResult{Slug: slug, Err: err}
	}
	subARN, err := s.gw.Subscribe(ctx, endpointARN, topic.TopicARN)
	if err != nil {
		s.log.Warn("Subscribe failed during registration", "slug", slug, "error", err)
		return SlugResult{Slug: slug, Err: apierr.Upstream("subscribe", err)}
	}
	if _, err := s.subRepo.Upsert(ctx, nil, deviceID, topic.ID, subARN); err != nil {
		s.log.Warn("Persist subscription failed during registration", "slug", slug, "error", err)
		return SlugResult{Slug: slug, Err: apierr.Upstream("persist subscription", err)}
	}
	return SlugResult{Slug: slug, SubscriptionARN: subARN}
}
