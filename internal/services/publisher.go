package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/gateway"
	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/repos"
)

const (
	AudienceStudents  = "students"
	AudienceGuardians = "guardians"
	AudienceBoth      = "both"
)

// PublishResult is the per-topic outcome of a publish fan-out. All
// selected topics are attempted; a failure on one never suppresses the
// others, and the caller sees each outcome in slug-selection order.
type PublishResult struct {
	Slug      string
	TopicARN  string
	MessageID string
	Err       error
}

type DevicePublishResult struct {
	EndpointARN string
	MessageID   string
}

type PublishService interface {
	PublishToCourse(ctx context.Context, clr caller.Context, courseID uuid.UUID, audience, msgType string, msg gateway.Message) ([]PublishResult, error)
	PublishToRole(ctx context.Context, clr caller.Context, role string, msg gateway.Message) (*PublishResult, error)
	PublishToDevice(ctx context.Context, clr caller.Context, deviceID uuid.UUID, endpointARN string, msg gateway.Message) (*DevicePublishResult, error)
}

type publishService struct {
	db           *gorm.DB
	log          *logger.Logger
	staffRepo    repos.StaffRepo
	deviceRepo   repos.DeviceRepo
	topicService TopicService
	gw           gateway.Gateway
}

func NewPublishService(db *gorm.DB, log *logger.Logger, staffRepo repos.StaffRepo, deviceRepo repos.DeviceRepo, topicService TopicService, gw gateway.Gateway) PublishService {
	return &publishService{
		db:           db,
		log:          log.With("service", "PublishService"),
		staffRepo:    staffRepo,
		deviceRepo:   deviceRepo,
		topicService: topicService,
		gw:           gw,
	}
}

func (s *publishService) PublishToCourse(ctx context.Context, clr caller.Context, courseID uuid.UUID, audience, msgType string, msg gateway.Message) ([]PublishResult, error) {
	if !clr.Valid() {
		return nil, apierr.Unauthenticated()
	}
	if courseID == uuid.Nil {
		return nil, apierr.Validation("courseId")
	}
	if msg.Title == "" && msg.Body == "" {
		return nil, apierr.Validation("message")
	}

	audience = strings.ToLower(strings.TrimSpace(audience))
	if audience == "" {
		audience = AudienceStudents
	}
	switch audience {
	case AudienceStudents, AudienceGuardians, AudienceBoth:
	default:
		return nil, apierr.Validation("audience")
	}

	// Course membership is checked the same way for every role; an admin
	// who is not assigned to the course is refused like anyone else.
	isStaff, err := s.staffRepo.IsCourseStaff(ctx, nil, clr.UserID, courseID)
	if err != nil {
		return nil, apierr.Upstream("check course staff", err)
	}
	if !isStaff {
		return nil, apierr.Forbidden()
	}

	slugs := selectCourseSlugs(courseID, audience, msgType)
	results := make([]PublishResult, 0, len(slugs))
	for _, slug := range slugs {
		results = append(results, s.publishSlug(ctx, slug, msg))
	}
	return results, nil
}

// selectCourseSlugs picks the topic targets for a course publish. The
// student and guardian targets stay distinct topics; when both audiences
// resolve to the notification topic the duplicate is dropped.
func selectCourseSlugs(courseID uuid.UUID, audience, msgType string) []string {
	var slugs []string
	if audience == AudienceStudents || audience == AudienceBoth {
		slugs = append(slugs, CourseTopicSlug(courseID, TopicKindNotification))
	}
	if audience == AudienceGuardians || audience == AudienceBoth {
		slugs = append(slugs, CourseTopicSlug(courseID, NormalizeTopicKind(msgType)))
	}
	seen := map[string]struct{}{}
	out := slugs[:0]
	for _, slug := range slugs {
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

func (s *publishService) PublishToRole(ctx context.Context, clr caller.Context, role string, msg gateway.Message) (*PublishResult, error) {
	if !clr.Valid() {
		return nil, apierr.Unauthenticated()
	}
	// Role-wide publishing reaches every identity of a role; only admins
	// hold that reach.
	if !clr.IsAdmin() {
		return nil, apierr.Forbidden()
	}
	if strings.TrimSpace(role) == "" {
		return nil, apierr.Validation("role")
	}
	if msg.Title == "" && msg.Body == "" {
		return nil, apierr.Validation("message")
	}

	result := s.publishSlug(ctx, RoleTopicSlug(role), msg)
	if result.Err != nil {
		return nil, result.Err
	}
	return &result, nil
}

func (s *publishService) PublishToDevice(ctx context.Context, clr caller.Context, deviceID uuid.UUID, endpointARN string, msg gateway.Message) (*DevicePublishResult, error) {
	if !clr.Valid() {
		return nil, apierr.Unauthenticated()
	}
	if deviceID == uuid.Nil && endpointARN == "" {
		return nil, apierr.Validation("deviceId or endpointArn")
	}
	if msg.Title == "" && msg.Body == "" {
		return nil, apierr.Validation("message")
	}

	endpoint := endpointARN
	if endpoint == "" {
		device, err := s.deviceRepo.GetByID(ctx, nil, deviceID)
		if err != nil {
			return nil, apierr.Upstream("load device", err)
		}
		// Non-owners without an elevated role get not-found, the same
		// answer as for a device that does not exist.
		if device == nil || (device.UserID != clr.UserID && !clr.Elevated()) {
			return nil, apierr.NotFound("device")
		}
		if device.EndpointARN == "" {
			return nil, apierr.Precondition("device has no endpoint")
		}
		endpoint = device.EndpointARN
	} else if !clr.Elevated() {
		// Raw endpoint addressing bypasses ownership resolution entirely,
		// so it is reserved for elevated roles.
		return nil, apierr.Forbidden()
	}

	messageID, err := s.gw.PublishToEndpoint(ctx, endpoint, msg)
	if err != nil {
		return nil, apierr.Upstream("publish to endpoint", err)
	}
	return &DevicePublishResult{EndpointARN: endpoint, MessageID: messageID}, nil
}

func (s *publishService) publishSlug(ctx context.Context, slug string, msg gateway.Message) PublishResult {
	topic, err := s.topicService.Ensure(ctx, slug, slug)
	if err != nil {
		return PublishResult{Slug: slug, Err: err}
	}
	messageID, err := s.gw.PublishToTopic(ctx, topic.TopicARN, msg)
	if err != nil {
		s.log.Warn("Publish failed", "slug", slug, "error", err)
		return PublishResult{Slug: slug, TopicARN: topic.TopicARN, Err: apierr.Upstream("publish", err)}
	}
	return PublishResult{Slug: slug, TopicARN: topic.TopicARN, MessageID: messageID}
}
