package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/schoolping/schoolping-backend/internal/apierr"
	"github.com/schoolping/schoolping-backend/internal/caller"
	"github.com/schoolping/schoolping-backend/internal/logger"
)

type registrarFixture struct {
	svc          RegistrarService
	gw           *fakeGateway
	userRepo     *fakeUserRepo
	staffRepo    *fakeStaffRepo
	studentRepo  *fakeStudentRepo
	guardianRepo *fakeGuardianRepo
	deviceRepo   *fakeDeviceRepo
	subRepo      *fakeSubscriptionRepo
}

func newRegistrarFixture(t *testing.T) *registrarFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	f := &registrarFixture{
		gw:           &fakeGateway{},
		userRepo:     newFakeUserRepo(),
		staffRepo:    newFakeStaffRepo(),
		studentRepo:  newFakeStudentRepo(),
		guardianRepo: newFakeGuardianRepo(),
		deviceRepo:   newFakeDeviceRepo(),
	}
	topicRepo := newFakeTopicRepo()
	f.subRepo = newFakeSubscriptionRepo(topicRepo)
	topicService := NewTopicService(nil, log, topicRepo, f.deviceRepo, f.subRepo, f.gw)
	f.svc = NewRegistrarService(nil, log, f.userRepo, f.staffRepo, f.studentRepo, f.guardianRepo, f.deviceRepo, f.subRepo, topicService, f.gw)
	return f
}

func (f *registrarFixture) seedStudent(courseIDs ...uuid.UUID) caller.Context {
	user := f.userRepo.seed("student@school.test", "x", caller.RoleStudent)
	f.studentRepo.courseIDsByUser[user.ID] = courseIDs
	return caller.Context{UserID: user.ID, Role: caller.RoleStudent}
}

func TestRegistrarRegisterStudent(t *testing.T) {
	f := newRegistrarFixture(t)
	courseID := uuid.New()
	clr := f.seedStudent(courseID)

	result, err := f.svc.Register(context.Background(), clr, "ios", "tok-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.DeviceID == uuid.Nil {
		t.Fatalf("Register: no device id")
	}
	if result.EndpointARN == "" {
		t.Fatalf("Register: no endpoint ARN")
	}

	wantSlugs := map[string]bool{
		RoleTopicSlug(caller.RoleStudent):                false,
		CourseTopicSlug(courseID, TopicKindNotification): false,
	}
	if len(result.Subscriptions) != len(wantSlugs) {
		t.Fatalf("subscription count: want=%d got=%d", len(wantSlugs), len(result.Subscriptions))
	}
	for _, sr := range result.Subscriptions {
		if sr.Err != nil {
			t.Fatalf("subscription %s failed: %v", sr.Slug, sr.Err)
		}
		if _, ok := wantSlugs[sr.Slug]; !ok {
			t.Fatalf("unexpected slug %q", sr.Slug)
		}
		wantSlugs[sr.Slug] = true
	}
	for slug, seen := range wantSlugs {
		if !seen {
			t.Fatalf("missing slug %q", slug)
		}
	}

	rows, _ := f.subRepo.ListByDeviceID(context.Background(), nil, result.DeviceID)
	if len(rows) != 2 {
		t.Fatalf("persisted subscription rows: want=2 got=%d", len(rows))
	}
}

func TestRegistrarRegisterIdempotent(t *testing.T) {
	f := newRegistrarFixture(t)
	clr := f.seedStudent(uuid.New())
	ctx := context.Background()

	first, err := f.svc.Register(ctx, clr, "ios", "tok-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := f.svc.Register(ctx, clr, "ios", "tok-1")
	if err != nil {
		t.Fatalf("Register again: %v", err)
	}

	if first.DeviceID != second.DeviceID {
		t.Fatalf("device id changed across registrations: %s vs %s", first.DeviceID, second.DeviceID)
	}
	if len(f.deviceRepo.byToken) != 1 {
		t.Fatalf("device rows: want=1 got=%d", len(f.deviceRepo.byToken))
	}
	rows, _ := f.subRepo.ListByDeviceID(ctx, nil, first.DeviceID)
	if len(rows) != 2 {
		t.Fatalf("subscription rows after repeat: want=2 got=%d", len(rows))
	}
	// Topics are created remotely once, on first use only.
	if f.gw.createTopicCalls != 2 {
		t.Fatalf("create topic calls: want=2 got=%d", f.gw.createTopicCalls)
	}
}

func TestRegistrarRegisterReassignsDevice(t *testing.T) {
	f := newRegistrarFixture(t)
	ctx := context.Background()

	first := f.seedStudent()
	if _, err := f.svc.Register(ctx, first, "android", "shared-tok"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	secondUser := f.userRepo.seed("second@school.test", "x", caller.RoleStudent)
	f.studentRepo.courseIDsByUser[secondUser.ID] = nil
	second := caller.Context{UserID: secondUser.ID, Role: caller.RoleStudent}
	if _, err := f.svc.Register(ctx, second, "android", "shared-tok"); err != nil {
		t.Fatalf("Register second owner: %v", err)
	}

	device, _ := f.deviceRepo.GetByPlatformToken(ctx, nil, "android", "shared-tok")
	if device.UserID != second.UserID {
		t.Fatalf("device owner: want=%s got=%s", second.UserID, device.UserID)
	}
}

func TestRegistrarRegisterPartialFailure(t *testing.T) {
	f := newRegistrarFixture(t)
	courseID := uuid.New()
	clr := f.seedStudent(courseID)

	courseSlug := CourseTopicSlug(courseID, TopicKindNotification)
	f.gw.failSubscribeFor = map[string]error{
		topicARNFor(courseSlug): context.DeadlineExceeded,
	}

	result, err := f.svc.Register(context.Background(), clr, "ios", "tok-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var failed, succeeded int
	for _, sr := range result.Subscriptions {
		if sr.Err != nil {
			failed++
			if sr.Slug != courseSlug {
				t.Fatalf("failed slug: want=%q got=%q", courseSlug, sr.Slug)
			}
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 1 {
		t.Fatalf("outcome split: want 1 failed / 1 ok, got %d failed / %d ok", failed, succeeded)
	}
}

func TestRegistrarDeregisterDisablesDevice(t *testing.T) {
	f := newRegistrarFixture(t)
	clr := f.seedStudent(uuid.New())
	ctx := context.Background()

	result, err := f.svc.Register(ctx, clr, "ios", "tok-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := f.svc.Deregister(ctx, clr, result.DeviceID); err != nil {
		t.Fatalf("Deregister: %v", err)
	}

	if f.gw.unsubscribeCalls != 2 {
		t.Fatalf("unsubscribe calls: want=2 got=%d", f.gw.unsubscribeCalls)
	}
	rows, _ := f.subRepo.ListByDeviceID(ctx, nil, result.DeviceID)
	if len(rows) != 0 {
		t.Fatalf("subscription rows after deregister: want=0 got=%d", len(rows))
	}
	device, _ := f.deviceRepo.GetByID(ctx, nil, result.DeviceID)
	if device == nil {
		t.Fatalf("device row deleted; should only be disabled")
	}
	if device.Enabled {
		t.Fatalf("device still enabled after deregister")
	}
}

func TestRegistrarDeregisterHidesForeignDevice(t *testing.T) {
	f := newRegistrarFixture(t)
	owner := f.seedStudent()
	ctx := context.Background()

	result, err := f.svc.Register(ctx, owner, "ios", "tok-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	strangerUser := f.userRepo.seed("stranger@school.test", "x", caller.RoleStudent)
	f.studentRepo.courseIDsByUser[strangerUser.ID] = nil
	stranger := caller.Context{UserID: strangerUser.ID, Role: caller.RoleStudent}

	if err := f.svc.Deregister(ctx, stranger, result.DeviceID); !apierr.IsNotFound(err) {
		t.Fatalf("foreign deregister: want not-found, got %v", err)
	}
	device, _ := f.deviceRepo.GetByID(ctx, nil, result.DeviceID)
	if !device.Enabled {
		t.Fatalf("foreign deregister disabled the device")
	}
}

func TestRegistrarRegisterValidatesInput(t *testing.T) {
	f := newRegistrarFixture(t)
	clr := f.seedStudent()

	if _, err := f.svc.Register(context.Background(), clr, "", "tok"); apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("empty platform: want validation error, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), clr, "ios", ""); apierr.CodeOf(err) != apierr.CodeValidation {
		t.Fatalf("empty token: want validation error, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), caller.Context{}, "ios", "tok"); apierr.CodeOf(err) != apierr.CodeUnauthenticated {
		t.Fatalf("anonymous caller: want unauthenticated, got %v", err)
	}
}
