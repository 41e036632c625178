package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolping/schoolping-backend/internal/gateway"
	"github.com/schoolping/schoolping-backend/internal/types"
)

// In-memory fakes for the repos and the push gateway. They keep just
// enough state for idempotence and partial-failure assertions.

type fakeGateway struct {
	createTopicCalls     int
	createEndpointCalls  int
	subscribeCalls       int
	unsubscribeCalls     int
	publishTopicCalls    int
	publishEndpointCalls int

	failSubscribeFor map[string]error // keyed by topic ARN
	failPublishFor   map[string]error // keyed by topic ARN

	publishedTopics    []string
	publishedEndpoints []string
}

func topicARNFor(name string) string {
	return "arn:aws:sns:local:000000000000:" + name
}

func (g *fakeGateway) CreateTopic(ctx context.Context, name string) (string, error) {
	g.createTopicCalls++
	return topicARNFor(name), nil
}

func (g *fakeGateway) CreateEndpoint(ctx context.Context, platform, deviceToken string) (string, error) {
	g.createEndpointCalls++
	return "arn:aws:sns:local:endpoint/" + platform + "/" + deviceToken, nil
}

func (g *fakeGateway) Subscribe(ctx context.Context, endpointARN, topicARN string) (string, error) {
	g.subscribeCalls++
	if err := g.failSubscribeFor[topicARN]; err != nil {
		return "", err
	}
	return "arn:aws:sns:local:sub/" + topicARN, nil
}

func (g *fakeGateway) Unsubscribe(ctx context.Context, subscriptionARN string) error {
	g.unsubscribeCalls++
	return nil
}

func (g *fakeGateway) PublishToTopic(ctx context.Context, topicARN string, msg gateway.Message) (string, error) {
	g.publishTopicCalls++
	if err := g.failPublishFor[topicARN]; err != nil {
		return "", err
	}
	g.publishedTopics = append(g.publishedTopics, topicARN)
	return uuid.NewString(), nil
}

func (g *fakeGateway) PublishToEndpoint(ctx context.Context, endpointARN string, msg gateway.Message) (string, error) {
	g.publishEndpointCalls++
	g.publishedEndpoints = append(g.publishedEndpoints, endpointARN)
	return uuid.NewString(), nil
}

type fakeTopicRepo struct {
	bySlug map[string]*types.Topic
}

func newFakeTopicRepo() *fakeTopicRepo {
	return &fakeTopicRepo{bySlug: map[string]*types.Topic{}}
}

func (r *fakeTopicRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Topic, error) {
	if row, ok := r.bySlug[slug]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeTopicRepo) Upsert(ctx context.Context, tx *gorm.DB, slug, name, topicARN string) (*types.Topic, error) {
	if existing, ok := r.bySlug[slug]; ok {
		existing.TopicARN = topicARN
		cp := *existing
		return &cp, nil
	}
	row := &types.Topic{ID: uuid.New(), Slug: slug, Name: name, TopicARN: topicARN}
	r.bySlug[slug] = row
	cp := *row
	return &cp, nil
}

func (r *fakeTopicRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error) {
	out := make([]*types.Topic, 0, len(r.bySlug))
	for _, row := range r.bySlug {
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

type fakeDeviceRepo struct {
	byToken map[string]*types.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{byToken: map[string]*types.Device{}}
}

func deviceKey(platform, deviceToken string) string {
	return platform + "|" + deviceToken
}

func (r *fakeDeviceRepo) Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform, deviceToken, endpointARN string) (*types.Device, error) {
	key := deviceKey(platform, deviceToken)
	if existing, ok := r.byToken[key]; ok {
		existing.UserID = userID
		existing.EndpointARN = endpointARN
		existing.Enabled = true
		cp := *existing
		return &cp, nil
	}
	row := &types.Device{
		ID:          uuid.New(),
		UserID:      userID,
		Platform:    platform,
		DeviceToken: deviceToken,
		EndpointARN: endpointARN,
		Enabled:     true,
	}
	r.byToken[key] = row
	cp := *row
	return &cp, nil
}

func (r *fakeDeviceRepo) GetByID(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) (*types.Device, error) {
	for _, row := range r.byToken {
		if row.ID == deviceID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDeviceRepo) GetByPlatformToken(ctx context.Context, tx *gorm.DB, platform, deviceToken string) (*types.Device, error) {
	if row, ok := r.byToken[deviceKey(platform, deviceToken)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeDeviceRepo) Disable(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) error {
	for _, row := range r.byToken {
		if row.ID == deviceID {
			row.Enabled = false
		}
	}
	return nil
}

func (r *fakeDeviceRepo) seed(userID uuid.UUID, platform, deviceToken, endpointARN string) *types.Device {
	row, _ := r.Upsert(context.Background(), nil, userID, platform, deviceToken, endpointARN)
	return row
}

type fakeSubscriptionRepo struct {
	topics *fakeTopicRepo
	rows   map[string]*types.Subscription // device|topic
}

func newFakeSubscriptionRepo(topics *fakeTopicRepo) *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{topics: topics, rows: map[string]*types.Subscription{}}
}

func subKey(deviceID, topicID uuid.UUID) string {
	return deviceID.String() + "|" + topicID.String()
}

func (r *fakeSubscriptionRepo) Upsert(ctx context.Context, tx *gorm.DB, deviceID, topicID uuid.UUID, subscriptionARN string) (*types.Subscription, error) {
	key := subKey(deviceID, topicID)
	if existing, ok := r.rows[key]; ok {
		existing.SubscriptionARN = subscriptionARN
		cp := *existing
		return &cp, nil
	}
	row := &types.Subscription{
		ID:              uuid.New(),
		DeviceID:        deviceID,
		TopicID:         topicID,
		SubscriptionARN: subscriptionARN,
	}
	r.rows[key] = row
	cp := *row
	return &cp, nil
}

func (r *fakeSubscriptionRepo) GetByDeviceAndSlug(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID, slug string) (*types.Subscription, error) {
	topic, ok := r.topics.bySlug[slug]
	if !ok {
		return nil, nil
	}
	if row, ok := r.rows[subKey(deviceID, topic.ID)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) ListByDeviceID(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) ([]*types.Subscription, error) {
	var out []*types.Subscription
	for _, row := range r.rows {
		if row.DeviceID == deviceID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Delete(ctx context.Context, tx *gorm.DB, subscriptionID uuid.UUID) error {
	for key, row := range r.rows {
		if row.ID == subscriptionID {
			delete(r.rows, key)
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
	roles map[uuid.UUID]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*types.User{}, roles: map[uuid.UUID]string{}}
}

func (r *fakeUserRepo) seed(email, passwordHash, role string) *types.User {
	row := &types.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	r.users[row.ID] = row
	r.roles[row.ID] = role
	return row
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return users, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range userIDs {
		if row, ok := r.users[id]; ok {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	var out []*types.User
	for _, email := range userEmails {
		for _, row := range r.users {
			if row.Email == email {
				cp := *row
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetRoleName(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error) {
	return r.roles[userID], nil
}

type fakeStaffRepo struct {
	courseIDsByUser map[uuid.UUID][]uuid.UUID
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{courseIDsByUser: map[uuid.UUID][]uuid.UUID{}}
}

func (r *fakeStaffRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Staff, error) {
	if _, ok := r.courseIDsByUser[userID]; ok {
		return &types.Staff{ID: uuid.New(), UserID: userID}, nil
	}
	return nil, nil
}

func (r *fakeStaffRepo) EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) (*types.Staff, error) {
	if _, ok := r.courseIDsByUser[userID]; !ok {
		r.courseIDsByUser[userID] = nil
	}
	return &types.Staff{ID: uuid.New(), UserID: userID, Title: title}, nil
}

func (r *fakeStaffRepo) ListCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.courseIDsByUser[userID], nil
}

func (r *fakeStaffRepo) IsCourseStaff(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uuid.UUID) (bool, error) {
	for _, id := range r.courseIDsByUser[userID] {
		if id == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeStaffRepo) AssignCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, staffID uuid.UUID, role string) error {
	return nil
}

type fakeStudentRepo struct {
	courseIDsByUser map[uuid.UUID][]uuid.UUID
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{courseIDsByUser: map[uuid.UUID][]uuid.UUID{}}
}

func (r *fakeStudentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Student, error) {
	if _, ok := r.courseIDsByUser[userID]; ok {
		return &types.Student{ID: uuid.New(), UserID: userID}, nil
	}
	return nil, nil
}

func (r *fakeStudentRepo) EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, studentNumber, gradeLevel string) (*types.Student, error) {
	if _, ok := r.courseIDsByUser[userID]; !ok {
		r.courseIDsByUser[userID] = nil
	}
	return &types.Student{ID: uuid.New(), UserID: userID}, nil
}

func (r *fakeStudentRepo) ListCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.courseIDsByUser[userID], nil
}

func (r *fakeStudentRepo) Enroll(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, studentID uuid.UUID) error {
	return nil
}

type fakeGuardianRepo struct {
	wardCourseIDsByUser map[uuid.UUID][]uuid.UUID
}

func newFakeGuardianRepo() *fakeGuardianRepo {
	return &fakeGuardianRepo{wardCourseIDsByUser: map[uuid.UUID][]uuid.UUID{}}
}

func (r *fakeGuardianRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Guardian, error) {
	if _, ok := r.wardCourseIDsByUser[userID]; ok {
		return &types.Guardian{ID: uuid.New(), UserID: userID}, nil
	}
	return nil, nil
}

func (r *fakeGuardianRepo) EnsureByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Guardian, error) {
	if _, ok := r.wardCourseIDsByUser[userID]; !ok {
		r.wardCourseIDsByUser[userID] = nil
	}
	return &types.Guardian{ID: uuid.New(), UserID: userID}, nil
}

func (r *fakeGuardianRepo) ListWardCourseIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.wardCourseIDsByUser[userID], nil
}

func (r *fakeGuardianRepo) LinkStudent(ctx context.Context, tx *gorm.DB, guardianID uuid.UUID, studentID uuid.UUID, relationship string) error {
	return nil
}
