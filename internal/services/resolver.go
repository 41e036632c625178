package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/schoolping/schoolping-backend/internal/caller"
)

// Topic kinds for course-scoped channels.
const (
	TopicKindNotification = "notification"
	TopicKindAttendance   = "attendance"
	TopicKindGrade        = "grade"
)

// Facts are the relationship inputs to topic resolution, fetched fresh
// from the store at resolution time.
type Facts struct {
	StaffCourseIDs   []uuid.UUID
	StudentCourseIDs []uuid.UUID
	WardCourseIDs    []uuid.UUID
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// RoleTopicSlug is the single normalization point for role-derived slugs.
// Both automatic resolution and role-audience publishing go through it so
// "School Admin" and "school admin" can never drift into distinct topics.
func RoleTopicSlug(role string) string {
	role = normalizeRole(role)
	if role == "" {
		return ""
	}
	return "school:role:" + role
}

func CourseTopicSlug(courseID uuid.UUID, kind string) string {
	return fmt.Sprintf("course:%s:%s", courseID, kind)
}

// NormalizeTopicKind maps an arbitrary message type onto a known course
// topic kind, falling back to notification.
func NormalizeTopicKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case TopicKindAttendance:
		return TopicKindAttendance
	case TopicKindGrade:
		return TopicKindGrade
	default:
		return TopicKindNotification
	}
}

// ResolveTopicSlugs computes the complete topic set for an identity from
// its role and relationship facts. Pure and deterministic: the result is
// sorted and deduplicated. An identity with no relationships gets just the
// role topic; a blank role yields an empty set.
func ResolveTopicSlugs(role string, facts Facts) []string {
	set := map[string]struct{}{}

	roleSlug := RoleTopicSlug(role)
	if roleSlug != "" {
		set[roleSlug] = struct{}{}
	}

	switch normalizeRole(role) {
	case normalizeRole(caller.RoleSchoolAdmin), normalizeRole(caller.RoleSchoolStaff):
		for _, courseID := range facts.StaffCourseIDs {
			set[CourseTopicSlug(courseID, TopicKindNotification)] = struct{}{}
		}
	case normalizeRole(caller.RoleStudent):
		for _, courseID := range facts.StudentCourseIDs {
			set[CourseTopicSlug(courseID, TopicKindNotification)] = struct{}{}
		}
	case normalizeRole(caller.RoleGuardian):
		// Guardians watch the full audience set for every ward course,
		// whatever the message type.
		for _, courseID := range facts.WardCourseIDs {
			set[CourseTopicSlug(courseID, TopicKindNotification)] = struct{}{}
			set[CourseTopicSlug(courseID, TopicKindAttendance)] = struct{}{}
			set[CourseTopicSlug(courseID, TopicKindGrade)] = struct{}{}
		}
	}

	slugs := make([]string, 0, len(set))
	for slug := range set {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
