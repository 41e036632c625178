package caller

import (
	"context"

	"github.com/google/uuid"
)

// Role names as stored in the roles table. These double as display text;
// topic slugs always go through services.RoleTopicSlug, never raw names.
const (
	RoleSchoolAdmin = "School Admin"
	RoleSchoolStaff = "School Staff"
	RoleStudent     = "Student"
	RoleGuardian    = "Guardian"
)

// Context identifies the authenticated caller of a registrar or publish
// operation. It is passed explicitly into services instead of being read
// from shared request state.
type Context struct {
	UserID uuid.UUID
	Role   string
}

func (c Context) Valid() bool {
	return c.UserID != uuid.Nil
}

// Elevated reports whether the caller may address devices it does not own.
func (c Context) Elevated() bool {
	return c.Role == RoleSchoolAdmin || c.Role == RoleSchoolStaff
}

func (c Context) IsAdmin() bool {
	return c.Role == RoleSchoolAdmin
}

type contextKey struct{}

var callerKey contextKey

func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

func FromContext(ctx context.Context) (Context, bool) {
	val := ctx.Value(callerKey)
	if c, ok := val.(Context); ok && c.Valid() {
		return c, true
	}
	return Context{}, false
}
