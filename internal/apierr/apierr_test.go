package apierr

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestUpstreamHidesCauseFromClients(t *testing.T) {
	cause := errors.New("AuthorizationError: arn:aws:sns:us-east-1:123456789012:course-x not authorized")
	err := Upstream("publish", cause)

	if got := MessageOf(err); got != "publish failed" {
		t.Fatalf("client message: want=%q got=%q", "publish failed", got)
	}
	if strings.Contains(MessageOf(err), "123456789012") {
		t.Fatalf("client message leaks provider detail: %q", MessageOf(err))
	}
	// The cause stays reachable for logs and errors.Is chains.
	if !strings.Contains(err.Error(), "123456789012") {
		t.Fatalf("log text lost the cause: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped")
	}
}

func TestMessageOfConstructors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Validation("platform"), "missing or invalid platform"},
		{Unauthenticated(), "unauthenticated"},
		{Forbidden(), "forbidden"},
		{NotFound("device"), "device not found"},
		{Precondition("device has no endpoint"), "device has no endpoint"},
		{errors.New("pq: duplicate key value violates unique constraint"), "internal error"},
		{nil, "internal error"},
	}
	for _, tc := range cases {
		if got := MessageOf(tc.err); got != tc.want {
			t.Fatalf("MessageOf(%v): want=%q got=%q", tc.err, tc.want, got)
		}
	}
}

func TestStatusAndCodeMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Validation("x"), http.StatusBadRequest, CodeValidation},
		{Unauthenticated(), http.StatusUnauthorized, CodeUnauthenticated},
		{Forbidden(), http.StatusForbidden, CodeForbidden},
		{NotFound("x"), http.StatusNotFound, CodeNotFound},
		{Precondition("x"), http.StatusUnprocessableEntity, CodePrecondition},
		{Upstream("x", errors.New("boom")), http.StatusBadGateway, CodeUpstream},
		{errors.New("plain"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.status {
			t.Fatalf("StatusOf(%v): want=%d got=%d", tc.err, tc.status, got)
		}
		if got := CodeOf(tc.err); got != tc.code {
			t.Fatalf("CodeOf(%v): want=%q got=%q", tc.err, tc.code, got)
		}
	}
}
