package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRequestStatus(t *testing.T) {
	tests := []struct {
		status RequestStatus
		want   string
	}{
		{RequestStatusPending, "pending"},
		{RequestStatusApproved, "approved"},
		{RequestStatusRejected, "rejected"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("RequestStatus = %v, want %v", tt.status, tt.want)
		}
		if !tt.status.Valid() {
			t.Errorf("RequestStatus(%v).Valid() = false, want true", tt.status)
		}
	}

	if RequestStatus("cancelled").Valid() {
		t.Error("Valid() = true for unknown status")
	}
}

func TestRequestStatusTerminal(t *testing.T) {
	if RequestStatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if !RequestStatusApproved.Terminal() || !RequestStatusRejected.Terminal() {
		t.Error("approved/rejected should be terminal")
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := &User{
		ID:           "usr-001",
		Name:         "Arun",
		Email:        "arun@example.com",
		PasswordHash: "$2a$12$secret",
		RoleID:       "role-user",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Failed to marshal user: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password hash leaked in JSON: %s", data)
	}
	if !strings.Contains(string(data), "arun@example.com") {
		t.Errorf("email missing in JSON: %s", data)
	}
}

func TestSeededRoles(t *testing.T) {
	roles := SeededRoles()
	if len(roles) != 3 {
		t.Fatalf("SeededRoles() len = %d, want 3", len(roles))
	}

	names := map[string]bool{}
	for _, r := range roles {
		names[r.Name] = true
		if len(r.Permissions) == 0 {
			t.Errorf("role %s has no permissions", r.Name)
		}
	}
	for _, want := range []string{RoleAdmin, RoleModerator, RoleUser} {
		if !names[want] {
			t.Errorf("seeded roles missing %s", want)
		}
	}
}

func TestModeratorRequestJSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	reviewer := "usr-admin"
	comments := "looks good"
	req := &ModeratorRequest{
		ID:             "modreq-001",
		UserID:         "usr-001",
		Reason:         "active community member",
		Status:         RequestStatusApproved,
		AppliedAt:      now,
		ReviewedAt:     &now,
		ReviewedBy:     &reviewer,
		ReviewComments: &comments,
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	var decoded ModeratorRequest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal request: %v", err)
	}

	if decoded.ID != req.ID || decoded.UserID != req.UserID {
		t.Errorf("decoded = %+v, want %+v", decoded, req)
	}
	if decoded.Status != RequestStatusApproved {
		t.Errorf("Status = %v, want approved", decoded.Status)
	}
	if decoded.ReviewedBy == nil || *decoded.ReviewedBy != reviewer {
		t.Errorf("ReviewedBy = %v, want %s", decoded.ReviewedBy, reviewer)
	}
}
