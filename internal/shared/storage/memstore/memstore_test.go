package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

func TestDuplicatePendingRequest(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &model.ModeratorRequest{ID: "modreq-001", UserID: "usr-001", Reason: "r", Status: model.RequestStatusPending, AppliedAt: time.Now()}
	if err := s.CreateModeratorRequest(ctx, first); err != nil {
		t.Fatalf("CreateModeratorRequest: %v", err)
	}

	second := &model.ModeratorRequest{ID: "modreq-002", UserID: "usr-001", Reason: "r2", Status: model.RequestStatusPending, AppliedAt: time.Now()}
	if err := s.CreateModeratorRequest(ctx, second); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate pending = %v, want ErrDuplicate", err)
	}

	// 审核后可再次提交
	if err := s.ReviewModeratorRequest(ctx, "modreq-001", model.RequestStatusRejected, "usr-admin", nil, time.Now()); err != nil {
		t.Fatalf("ReviewModeratorRequest: %v", err)
	}
	if err := s.CreateModeratorRequest(ctx, second); err != nil {
		t.Errorf("resubmit after rejection = %v, want nil", err)
	}
}

func TestReviewSemantics(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.ReviewModeratorRequest(ctx, "modreq-404", model.RequestStatusApproved, "usr-admin", nil, time.Now()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("review missing = %v, want ErrNotFound", err)
	}

	req := &model.ModeratorRequest{ID: "modreq-001", UserID: "usr-001", Reason: "r", Status: model.RequestStatusPending, AppliedAt: time.Now()}
	s.CreateModeratorRequest(ctx, req)

	comments := "no"
	if err := s.ReviewModeratorRequest(ctx, "modreq-001", model.RequestStatusRejected, "usr-admin", &comments, time.Now()); err != nil {
		t.Fatalf("ReviewModeratorRequest: %v", err)
	}
	if err := s.ReviewModeratorRequest(ctx, "modreq-001", model.RequestStatusApproved, "usr-admin", nil, time.Now()); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("review terminal = %v, want ErrConflict", err)
	}

	got, _ := s.GetModeratorRequest(ctx, "modreq-001")
	if got.Status != model.RequestStatusRejected {
		t.Errorf("Status = %v, want rejected (terminal state immutable)", got.Status)
	}
	if got.ReviewComments == nil || *got.ReviewComments != "no" {
		t.Errorf("ReviewComments = %v, want %q", got.ReviewComments, "no")
	}
}

func TestListOrderingAndPagination(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"modreq-001", "modreq-002", "modreq-003", "modreq-004"}
	for i, id := range ids {
		req := &model.ModeratorRequest{
			ID:        id,
			UserID:    "usr-00" + string(rune('1'+i)),
			Reason:    "r",
			Status:    model.RequestStatusPending,
			AppliedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateModeratorRequest(ctx, req); err != nil {
			t.Fatalf("CreateModeratorRequest: %v", err)
		}
	}

	reqs, total, err := s.ListModeratorRequests(ctx, storage.RequestFilter{Page: 1, Limit: 3})
	if err != nil {
		t.Fatalf("ListModeratorRequests: %v", err)
	}
	if total != 4 || len(reqs) != 3 {
		t.Fatalf("total = %d, len = %d, want 4, 3", total, len(reqs))
	}
	if reqs[0].ID != "modreq-004" {
		t.Errorf("first = %s, want modreq-004 (newest first)", reqs[0].ID)
	}

	reqs, _, _ = s.ListModeratorRequests(ctx, storage.RequestFilter{Page: 2, Limit: 3})
	if len(reqs) != 1 || reqs[0].ID != "modreq-001" {
		t.Errorf("page 2 = %v, want [modreq-001]", reqs)
	}
}

func TestUserEmailUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u1 := &model.User{ID: "usr-001", Email: "a@example.com", RoleID: "role-user"}
	u2 := &model.User{ID: "usr-002", Email: "b@example.com", RoleID: "role-user"}
	s.CreateUser(ctx, u1)
	s.CreateUser(ctx, u2)

	dup := &model.User{ID: "usr-003", Email: "a@example.com", RoleID: "role-user"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email = %v, want ErrDuplicate", err)
	}

	// 改邮箱撞到他人邮箱
	email := "a@example.com"
	if err := s.UpdateUserProfile(ctx, "usr-002", nil, &email); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("profile email collision = %v, want ErrDuplicate", err)
	}
	// 改回自己的邮箱不算冲突
	own := "b@example.com"
	if err := s.UpdateUserProfile(ctx, "usr-002", nil, &own); err != nil {
		t.Errorf("self email update = %v, want nil", err)
	}
}
