package admin

import (
	"context"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"role-admin/internal/apiserver/roles"
	"role-admin/internal/shared/eventbus"
	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage/memstore"
)

type recordingBus struct {
	eventbus.NoOpEventBus
	events []*eventbus.ModerationEvent
}

func (b *recordingBus) PublishModerationEvent(ctx context.Context, event *eventbus.ModerationEvent) error {
	b.events = append(b.events, event)
	return nil
}

func newTestWorkflow(t *testing.T) (*Workflow, *memstore.Store, *roles.Registry, *recordingBus) {
	t.Helper()
	store := memstore.NewStore()
	registry := roles.NewRegistry(store)
	require.NoError(t, registry.Seed(context.Background()))
	bus := &recordingBus{}
	return NewWorkflow(store, registry, bus), store, registry, bus
}

func seedUser(t *testing.T, store *memstore.Store, registry *roles.Registry, id, name, email, roleName string) *model.User {
	t.Helper()
	role, err := registry.GetByName(context.Background(), roleName)
	require.NoError(t, err)
	now := time.Now()
	user := &model.User{
		ID:        id,
		Name:      name,
		Email:     email,
		RoleID:    role.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func seedPendingRequest(t *testing.T, store *memstore.Store, id, userID string) {
	t.Helper()
	require.NoError(t, store.CreateModeratorRequest(context.Background(), &model.ModeratorRequest{
		ID:        id,
		UserID:    userID,
		Reason:    "let me moderate",
		Status:    model.RequestStatusPending,
		AppliedAt: time.Now(),
	}))
}

func roleName(t *testing.T, registry *roles.Registry, store *memstore.Store, userID string) string {
	t.Helper()
	ctx := context.Background()
	user, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	role, err := registry.Resolve(ctx, user.RoleID)
	require.NoError(t, err)
	return role.Name
}

func TestApprove(t *testing.T) {
	wf, store, registry, bus := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-adm", "Admin", "admin@example.com", model.RoleAdmin)
	seedPendingRequest(t, store, "modreq-1", "usr-1")

	summary, err := wf.Approve(ctx, "modreq-1", "usr-adm", nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, summary.Role)
	assert.Equal(t, model.RoleModerator, roleName(t, registry, store, "usr-1"))

	req, err := store.GetModeratorRequest(ctx, "modreq-1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, req.Status)
	require.NotNil(t, req.ReviewedBy)
	assert.Equal(t, "usr-adm", *req.ReviewedBy)
	assert.NotNil(t, req.ReviewedAt)

	require.Len(t, bus.events, 1)
	assert.Equal(t, eventbus.EventRequestApproved, bus.events[0].Type)
}

func TestApproveExactlyOnce(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-adm", "Admin", "admin@example.com", model.RoleAdmin)
	seedPendingRequest(t, store, "modreq-1", "usr-1")

	_, err := wf.Approve(ctx, "modreq-1", "usr-adm", nil)
	require.NoError(t, err)

	// 第二次审批命中终态，被条件写入拒绝
	_, err = wf.Approve(ctx, "modreq-1", "usr-adm", nil)
	assert.True(t, errdefs.IsFailedPrecondition(err))

	_, err = wf.Reject(ctx, "modreq-1", "usr-adm", "changed my mind")
	assert.True(t, errdefs.IsFailedPrecondition(err))
}

func TestApproveUnknownRequest(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t)

	_, err := wf.Approve(context.Background(), "modreq-missing", "usr-adm", nil)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestApproveDeletedRequester(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedPendingRequest(t, store, "modreq-1", "usr-1")
	require.NoError(t, store.DeleteUser(ctx, "usr-1"))

	_, err := wf.Approve(ctx, "modreq-1", "usr-adm", nil)
	assert.True(t, errdefs.IsNotFound(err))

	// 申请保持 pending，没有半完成的写入
	req, err := store.GetModeratorRequest(ctx, "modreq-1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, req.Status)
}

func TestReject(t *testing.T) {
	wf, store, registry, bus := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedPendingRequest(t, store, "modreq-1", "usr-1")

	req, err := wf.Reject(ctx, "modreq-1", "usr-adm", "not enough history")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, req.Status)
	require.NotNil(t, req.ReviewComments)
	assert.Equal(t, "not enough history", *req.ReviewComments)

	// 驳回不改角色
	assert.Equal(t, model.RoleUser, roleName(t, registry, store, "usr-1"))

	require.Len(t, bus.events, 1)
	assert.Equal(t, eventbus.EventRequestRejected, bus.events[0].Type)
}

func TestRejectRequiresComments(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedPendingRequest(t, store, "modreq-1", "usr-1")

	_, err := wf.Reject(context.Background(), "modreq-1", "usr-adm", "  ")
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestResubmitAfterRejection(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedPendingRequest(t, store, "modreq-1", "usr-1")

	_, err := wf.Reject(ctx, "modreq-1", "usr-adm", "not yet")
	require.NoError(t, err)

	// 终态后允许重新申请（pending 唯一约束只约束 pending）
	err = store.CreateModeratorRequest(ctx, &model.ModeratorRequest{
		ID: "modreq-2", UserID: "usr-1", Reason: "second try",
		Status: model.RequestStatusPending, AppliedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestCreateModerator(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()

	summary, err := wf.CreateModerator(ctx, "New Mod", "Mod@Example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, summary.Role)
	assert.Equal(t, "mod@example.com", summary.Email)

	// 密码以散列存储
	user, err := store.GetUserByEmail(ctx, "mod@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Equal(t, model.RoleModerator, roleName(t, registry, store, user.ID))
}

func TestCreateModeratorValidation(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.CreateModerator(ctx, "", "mod@example.com", "secret123")
	assert.True(t, errdefs.IsInvalidArgument(err))

	_, err = wf.CreateModerator(ctx, "Mod", "mod@example.com", "short")
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestCreateModeratorDuplicateEmail(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "taken@example.com", model.RoleUser)

	_, err := wf.CreateModerator(ctx, "Mod", "taken@example.com", "secret123")
	assert.True(t, errdefs.IsAlreadyExists(err))
}

func TestRemoveModerator(t *testing.T) {
	wf, store, registry, bus := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-mod", "Mod", "mod@example.com", model.RoleModerator)

	summary, err := wf.RemoveModerator(ctx, "usr-mod")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, summary.Role)
	assert.Equal(t, model.RoleUser, roleName(t, registry, store, "usr-mod"))

	require.Len(t, bus.events, 1)
	assert.Equal(t, eventbus.EventModeratorRemoved, bus.events[0].Type)
}

func TestRemoveModeratorNotAModerator(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-adm", "Admin", "admin@example.com", model.RoleAdmin)

	_, err := wf.RemoveModerator(ctx, "usr-1")
	assert.True(t, errdefs.IsFailedPrecondition(err))

	// Admin 不是 Moderator，同样拒绝
	_, err = wf.RemoveModerator(ctx, "usr-adm")
	assert.True(t, errdefs.IsFailedPrecondition(err))

	_, err = wf.RemoveModerator(ctx, "usr-missing")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestRoleLifecycle(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-adm", "Admin", "admin@example.com", model.RoleAdmin)
	seedPendingRequest(t, store, "modreq-1", "usr-1")

	// User → Moderator → User
	_, err := wf.Approve(ctx, "modreq-1", "usr-adm", nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, roleName(t, registry, store, "usr-1"))

	_, err = wf.RemoveModerator(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, roleName(t, registry, store, "usr-1"))
}

func TestListUsers(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun Kumar", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-2", "Beth", "beth@example.com", model.RoleModerator)
	seedUser(t, store, registry, "usr-3", "Carol", "carol@example.com", model.RoleUser)

	page, err := wf.ListUsers(ctx, ListUsersParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)

	// 按角色名过滤
	mods, err := wf.ListUsers(ctx, ListUsersParams{RoleName: model.RoleModerator})
	require.NoError(t, err)
	require.Len(t, mods.Users, 1)
	assert.Equal(t, "Beth", mods.Users[0].Name)

	// 未知角色名 → 空页
	none, err := wf.ListUsers(ctx, ListUsersParams{RoleName: "Ghost"})
	require.NoError(t, err)
	assert.Empty(t, none.Users)

	// 大小写不敏感搜索
	found, err := wf.ListUsers(ctx, ListUsersParams{Search: "kumar"})
	require.NoError(t, err)
	require.Len(t, found.Users, 1)
	assert.Equal(t, "usr-1", found.Users[0].ID)
}

func TestListModerators(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-2", "Beth", "beth@example.com", model.RoleModerator)

	page, err := wf.ListModerators(ctx, ListUsersParams{})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, model.RoleModerator, page.Users[0].Role)
}

func TestDeleteUser(t *testing.T) {
	wf, store, registry, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedUser(t, store, registry, "usr-1", "Arun", "arun@example.com", model.RoleUser)
	seedUser(t, store, registry, "usr-adm", "Admin", "admin@example.com", model.RoleAdmin)

	// 禁止自删
	err := wf.DeleteUser(ctx, "usr-adm", "usr-adm")
	assert.True(t, errdefs.IsInvalidArgument(err))

	require.NoError(t, wf.DeleteUser(ctx, "usr-adm", "usr-1"))

	user, err := store.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Nil(t, user)

	err = wf.DeleteUser(ctx, "usr-adm", "usr-1")
	assert.True(t, errdefs.IsNotFound(err))
}
