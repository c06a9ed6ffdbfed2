package service

import (
	"context"
	"testing"

	"fieldops/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory serves actors from memory so the resolver's semantics can be
// tested without a database.
type fakeDirectory struct {
	actors map[string]*ActorView
	calls  int
}

func (f *fakeDirectory) FetchActor(ctx context.Context, userID string) (*ActorView, error) {
	f.calls++
	actor, ok := f.actors[userID]
	if !ok {
		return nil, context.Canceled
	}
	return actor, nil
}

func newFakeDirectory(actors ...*ActorView) *fakeDirectory {
	dir := &fakeDirectory{actors: make(map[string]*ActorView)}
	for _, a := range actors {
		dir.actors[a.ID.String()] = a
	}
	return dir
}

func TestResolveUnionsRoleAndGrants(t *testing.T) {
	actor := &ActorView{
		ID:              uuid.New(),
		Role:            workflow.RoleTechnician,
		Active:          true,
		RolePermissions: []string{"orders:read", "orders:write"},
		UserPermissions: []string{"orders:approve", "orders:read"},
	}
	svc := NewAuthzService(newFakeDirectory(actor))

	perms, err := svc.Resolve(context.Background(), actor.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders:approve", "orders:read", "orders:write"}, perms)
}

func TestHasAnyPermissionOrSemantics(t *testing.T) {
	actor := &ActorView{
		ID:              uuid.New(),
		Role:            workflow.RoleTechnician,
		Active:          true,
		RolePermissions: []string{"orders:read"},
		UserPermissions: []string{"visits:write"},
	}
	svc := NewAuthzService(newFakeDirectory(actor))
	ctx := context.Background()

	// Any one match is enough.
	ok, err := svc.HasAnyPermission(ctx, actor.ID.String(), "orders:approve", "visits:write")
	require.NoError(t, err)
	assert.True(t, ok)

	// Grant source does not matter.
	ok, err = svc.HasAnyPermission(ctx, actor.ID.String(), "orders:read")
	require.NoError(t, err)
	assert.True(t, ok)

	// No match at all.
	ok, err = svc.HasAnyPermission(ctx, actor.ID.String(), "users:delete", "roles:manage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminBypassesPermissionChecks(t *testing.T) {
	actor := &ActorView{
		ID:     uuid.New(),
		Role:   workflow.RoleAdmin,
		Active: true,
		// Deliberately no permissions: the role alone is sufficient.
	}
	svc := NewAuthzService(newFakeDirectory(actor))

	ok, err := svc.HasAnyPermission(context.Background(), actor.ID.String(), "anything:at-all")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInactiveUserFailsAllChecks(t *testing.T) {
	actor := &ActorView{
		ID:              uuid.New(),
		Role:            workflow.RoleAdmin,
		Active:          false,
		RolePermissions: []string{"orders:read"},
	}
	svc := NewAuthzService(newFakeDirectory(actor))
	ctx := context.Background()

	ok, err := svc.HasAnyPermission(ctx, actor.ID.String(), "orders:read")
	require.NoError(t, err)
	assert.False(t, ok, "inactive user must fail permission checks even as admin")

	ok, err = svc.HasRole(ctx, actor.ID.String(), workflow.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok, "inactive user must fail role checks")
}

func TestHasRoleIsLiteral(t *testing.T) {
	actor := &ActorView{
		ID:     uuid.New(),
		Role:   workflow.RoleManager,
		Active: true,
	}
	svc := NewAuthzService(newFakeDirectory(actor))
	ctx := context.Background()

	ok, err := svc.HasRole(ctx, actor.ID.String(), workflow.RoleManager, workflow.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	// HasRole does not expand permissions; a manager is not an admin.
	ok, err = svc.HasRole(ctx, actor.ID.String(), workflow.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolverFetchesFreshPerCall(t *testing.T) {
	actor := &ActorView{
		ID:              uuid.New(),
		Role:            workflow.RoleTechnician,
		Active:          true,
		RolePermissions: []string{"orders:read"},
	}
	dir := newFakeDirectory(actor)
	svc := NewAuthzService(dir)
	ctx := context.Background()

	_, err := svc.HasAnyPermission(ctx, actor.ID.String(), "orders:read")
	require.NoError(t, err)

	// Revoke the permission; the very next check must see it.
	actor.RolePermissions = nil
	ok, err := svc.HasAnyPermission(ctx, actor.ID.String(), "orders:read")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, dir.calls, "every check must hit the directory")
}

func TestUnionPermissionsEdgeCases(t *testing.T) {
	assert.Empty(t, unionPermissions(nil, nil))
	assert.Equal(t, []string{"a"}, unionPermissions([]string{"a"}, []string{"a"}))
	assert.Equal(t, []string{"a", "b", "c"}, unionPermissions([]string{"b", "a"}, []string{"c"}))
}
