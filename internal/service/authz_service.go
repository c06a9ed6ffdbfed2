package service

import (
	"context"
	"errors"
	"sort"

	"fieldops/internal/model"
	"fieldops/internal/repository"
	"fieldops/internal/workflow"
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActorView is what authorization needs to know about a user: the assigned
// role, the active flag, and both permission sources.
type ActorView struct {
	ID              uuid.UUID
	Role            string // role name, empty for legacy accounts without a role
	Active          bool
	RolePermissions []string
	UserPermissions []string
}

// ActorDirectory fetches actors fresh per call. Roles and grants change
// between requests, so implementations must not cache.
type ActorDirectory interface {
	FetchActor(ctx context.Context, userID string) (*ActorView, error)
}

// AuthzService is the permission resolver: effective permissions are the
// union of the role's set and the individual grants. HasAnyPermission uses OR
// semantics (possessing any one required code is sufficient) and the admin
// role passes unconditionally; HasRole is the coarser role-literal gate. The
// two primitives are deliberately separate.
type AuthzService interface {
	Resolve(ctx context.Context, userID string) ([]string, error)
	HasAnyPermission(ctx context.Context, userID string, codes ...string) (bool, error)
	HasRole(ctx context.Context, userID string, roles ...string) (bool, error)
	Actor(ctx context.Context, userID string) (*ActorView, error)
}

type authzService struct {
	dir ActorDirectory
}

func NewAuthzService(dir ActorDirectory) AuthzService {
	return &authzService{dir: dir}
}

func (s *authzService) Actor(ctx context.Context, userID string) (*ActorView, error) {
	return s.dir.FetchActor(ctx, userID)
}

func (s *authzService) Resolve(ctx context.Context, userID string) ([]string, error) {
	actor, err := s.dir.FetchActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return unionPermissions(actor.RolePermissions, actor.UserPermissions), nil
}

func (s *authzService) HasAnyPermission(ctx context.Context, userID string, codes ...string) (bool, error) {
	actor, err := s.dir.FetchActor(ctx, userID)
	if err != nil {
		return false, err
	}
	return actorHasAnyPermission(actor, codes...), nil
}

func (s *authzService) HasRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	actor, err := s.dir.FetchActor(ctx, userID)
	if err != nil {
		return false, err
	}
	return actorHasRole(actor, roles...), nil
}

// unionPermissions deduplicates role and individual grants into a sorted set.
func unionPermissions(rolePerms, userPerms []string) []string {
	set := make(map[string]struct{}, len(rolePerms)+len(userPerms))
	for _, p := range rolePerms {
		set[p] = struct{}{}
	}
	for _, p := range userPerms {
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func actorHasAnyPermission(actor *ActorView, codes ...string) bool {
	if !actor.Active {
		return false
	}
	if actor.Role == workflow.RoleAdmin {
		return true
	}
	set := make(map[string]struct{})
	for _, p := range actor.RolePermissions {
		set[p] = struct{}{}
	}
	for _, p := range actor.UserPermissions {
		set[p] = struct{}{}
	}
	for _, required := range codes {
		if _, ok := set[required]; ok {
			return true
		}
	}
	return false
}

func actorHasRole(actor *ActorView, roles ...string) bool {
	if !actor.Active {
		return false
	}
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// gormDirectory backs the resolver with the user repository; every fetch hits
// the database so role and grant changes take effect on the next request.
type gormDirectory struct {
	users repository.UserRepository
}

func NewActorDirectory(users repository.UserRepository) ActorDirectory {
	return &gormDirectory{users: users}
}

func (d *gormDirectory) FetchActor(ctx context.Context, userID string) (*ActorView, error) {
	user, err := d.users.GetByIDWithGrants(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, err
	}

	view := &ActorView{
		ID:              user.ID,
		Role:            user.RoleName(),
		Active:          user.Active,
		RolePermissions: permissionCodes(rolePermissions(user)),
		UserPermissions: permissionCodes(user.Permissions),
	}
	return view, nil
}

func rolePermissions(user *model.User) []model.Permission {
	if user.Role == nil {
		return nil
	}
	return user.Role.Permissions
}

func permissionCodes(perms []model.Permission) []string {
	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, p.Code)
	}
	return codes
}
