package service

import (
	"context"
	"errors"
	"fmt"

	"fieldops/internal/model"
	"fieldops/internal/permission"
	"fieldops/internal/repository"
	"fieldops/internal/workflow"
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Catalog codes
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"` // Catalog codes
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
	Area  string `json:"area"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	SyncCatalog(ctx context.Context) error
	SeedBuiltinRoles(ctx context.Context) error
}

type roleService struct {
	db    *gorm.DB
	users repository.UserRepository
}

func NewRoleService(db *gorm.DB, users repository.UserRepository) RoleService {
	return &roleService{db: db, users: users}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	var roles []model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id: %v", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role %s not found", id)
		}
		return nil, err
	}

	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if !permission.Valid(req.Permissions...) {
		return nil, apperr.Validation("request contains permission codes not present in the catalog")
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Role
		if err := tx.Where("name = ?", req.Name).First(&existing).Error; err == nil {
			return apperr.Conflict("role name %q is already in use", req.Name)
		}

		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		if len(req.Permissions) > 0 {
			var perms []model.Permission
			if err := tx.Where("code IN ?", req.Permissions).Find(&perms).Error; err != nil {
				return fmt.Errorf("failed to fetch permissions: %w", err)
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id: %v", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role %s not found", id)
		}
		return nil, err
	}

	if req.Name != role.Name {
		var clash model.Role
		if err := s.db.WithContext(ctx).Where("name = ? AND id <> ?", req.Name, roleID).First(&clash).Error; err == nil {
			return nil, apperr.Conflict("role name %q is already in use", req.Name)
		}
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.db.WithContext(ctx).Save(&role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid role id: %v", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("role %s not found", id)
		}
		return err
	}

	if role.IsSystem {
		return apperr.Conflict("cannot delete system role %q", role.Name)
	}

	inUse, err := s.users.CountByRole(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check role usage: %w", err)
	}
	if inUse > 0 {
		return apperr.Conflict("role %q is assigned to %d user(s) and cannot be deleted", role.Name, inUse)
	}

	if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Clear(); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&role).Error; err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	var perms []model.Permission
	if err := s.db.WithContext(ctx).Order("area ASC, code ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, apperr.Validation("invalid role id: %v", err)
	}
	if !permission.Valid(req.Permissions...) {
		return nil, apperr.Validation("request contains permission codes not present in the catalog")
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role %s not found", roleID)
		}
		return nil, err
	}

	var perms []model.Permission
	if len(req.Permissions) > 0 {
		if err := s.db.WithContext(ctx).Where("code IN ?", req.Permissions).Find(&perms).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch permissions: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	return s.GetRole(ctx, roleID)
}

// SyncCatalog reconciles persisted permission rows with the static catalog:
// missing rows are inserted, labels and descriptions are refreshed. Rows are
// never upserted as a side effect of other writes; this is the one
// synchronization point, run at startup.
func (s *roleService) SyncCatalog(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range permission.Catalog() {
			var existing model.Permission
			err := tx.Where("code = ?", def.Code).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				row := model.Permission{
					Code:        def.Code,
					Label:       def.Label,
					Description: def.Description,
					Area:        def.Area,
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to sync permission %q: %w", def.Code, err)
				}
				continue
			}
			if err != nil {
				return err
			}
			if existing.Label != def.Label || existing.Description != def.Description || existing.Area != def.Area {
				existing.Label = def.Label
				existing.Description = def.Description
				existing.Area = def.Area
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("failed to refresh permission %q: %w", def.Code, err)
				}
			}
		}
		return nil
	})
}

// SeedBuiltinRoles creates the built-in roles if absent. Their permission
// sets are reasserted on every startup; custom roles are left untouched.
func (s *roleService) SeedBuiltinRoles(ctx context.Context) error {
	builtins := []struct {
		Name        string
		Description string
		PermCodes   []string
	}{
		{
			Name:        workflow.RoleAdmin,
			Description: "Administrator with unconditional access to every operation",
			PermCodes:   allCatalogCodes(),
		},
		{
			Name:        workflow.RoleManager,
			Description: "Approves orders, issues financial documents and manages records",
			PermCodes: []string{
				permission.UsersRead, permission.UsersWrite,
				permission.ClientsRead, permission.ClientsWrite,
				permission.VisitsRead, permission.VisitsWrite,
				permission.OrdersRead, permission.OrdersWrite,
				permission.OrdersApprove, permission.OrdersCancel,
				permission.PurchaseOrdersWrite, permission.InvoicesWrite,
				permission.DeliveriesWrite,
				permission.ExpensesRead, permission.ExpensesWrite,
				permission.InventoryRead, permission.InventoryWrite,
				permission.HRRead, permission.AuditRead,
			},
		},
		{
			Name:        workflow.RoleTechnician,
			Description: "Executes orders, registers visits and deliveries",
			PermCodes: []string{
				permission.ClientsRead,
				permission.VisitsRead, permission.VisitsWrite,
				permission.OrdersRead, permission.OrdersWrite,
				permission.DeliveriesWrite,
				permission.InventoryRead,
			},
		},
	}

	for _, def := range builtins {
		var role model.Role
		result := s.db.WithContext(ctx).Where("name = ?", def.Name).First(&role)
		if result.Error != nil {
			role = model.Role{
				Name:        def.Name,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role %q: %w", def.Name, err)
			}
		}

		var perms []model.Permission
		if err := s.db.WithContext(ctx).Where("code IN ?", def.PermCodes).Find(&perms).Error; err != nil {
			return fmt.Errorf("failed to fetch permissions for role %q: %w", def.Name, err)
		}
		if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role %q: %w", def.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

func allCatalogCodes() []string {
	defs := permission.Catalog()
	codes := make([]string, 0, len(defs))
	for _, d := range defs {
		codes = append(codes, d.Code)
	}
	return codes
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Label: p.Label,
		Area:  p.Area,
	}
}
