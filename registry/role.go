package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

// RoleRegistry owns Role definitions. Roles are immutable once registered.
type RoleRegistry struct {
	mu     sync.RWMutex
	roles  map[string]*types.Role
	order  []string
	logger *zap.Logger
}

// NewRoleRegistry creates an empty role registry.
func NewRoleRegistry(logger *zap.Logger) *RoleRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleRegistry{
		roles:  make(map[string]*types.Role),
		logger: logger.With(zap.String("component", "role_registry")),
	}
}

// Register adds a role definition. Registering an existing ID is an error;
// roles never change after registration.
func (r *RoleRegistry) Register(role *types.Role) error {
	if role == nil || role.ID == "" {
		return types.NewError(types.ErrEmptyInput, "role is nil or has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roles[role.ID]; exists {
		return types.NewError(types.ErrInvalidTransition, "role %s already registered", role.ID)
	}
	r.roles[role.ID] = role.Clone()
	r.order = append(r.order, role.ID)

	r.logger.Info("role registered",
		zap.String("role_id", role.ID),
		zap.String("name", role.Name),
	)
	return nil
}

// Get retrieves a copy of a role definition.
func (r *RoleRegistry) Get(roleID string) (*types.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, exists := r.roles[roleID]
	if !exists {
		return nil, types.NewError(types.ErrNotFound, "role %s not found", roleID)
	}
	return role.Clone(), nil
}

// List returns copies of all roles in registration order.
func (r *RoleRegistry) List() []*types.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]*types.Role, 0, len(r.order))
	for _, id := range r.order {
		roles = append(roles, r.roles[id].Clone())
	}
	return roles
}

// Resolve maps role IDs to role definitions, skipping unknown IDs with a
// warning. Team formation treats missing roles as a soft condition.
func (r *RoleRegistry) Resolve(roleIDs []string) []*types.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make([]*types.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		role, exists := r.roles[id]
		if !exists {
			r.logger.Warn("unknown role skipped", zap.String("role_id", id))
			continue
		}
		resolved = append(resolved, role.Clone())
	}
	return resolved
}
