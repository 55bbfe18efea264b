package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/types"
)

func TestRoleRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRoleRegistry(zap.NewNop())
	role := &types.Role{ID: "reviewer", Name: "Reviewer", RequiredCapabilities: []string{"review"}, Priority: 5}
	require.NoError(t, reg.Register(role))

	got, err := reg.Get("reviewer")
	require.NoError(t, err)
	assert.Equal(t, "Reviewer", got.Name)

	// Registered roles are immutable: mutating the input or the returned
	// copy must not affect the registry.
	role.Name = "changed"
	got.RequiredCapabilities[0] = "changed"
	again, err := reg.Get("reviewer")
	require.NoError(t, err)
	assert.Equal(t, "Reviewer", again.Name)
	assert.Equal(t, "review", again.RequiredCapabilities[0])
}

func TestRoleRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRoleRegistry(zap.NewNop())
	require.NoError(t, reg.Register(&types.Role{ID: "r1"}))
	err := reg.Register(&types.Role{ID: "r1"})
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))
}

func TestRoleRegistry_GetUnknown(t *testing.T) {
	reg := NewRoleRegistry(zap.NewNop())
	_, err := reg.Get("ghost")
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestRoleRegistry_Resolve_SkipsUnknown(t *testing.T) {
	reg := NewRoleRegistry(zap.NewNop())
	require.NoError(t, reg.Register(&types.Role{ID: "r1", Priority: 1}))
	require.NoError(t, reg.Register(&types.Role{ID: "r2", Priority: 2}))

	resolved := reg.Resolve([]string{"r1", "ghost", "r2"})
	require.Len(t, resolved, 2)
	assert.Equal(t, "r1", resolved[0].ID)
	assert.Equal(t, "r2", resolved[1].ID)
}

func TestRoleRegistry_List(t *testing.T) {
	reg := NewRoleRegistry(zap.NewNop())
	require.NoError(t, reg.Register(&types.Role{ID: "b"}))
	require.NoError(t, reg.Register(&types.Role{ID: "a"}))

	roles := reg.List()
	require.Len(t, roles, 2)
	assert.Equal(t, "b", roles[0].ID, "list preserves registration order")
}
