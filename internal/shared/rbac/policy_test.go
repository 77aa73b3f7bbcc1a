package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-backend/internal/shared/apperror"
)

func TestVisibilityScope(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  Scope
	}{
		{
			name:  "admin sees everything",
			actor: Actor{Username: "root", Role: RoleAdmin},
			want:  Scope{All: true},
		},
		{
			name:  "warehouse manager sees everything",
			actor: Actor{Username: "wh", Role: RoleWarehouseManager},
			want:  Scope{All: true},
		},
		{
			name:  "teacher sees own plus regular users",
			actor: Actor{Username: "prof", Role: RoleTeacher},
			want:  Scope{Username: "prof", OwnerRole: RoleRegularUser},
		},
		{
			name:  "regular user sees own only",
			actor: Actor{Username: "bob", Role: RoleRegularUser},
			want:  Scope{Username: "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibilityScope(tt.actor))
		})
	}
}

func TestScopeAllows(t *testing.T) {
	teacher := VisibilityScope(Actor{Username: "prof", Role: RoleTeacher})

	assert.True(t, teacher.Allows("prof", RoleTeacher), "own order")
	assert.True(t, teacher.Allows("bob", RoleRegularUser), "regular user's order")
	assert.False(t, teacher.Allows("other-prof", RoleTeacher), "another teacher's order")
	assert.False(t, teacher.Allows("wh", RoleWarehouseManager), "warehouse manager's order")

	regular := VisibilityScope(Actor{Username: "bob", Role: RoleRegularUser})
	assert.True(t, regular.Allows("bob", RoleRegularUser))
	assert.False(t, regular.Allows("alice", RoleRegularUser), "another regular user's order")
}

func TestCanAccessOrder(t *testing.T) {
	bob := Actor{Username: "bob", Role: RoleRegularUser}

	require.NoError(t, CanAccessOrder(bob, "bob", RoleRegularUser))

	err := CanAccessOrder(bob, "alice", RoleRegularUser)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestCanMutateOrder(t *testing.T) {
	tests := []struct {
		name        string
		actor       Actor
		orderPerson string
		ownerRole   string
		status      string
		wantKind    apperror.Kind
		wantErr     bool
	}{
		{
			name:        "owner can modify pending",
			actor:       Actor{Username: "bob", Role: RoleRegularUser},
			orderPerson: "bob",
			ownerRole:   RoleRegularUser,
			status:      "pending",
		},
		{
			name:        "owner cannot modify approved",
			actor:       Actor{Username: "bob", Role: RoleRegularUser},
			orderPerson: "bob",
			ownerRole:   RoleRegularUser,
			status:      "approved",
			wantErr:     true,
			wantKind:    apperror.KindInvalidState,
		},
		{
			name:        "stranger cannot modify at all",
			actor:       Actor{Username: "bob", Role: RoleRegularUser},
			orderPerson: "alice",
			ownerRole:   RoleRegularUser,
			status:      "pending",
			wantErr:     true,
			wantKind:    apperror.KindPermissionDenied,
		},
		{
			name:        "admin bypasses status restriction",
			actor:       Actor{Username: "root", Role: RoleAdmin},
			orderPerson: "alice",
			ownerRole:   RoleRegularUser,
			status:      "arrived",
		},
		{
			name:        "teacher can modify regular user's pending order",
			actor:       Actor{Username: "prof", Role: RoleTeacher},
			orderPerson: "bob",
			ownerRole:   RoleRegularUser,
			status:      "pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutateOrder(tt.actor, tt.orderPerson, tt.ownerRole, tt.status)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsKind(err, tt.wantKind))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	admin := Actor{Username: "root", Role: RoleAdmin}
	bob := Actor{Username: "bob", Role: RoleRegularUser}

	assert.NoError(t, RequireRole(admin, RoleAdmin, RoleWarehouseManager))

	err := RequireRole(bob, RoleAdmin, RoleWarehouseManager)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestIsValidRole(t *testing.T) {
	for _, role := range ValidRoles {
		assert.True(t, IsValidRole(role))
	}
	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
}
