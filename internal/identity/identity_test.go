package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		ownerID string
		want    bool
	}{
		{"admin edits any lesson", Actor{ID: "admin-1", Role: RoleAdmin}, "user-2", true},
		{"admin edits own lesson", Actor{ID: "admin-1", Role: RoleAdmin}, "admin-1", true},
		{"methodologist edits own lesson", Actor{ID: "user-1", Role: RoleMethodologist}, "user-1", true},
		{"methodologist cannot edit others", Actor{ID: "user-2", Role: RoleMethodologist}, "user-1", false},
		{"student cannot edit own", Actor{ID: "user-1", Role: RoleStudent}, "user-1", false},
		{"student cannot edit others", Actor{ID: "user-1", Role: RoleStudent}, "user-2", false},
		{"empty role cannot edit", Actor{ID: "user-1"}, "user-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEdit(tt.actor, tt.ownerID))
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "methodologist", "student"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "Admin", "teacher", "root"} {
		_, err := ParseRole(invalid)
		assert.Error(t, err, "expected error for %q", invalid)
	}
}

func TestStaticProvider(t *testing.T) {
	p := StaticProvider{Actor: Actor{ID: "user-1", Role: RoleMethodologist}}
	actor, err := p.Current(t.Context())
	assert.NoError(t, err)
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, RoleMethodologist, actor.Role)
}
