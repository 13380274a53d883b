package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "volunity/pkg/domain"
)

func TestCanManage(t *testing.T) {
	owner := id.NewUserID()

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"owner manages own resource", Actor{ID: owner, Role: RoleOrganizer}, true},
		{"admin manages anything", Actor{ID: id.NewUserID(), Role: RoleAdmin}, true},
		{"stranger organizer cannot", Actor{ID: id.NewUserID(), Role: RoleOrganizer}, false},
		{"plain user cannot", Actor{ID: id.NewUserID(), Role: RoleUser}, false},
		{"owner with user role still manages", Actor{ID: owner, Role: RoleUser}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanManage(tc.actor, owner))
		})
	}
}

func TestHasRole(t *testing.T) {
	actor := Actor{ID: id.NewUserID(), Role: RoleOrganizer}
	assert.True(t, HasRole(actor, RoleOrganizer, RoleAdmin))
	assert.False(t, HasRole(actor, RoleAdmin))
	assert.False(t, HasRole(actor))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleOrganizer))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole(""))
}
