package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEligibleAssigneeRoles(t *testing.T) {
	cases := []struct {
		role Role
		want []Role
	}{
		{RoleProjectHead, []Role{RoleTeamLeader}},
		{RoleTeamLeader, []Role{RoleRegionManager}},
		{RoleRegionManager, []Role{RoleJuniorManager}},
		{RoleJuniorManager, []Role{}},
		{RoleUnknown, []Role{}},
		{Role("ceo"), []Role{}},
	}
	for _, c := range cases {
		t.Run(string(c.role), func(t *testing.T) {
			assert.Equal(t, c.want, EligibleAssigneeRoles(c.role))
		})
	}
}

func TestEligibleAssigneeRoles_ReturnsCopy(t *testing.T) {
	got := EligibleAssigneeRoles(RoleProjectHead)
	got[0] = RoleJuniorManager

	assert.Equal(t, []Role{RoleTeamLeader}, EligibleAssigneeRoles(RoleProjectHead))
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Ivan Petrov", "ivan petrov"))
	assert.True(t, SameName(" Иван Петров", "ИВАН ПЕТРОВ "))
	assert.False(t, SameName("Ivan Petrov", "Ivan Petrova"))
}

func TestTaskInvolves(t *testing.T) {
	task := Task{AssignerID: 1, AssigneeID: 2}
	assert.True(t, task.Involves(1))
	assert.True(t, task.Involves(2))
	assert.False(t, task.Involves(3))
}
