package guard

import (
	"testing"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/stretchr/testify/assert"
)

func student() Session {
	return Session{
		Authenticated:       true,
		UserID:              "u1",
		Enrollment:          &model.Enrollment{Tier: model.TierGold, IsActive: true},
		HasSubjectSelection: true,
	}
}

func TestLoadingNeverRedirectsOrRenders(t *testing.T) {
	s := Session{Loading: true}
	d := Evaluate(s, Requirements{RequireEnrollment: true, RequireRoles: []model.Role{model.RoleAdmin}})
	assert.Equal(t, Decision{Outcome: OutcomeLoading}, d)
}

func TestEvaluate(t *testing.T) {
	noEnrollment := student()
	noEnrollment.Enrollment = nil

	noSubjects := student()
	noSubjects.HasSubjectSelection = false

	creator := student()
	creator.Roles = []model.Role{model.RoleCreator}

	admin := Session{Authenticated: true, Roles: []model.Role{model.RoleAdmin}}

	cases := []struct {
		name    string
		session Session
		req     Requirements
		want    Decision
	}{
		{"public route", Session{}, Requirements{}, Decision{Outcome: OutcomeRender}},
		{"anonymous on dashboard", Session{}, Requirements{RequireEnrollment: true}, redirect(PathAuth)},
		{"anonymous on auth-only route", Session{}, Requirements{RequireAuth: true}, redirect(PathAuth)},
		{"student on dashboard", student(), Requirements{RequireEnrollment: true, RequireSubjectSelection: true}, Decision{Outcome: OutcomeRender}},
		{"no enrollment", noEnrollment, Requirements{RequireEnrollment: true}, redirect(PathActivate)},
		{"no subject selection", noSubjects, Requirements{RequireEnrollment: true, RequireSubjectSelection: true}, redirect(PathSelectSubjects)},
		{"student on admin panel", student(), Requirements{RequireRoles: []model.Role{model.RoleAdmin}}, redirect(PathHome)},
		{"admin on admin panel", admin, Requirements{RequireRoles: []model.Role{model.RoleAdmin}}, Decision{Outcome: OutcomeRender}},
		{"any-of roles", creator, Requirements{RequireRoles: []model.Role{model.RoleAdmin, model.RoleCreator}}, Decision{Outcome: OutcomeRender}},
		{"creator blocked from dashboard", creator, Requirements{RequireEnrollment: true, BlockRoles: []model.Role{model.RoleCreator}}, redirect("/creator")},
		{"unknown blocked role", Session{Authenticated: true, Roles: []model.Role{"intern"}}, Requirements{BlockRoles: []model.Role{"intern"}}, redirect(PathHome)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.session, tc.req))
		})
	}
}
