// Package guard evaluates route requirements against a user's session state.
//
// The result is advisory: it lets clients avoid rendering views the user cannot
// use. Every protected operation re-checks authorization on the server.
package guard

import "github.com/Freeeeeet/notebase/internal/model"

// Outcome is what the client should do with the route.
type Outcome string

const (
	OutcomeRender   Outcome = "render"
	OutcomeLoading  Outcome = "loading"
	OutcomeRedirect Outcome = "redirect"
)

const (
	PathAuth           = "/auth"
	PathHome           = "/"
	PathActivate       = "/activate"
	PathSelectSubjects = "/select-subjects"
)

// roleHomes is where a blocked role is sent instead of the requested view.
var roleHomes = map[model.Role]string{
	model.RoleAdmin:     "/admin",
	model.RoleCreator:   "/creator",
	model.RoleCMO:       "/cmo",
	model.RoleHeadOfOps: "/head-of-ops",
}

// Session is the currently loaded session state of a user.
type Session struct {
	Loading             bool              `json:"loading"`
	Authenticated       bool              `json:"authenticated"`
	UserID              string            `json:"userId,omitempty"`
	Roles               []model.Role      `json:"roles"`
	Enrollment          *model.Enrollment `json:"enrollment"`
	HasSubjectSelection bool              `json:"hasSubjectSelection"`
}

// HasRole reports whether the session holds role.
func (s Session) HasRole(role model.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Requirements declares what a route needs.
type Requirements struct {
	RequireAuth             bool
	RequireEnrollment       bool
	RequireSubjectSelection bool
	// RequireRoles passes when the session holds any of the roles.
	RequireRoles []model.Role
	// BlockRoles redirects sessions holding any of the roles to that role's home.
	BlockRoles []model.Role
}

func (r Requirements) needsAuth() bool {
	return r.RequireAuth || r.RequireEnrollment || r.RequireSubjectSelection || len(r.RequireRoles) > 0
}

// Decision is the result of evaluating a route.
type Decision struct {
	Outcome    Outcome `json:"outcome"`
	RedirectTo string  `json:"redirectTo,omitempty"`
}

func redirect(to string) Decision {
	return Decision{Outcome: OutcomeRedirect, RedirectTo: to}
}

// Evaluate decides whether a route may render for the session.
// While the session is loading the answer is always OutcomeLoading.
func Evaluate(s Session, req Requirements) Decision {
	if s.Loading {
		return Decision{Outcome: OutcomeLoading}
	}

	if req.needsAuth() && !s.Authenticated {
		return redirect(PathAuth)
	}

	for _, role := range req.BlockRoles {
		if s.HasRole(role) {
			if home, ok := roleHomes[role]; ok {
				return redirect(home)
			}
			return redirect(PathHome)
		}
	}

	if len(req.RequireRoles) > 0 {
		allowed := false
		for _, role := range req.RequireRoles {
			if s.HasRole(role) {
				allowed = true
				break
			}
		}
		if !allowed {
			return redirect(PathHome)
		}
	}

	if req.RequireEnrollment && s.Enrollment == nil {
		return redirect(PathActivate)
	}

	if req.RequireSubjectSelection && !s.HasSubjectSelection {
		return redirect(PathSelectSubjects)
	}

	return Decision{Outcome: OutcomeRender}
}
