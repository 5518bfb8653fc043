package access

import (
	"fmt"

	"github.com/pkg/errors"
)

// Roles
const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleAllocator  Role = "allocator"
	RoleDispatcher Role = "dispatcher"
	RoleOperator   Role = "operator"
	RoleViewer     Role = "viewer"
)

// Actions
const (
	ActionAllocate Action = "allocate" // add a car or move it into a lane
	ActionDispatch Action = "dispatch" // remove cars from a lane
)

var (
	ErrUnauthenticated = errors.New("authentication required")

	Roles = []RoleInfo{
		{Name: "Super Admin", Value: RoleSuperAdmin},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Allocator", Value: RoleAllocator},
		{Name: "Dispatcher", Value: RoleDispatcher},
		{Name: "Operator", Value: RoleOperator},
		{Name: "Viewer", Value: RoleViewer},
	}
)

type (
	Role   string
	Action string

	RoleInfo struct {
		Name  string `json:"name"`
		Value Role   `json:"value"`
	}

	// Permissions are the sub-permissions granted to an operator.
	Permissions struct {
		Allocate bool `json:"allocate,omitempty"`
		Dispatch bool `json:"dispatch,omitempty"`
	}

	// Principal is the authenticated caller, as synced from the identity provider.
	Principal struct {
		ID          string
		Name        string
		Email       string
		Role        Role
		Campuses    []string
		Permissions Permissions
	}

	// DeniedError is returned when a principal may not perform an action.
	DeniedError struct {
		Role   Role
		Action Action
		Reason string
	}

	// rule decides whether a role may perform an action.
	rule func(p *Principal, action Action) bool

	// Guard authorizes queue mutations against an explicit role table.
	Guard struct {
		rules map[Role]rule
	}
)

func (r Role) IsValid() bool {
	for _, info := range Roles {
		if info.Value == r {
			return true
		}
	}
	return false
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.ID != ""
}

func (e DeniedError) Error() string {
	return e.Reason
}

func allowAll(*Principal, Action) bool { return true }

func allowOnly(allowed Action) rule {
	return func(_ *Principal, action Action) bool { return action == allowed }
}

func allowByPermission(p *Principal, action Action) bool {
	switch action {
	case ActionAllocate:
		return p.Permissions.Allocate
	case ActionDispatch:
		return p.Permissions.Dispatch
	}
	return false
}

func NewGuard() Guard {
	return Guard{
		rules: map[Role]rule{
			RoleSuperAdmin: allowAll,
			RoleAdmin:      allowAll,
			RoleAllocator:  allowOnly(ActionAllocate),
			RoleDispatcher: allowOnly(ActionDispatch),
			RoleOperator:   allowByPermission,
		},
	}
}

// Authorize returns nil when p may perform action at campusID.
// Campus assignments are not consulted: role and permissions alone decide.
func (g Guard) Authorize(p *Principal, action Action, campusID string) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if allow, ok := g.rules[p.Role]; ok && allow(p, action) {
		return nil
	}

	reason := fmt.Sprintf("role %q may not %s cars", p.Role, action)
	if p.Role == RoleOperator {
		reason = fmt.Sprintf("operator lacks the %s permission", action)
	}
	if campusID != "" {
		reason += " at campus " + campusID
	}
	return &DeniedError{Role: p.Role, Action: action, Reason: reason}
}
