package model

// Role names carried in access tokens.
type Role string

const (
	RoleHeadAdmin        Role = "head_administrator"
	RoleAuditor          Role = "auditor"
	RoleSecurityAdmin    Role = "security_admin"
	RoleCompliance       Role = "compliance"
	RoleHRManager        Role = "hr_manager"
	RoleLegalTeam        Role = "legal_team"
	RoleMarketingManager Role = "marketing_manager"
	RoleCRMManager       Role = "crm_manager"
	RoleCustomerSupport  Role = "customer_support"
	RoleSystemAdmin      Role = "system_admin"
	RoleTechnologyAdmin  Role = "technology_admin"
	RoleAnalyst          Role = "analyst"
)

// CurrentUser is the authenticated caller of a request.
type CurrentUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// HasRole reports whether the user holds any of roles. The head
// administrator holds every role.
func (u *CurrentUser) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleHeadAdmin {
		return true
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
