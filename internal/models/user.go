package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	// RoleSPC is a Student Placement Coordinator with admin-like rights over
	// postings, red flags and placement tracking.
	RoleSPC       UserRole = "SPC"
	RoleRecruiter UserRole = "RECRUITER"
	RoleStudent   UserRole = "STUDENT"
)

// IsOperator reports whether the role may manage placements and red flags.
func (r UserRole) IsOperator() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleSPC
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
