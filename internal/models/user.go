package models

// UserRole represents the operator roles allowed to call the admin API.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleSchool     UserRole = "SCHOOL"
)

// ProvisioningRoles lists the roles that may upload rosters and download ledgers.
var ProvisioningRoles = []UserRole{RoleSuperAdmin, RoleAdmin, RoleSchool}
