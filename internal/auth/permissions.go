package auth

// Permission is a named action on the admin API.
type Permission string

const (
	PermCapabilityRead Permission = "capability:read"
	PermWorldSave      Permission = "world:save"
	PermWorldExport    Permission = "world:export"
	PermAuditRead      Permission = "audit:read"
)

var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermCapabilityRead,
	},
	RoleOperator: {
		PermCapabilityRead,
		PermWorldSave,
		PermWorldExport,
		PermAuditRead,
	},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
