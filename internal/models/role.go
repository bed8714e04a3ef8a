package models

const (
	RoleCoach      = "COACH"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Role is immutable reference data, seeded at startup and looked up by name.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

// DefaultRoles are seeded on every start.
var DefaultRoles = []string{RoleCoach, RoleSuperAdmin}

// RolesToSeed returns DefaultRoles plus the role new accounts receive, so a
// configured default role always exists.
func RolesToSeed(defaultRole string) []string {
	roles := append([]string(nil), DefaultRoles...)
	if defaultRole == "" {
		return roles
	}
	for _, r := range roles {
		if r == defaultRole {
			return roles
		}
	}
	return append(roles, defaultRole)
}
