package enums

import "fmt"

// UserRole is the coarse role carried in access-token claims. Identity itself
// is owned by the profile service; the commerce core only needs to know
// whether the caller can act as an artist.
type UserRole string

const (
	UserRoleFan    UserRole = "fan"
	UserRoleArtist UserRole = "artist"
	UserRoleAdmin  UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleFan,
	UserRoleArtist,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
