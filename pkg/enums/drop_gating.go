package enums

import "fmt"

// DropGating is the access-control mode of a merch drop.
type DropGating string

const (
	DropGatingPublic              DropGating = "public"
	DropGatingRoomOnly            DropGating = "room_only"
	DropGatingFollowersOnly       DropGating = "followers_only"
	DropGatingFollowersEarlyAccess DropGating = "followers_early_access"
)

var validDropGatings = []DropGating{
	DropGatingPublic,
	DropGatingRoomOnly,
	DropGatingFollowersOnly,
	DropGatingFollowersEarlyAccess,
}

// String implements fmt.Stringer.
func (g DropGating) String() string {
	return string(g)
}

// IsValid reports whether the value is a known DropGating.
func (g DropGating) IsValid() bool {
	for _, candidate := range validDropGatings {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseDropGating converts raw input into a DropGating.
func ParseDropGating(value string) (DropGating, error) {
	for _, candidate := range validDropGatings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid drop gating %q", value)
}
