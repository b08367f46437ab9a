package enums

import "fmt"

// DropStatus is the stored state of a merch drop. A scheduled drop whose
// start instant has passed projects as live at read time without a stored
// transition.
type DropStatus string

const (
	DropStatusDraft     DropStatus = "draft"
	DropStatusScheduled DropStatus = "scheduled"
	DropStatusLive      DropStatus = "live"
	DropStatusCancelled DropStatus = "cancelled"
)

var validDropStatuses = []DropStatus{
	DropStatusDraft,
	DropStatusScheduled,
	DropStatusLive,
	DropStatusCancelled,
}

// String implements fmt.Stringer.
func (s DropStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DropStatus.
func (s DropStatus) IsValid() bool {
	for _, candidate := range validDropStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDropStatus converts raw input into a DropStatus.
func ParseDropStatus(value string) (DropStatus, error) {
	for _, candidate := range validDropStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid drop status %q", value)
}
