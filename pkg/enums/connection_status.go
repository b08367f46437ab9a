package enums

import "fmt"

// ConnectionStatus tracks the health of an artist's external storefront link.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusError        ConnectionStatus = "error"
)

var validConnectionStatuses = []ConnectionStatus{
	ConnectionStatusConnected,
	ConnectionStatusDisconnected,
	ConnectionStatusError,
}

// String implements fmt.Stringer.
func (s ConnectionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConnectionStatus.
func (s ConnectionStatus) IsValid() bool {
	for _, candidate := range validConnectionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConnectionStatus converts raw input into a ConnectionStatus.
func ParseConnectionStatus(value string) (ConnectionStatus, error) {
	for _, candidate := range validConnectionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid connection status %q", value)
}
