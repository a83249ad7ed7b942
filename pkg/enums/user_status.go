package enums

import "fmt"

type UserStatus string

const (
	UserStatusActive  UserStatus = "Active"
	UserStatusBlocked UserStatus = "Blocked"
)

func (s UserStatus) String() string {
	return string(s)
}

func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

// Toggle flips Active and Blocked.
func (s UserStatus) Toggle() UserStatus {
	if s == UserStatusBlocked {
		return UserStatusActive
	}
	return UserStatusBlocked
}

func ParseUserStatus(value string) (UserStatus, error) {
	s := UserStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid user status %q", value)
	}
	return s, nil
}
