package models

import "time"

type User struct {
	ID                string
	Email             string
	Name              string
	Picture           string
	GoogleID          string
	Password          string
	Timezone          string
	Lists             []string
	CustomLists       map[VirtualKind]bool
	PushSubscriptions []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CustomListEnabled reports whether the virtual list is shown to the user.
// A missing key counts as enabled.
func (u *User) CustomListEnabled(kind VirtualKind) bool {
	enabled, ok := u.CustomLists[kind]
	return !ok || enabled
}

// DefaultCustomLists returns the preferences a new user starts with.
func DefaultCustomLists() map[VirtualKind]bool {
	return map[VirtualKind]bool{
		VirtualToday:        true,
		VirtualTomorrow:     true,
		VirtualHighPriority: true,
	}
}

type MemberSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}
