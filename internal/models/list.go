package models

import (
	"slices"
	"time"
)

type ListType string

const (
	ListTypeInbox        ListType = "inbox"
	ListTypeDefault      ListType = "default"
	ListTypeToday        ListType = ListType(VirtualToday)
	ListTypeTomorrow     ListType = ListType(VirtualTomorrow)
	ListTypeHighPriority ListType = ListType(VirtualHighPriority)
)

const InboxTitle = "Inbox"

// List is the persisted document. Tasks holds incomplete task ids in display
// order, CompletedTasks holds completed ids most recent first.
type List struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Owner          string    `json:"owner"`
	Members        []string  `json:"members"`
	Type           ListType  `json:"type"`
	Tasks          []string  `json:"tasks"`
	CompletedTasks []string  `json:"completedTasks"`
	Color          string    `json:"color,omitempty"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

func (l *List) HasMember(userID string) bool {
	return slices.Contains(l.Members, userID)
}

func (l *List) Clone() *List {
	c := *l
	c.Members = slices.Clone(l.Members)
	c.Tasks = slices.Clone(l.Tasks)
	c.CompletedTasks = slices.Clone(l.CompletedTasks)
	return &c
}

// ListView is the projection handed out to callers: members and tasks are
// populated, and completed tasks are either listed or only counted.
type ListView struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Owner           string          `json:"owner,omitempty"`
	Members         []MemberSummary `json:"members"`
	Type            ListType        `json:"type"`
	Tasks           []Task          `json:"tasks"`
	CompletedTasks  []Task          `json:"completedTasks"`
	AdditionalTasks int             `json:"additionalTasks"`
	Color           string          `json:"color,omitempty"`
}
