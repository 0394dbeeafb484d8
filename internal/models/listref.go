package models

type VirtualKind string

const (
	VirtualToday        VirtualKind = "today"
	VirtualTomorrow     VirtualKind = "tomorrow"
	VirtualHighPriority VirtualKind = "highPriority"
)

// VirtualKinds lists the virtual lists in display order.
var VirtualKinds = []VirtualKind{VirtualToday, VirtualTomorrow, VirtualHighPriority}

func (k VirtualKind) Valid() bool {
	switch k {
	case VirtualToday, VirtualTomorrow, VirtualHighPriority:
		return true
	}
	return false
}

func (k VirtualKind) Title() string {
	switch k {
	case VirtualToday:
		return "Today"
	case VirtualTomorrow:
		return "Tomorrow"
	case VirtualHighPriority:
		return "High Priority"
	}
	return string(k)
}

// ListRef addresses either a stored list or a virtual one. The zero value
// addresses nothing.
type ListRef struct {
	id      string
	virtual VirtualKind
}

func RealList(id string) ListRef {
	return ListRef{id: id}
}

func VirtualList(kind VirtualKind) ListRef {
	return ListRef{virtual: kind}
}

// ParseListRef classifies a caller-supplied list id.
func ParseListRef(s string) ListRef {
	if kind := VirtualKind(s); kind.Valid() {
		return VirtualList(kind)
	}
	return RealList(s)
}

func (r ListRef) Virtual() (VirtualKind, bool) {
	return r.virtual, r.virtual != ""
}

func (r ListRef) ID() string {
	return r.id
}

func (r ListRef) IsZero() bool {
	return r.id == "" && r.virtual == ""
}

func (r ListRef) String() string {
	if r.virtual != "" {
		return string(r.virtual)
	}
	return r.id
}
