package model

// Status of a working copy, as reported by its backend
type Status string

// Known statuses
const (
	// Clean means no local modification and nothing left to push
	Clean Status = "clean"

	// Dirty means there are local modifications
	Dirty Status = "dirty"

	// Ahead means local commits have not been pushed yet
	Ahead Status = "ahead"

	// Conflict means an unresolved merge or update conflict has been detected
	Conflict Status = "conflict"
)

func (s Status) String() string {
	return string(s)
}

// IsClean is true for working copies which may be updated without losing work
func (s Status) IsClean() bool {
	return s == Clean
}
