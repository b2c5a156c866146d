package freight

// LoadStatus represents where a load is in its lifecycle
type LoadStatus string

const (
	LoadStatusAvailable  LoadStatus = "available"
	LoadStatusDispatched LoadStatus = "dispatched"
	LoadStatusInTransit  LoadStatus = "in_transit"
	LoadStatusDelivered  LoadStatus = "delivered"
	LoadStatusCompleted  LoadStatus = "completed"
	LoadStatusCancelled  LoadStatus = "cancelled"
	LoadStatusTONU       LoadStatus = "tonu" // truck ordered, not used
)

// AllLoadStatuses lists every status in lifecycle order
var AllLoadStatuses = []LoadStatus{
	LoadStatusAvailable,
	LoadStatusDispatched,
	LoadStatusInTransit,
	LoadStatusDelivered,
	LoadStatusCompleted,
	LoadStatusCancelled,
	LoadStatusTONU,
}

// IsValid checks if the status is a valid LoadStatus
func (s LoadStatus) IsValid() bool {
	for _, v := range AllLoadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of LoadStatus
func (s LoadStatus) String() string {
	return string(s)
}

// Locks reports whether entering this status locks the load.
// Delivered and completed loads are billable and their financials freeze.
func (s LoadStatus) Locks() bool {
	return s == LoadStatusDelivered || s == LoadStatusCompleted
}

// IsTerminal returns true if no further work is expected on the load
func (s LoadStatus) IsTerminal() bool {
	return s == LoadStatusCompleted || s == LoadStatusCancelled || s == LoadStatusTONU
}
