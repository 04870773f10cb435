package checkup

// Check-up statuses
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
	StatusCancelled  = "cancelled"
)

// validTransitions defines which lifecycle transitions are allowed.
var validTransitions = map[string][]string{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusArchived},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to string) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func IsTerminal(status string) bool {
	return status == StatusArchived || status == StatusCancelled
}

// Check item statuses
const (
	ItemPending = "pending"
	ItemOK      = "ok"
	ItemNOK     = "nok"
	ItemNA      = "na"
)

// itemCycle is the order a technician taps through on an item.
var itemCycle = []string{ItemPending, ItemOK, ItemNOK, ItemNA}

// NextItemStatus returns the status following s in the tap cycle.
// Unknown statuses reset to pending.
func NextItemStatus(s string) string {
	for i, st := range itemCycle {
		if st == s {
			return itemCycle[(i+1)%len(itemCycle)]
		}
	}
	return ItemPending
}

// IsValidItemStatus checks membership in the item status set.
func IsValidItemStatus(s string) bool {
	for _, st := range itemCycle {
		if st == s {
			return true
		}
	}
	return false
}

// Stats is the derived progress summary of one check-up. Recomputed
// from the item rows after every mutation, never stored.
type Stats struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	OK         int     `json:"ok"`
	NOK        int     `json:"nok"`
	NA         int     `json:"na"`
	Done       int     `json:"done"`
	Progress   float64 `json:"progress"`
	SpareParts int     `json:"spare_parts"`
	Photos     int     `json:"photos"`
}
