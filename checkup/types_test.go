package checkup

import "testing"

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusScheduled, StatusArchived, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusScheduled, false},
		{StatusCompleted, StatusArchived, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusArchived, StatusScheduled, false},
		{StatusCancelled, StatusInProgress, false},
		{"bogus", StatusInProgress, false},
	}
	for _, tt := range tests {
		if got := IsValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusScheduled, StatusInProgress, StatusCompleted} {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = true, want false", status)
		}
	}
	for _, status := range []string{StatusArchived, StatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = false, want true", status)
		}
	}
}

func TestNextItemStatusCycle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{ItemPending, ItemOK},
		{ItemOK, ItemNOK},
		{ItemNOK, ItemNA},
		{ItemNA, ItemPending},
		{"garbage", ItemPending},
		{"", ItemPending},
	}
	for _, tt := range tests {
		if got := NextItemStatus(tt.in); got != tt.want {
			t.Errorf("NextItemStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// A full lap returns to the start.
	s := ItemPending
	for i := 0; i < 4; i++ {
		s = NextItemStatus(s)
	}
	if s != ItemPending {
		t.Errorf("four steps from pending = %q, want pending", s)
	}
}

func TestIsValidItemStatus(t *testing.T) {
	for _, s := range []string{ItemPending, ItemOK, ItemNOK, ItemNA} {
		if !IsValidItemStatus(s) {
			t.Errorf("IsValidItemStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "done", "OK", "n/a"} {
		if IsValidItemStatus(s) {
			t.Errorf("IsValidItemStatus(%q) = true, want false", s)
		}
	}
}
