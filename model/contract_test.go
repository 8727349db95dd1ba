package model

import "testing"

func TestToggledStatus(t *testing.T) {
	if got := ToggledStatus(StatusOpen); got != StatusClosed {
		t.Errorf("Expected %s, got %s", StatusClosed, got)
	}
	if got := ToggledStatus(StatusClosed); got != StatusOpen {
		t.Errorf("Expected %s, got %s", StatusOpen, got)
	}

	// Toggling twice returns to the original status
	for _, status := range []string{StatusOpen, StatusClosed} {
		if got := ToggledStatus(ToggledStatus(status)); got != status {
			t.Errorf("Double toggle of %s returned %s", status, got)
		}
	}
}

func TestArticleLabel(t *testing.T) {
	tests := []struct {
		no       int
		expected string
	}{
		{1, "제1조"},
		{15, "제15조"},
		{103, "제103조"},
	}

	for _, tt := range tests {
		a := Article{No: tt.no}
		if got := a.Label(); got != tt.expected {
			t.Errorf("Expected label %s for article %d, got %s", tt.expected, tt.no, got)
		}
	}
}
