package enums

import "testing"

func TestRaffleStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    RaffleStatus
		to      RaffleStatus
		allowed bool
	}{
		{RaffleStatusUpcoming, RaffleStatusOpen, true},
		{RaffleStatusUpcoming, RaffleStatusClosed, false},
		{RaffleStatusUpcoming, RaffleStatusDrawn, false},
		{RaffleStatusOpen, RaffleStatusClosed, true},
		{RaffleStatusOpen, RaffleStatusDrawn, true},
		{RaffleStatusOpen, RaffleStatusUpcoming, false},
		{RaffleStatusClosed, RaffleStatusOpen, true},
		{RaffleStatusClosed, RaffleStatusDrawn, true},
		{RaffleStatusClosed, RaffleStatusUpcoming, false},
		{RaffleStatusDrawn, RaffleStatusOpen, false},
		{RaffleStatusDrawn, RaffleStatusClosed, false},
		{RaffleStatusDrawn, RaffleStatusUpcoming, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s → %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestRaffleStatusDrawable(t *testing.T) {
	t.Parallel()

	if RaffleStatusUpcoming.Drawable() || RaffleStatusDrawn.Drawable() {
		t.Error("upcoming and drawn must not be drawable")
	}
	if !RaffleStatusOpen.Drawable() || !RaffleStatusClosed.Drawable() {
		t.Error("open and closed must be drawable")
	}
}

func TestRaffleStatusTerminal(t *testing.T) {
	t.Parallel()

	if !RaffleStatusDrawn.IsTerminal() {
		t.Error("drawn must be terminal")
	}
	for _, status := range []RaffleStatus{RaffleStatusUpcoming, RaffleStatusOpen, RaffleStatusClosed} {
		if status.IsTerminal() {
			t.Errorf("%s must not be terminal", status)
		}
	}
}

func TestParseRaffleStatus(t *testing.T) {
	t.Parallel()

	if status, err := ParseRaffleStatus("open"); err != nil || status != RaffleStatusOpen {
		t.Fatalf("parse open: %v %v", status, err)
	}
	if _, err := ParseRaffleStatus("finished"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
