package domain

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"Requested", StatusRequested},
		{" ordered ", StatusOrdered},
		{"RECEIVED", StatusReceived},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
	if _, err := ParseStatus("backordered"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ParseStatus(backordered) error = %v, want ErrInvalidStatus", err)
	}
}

func TestCanTransitionRequiresGroup(t *testing.T) {
	loose := Order{ID: "o1", Status: StatusRequested}
	for _, target := range []Status{StatusOrdered, StatusReceived} {
		if CanTransition(loose, target) {
			t.Fatalf("CanTransition(no group, %s) = true, want false", target)
		}
	}
	if !CanTransition(loose, StatusRequested) {
		t.Fatal("CanTransition(no group, Requested) = false, want true")
	}

	grouped := Order{ID: "o1", Status: StatusOrdered, GroupID: "g1"}
	for _, target := range []Status{StatusRequested, StatusOrdered, StatusReceived} {
		if !CanTransition(grouped, target) {
			t.Fatalf("CanTransition(grouped, %s) = false, want true", target)
		}
	}
}

func TestCanTransitionRejectsUnknownStatus(t *testing.T) {
	if CanTransition(Order{ID: "o1", GroupID: "g1"}, Status("Lost")) {
		t.Fatal("CanTransition(unknown status) = true, want false")
	}
}
