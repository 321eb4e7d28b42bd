package entity

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses() {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}

	for _, s := range []Status{"", "pendiente", "Pendiente ", "Bogus"} {
		if s.Valid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestStatusesReturnsCopy(t *testing.T) {
	list := Statuses()
	list[0] = "Bogus"

	if Statuses()[0] != StatusPending {
		t.Fatalf("expected Statuses to be immutable, got %q", Statuses()[0])
	}
}
