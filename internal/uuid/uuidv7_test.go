package uuid

import "testing"

func TestNew(t *testing.T) {
	a, b := New(), New()
	if !IsValid(a) || !IsValid(b) {
		t.Fatalf("expected valid ids, got %q and %q", a, b)
	}
	if a == b {
		t.Error("expected distinct ids")
	}
	if a[14] != '7' {
		t.Errorf("expected version 7, got %q", a)
	}
	if a > b {
		t.Errorf("expected time-ordered ids, got %s after %s", a, b)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0190A7A0-0000-7000-8000-000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190a7a0-0000-7000-8000-000000000001" {
		t.Errorf("expected lowercase form, got %q", got)
	}

	if _, err := Parse("42"); err == nil {
		t.Error("expected an error for a non-uuid")
	}
	if IsValid("") {
		t.Error("empty string must not be valid")
	}
}
