package interpolation

import "testing"

// TestLookup verifies case-insensitive lookup of every registered name
func TestLookup(t *testing.T) {
	for _, mode := range All() {
		for _, name := range []string{mode.String(), " " + mode.String() + " "} {
			got, ok := Lookup(name)
			if !ok || got != mode {
				t.Errorf("Lookup(%q) = %v, %v; expected %v", name, got, ok, mode)
			}
		}
	}

	if got, ok := Lookup("LINEAR"); !ok || got != Linear {
		t.Errorf("Expected LINEAR to resolve to linear, got %v", got)
	}
	if _, ok := Lookup("bogus"); ok {
		t.Errorf("Expected bogus to be unknown")
	}
}

// TestNames ensures names and modes stay aligned
func TestNames(t *testing.T) {
	n := Names()
	if len(n) != len(All()) {
		t.Fatalf("Expected %d names, got %d", len(All()), len(n))
	}
	if n[0] != "nearest" || n[len(n)-1] != "blackman" {
		t.Errorf("Unexpected name order: %v", n)
	}

	n[0] = "changed"
	if Nearest.String() != "nearest" {
		t.Errorf("Names must return a copy")
	}
	if Interpolation(99).String() != "unknown" {
		t.Errorf("Expected unknown for out of range mode")
	}
}
