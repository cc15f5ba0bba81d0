package main

import "testing"

func TestStarterCatalogEntriesAreValid(t *testing.T) {
	entries := starterCatalog()
	if len(entries) == 0 {
		t.Fatal("starter catalog is empty")
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			t.Errorf("%s: %v", e.Name, err)
		}
		if seen[e.Name] {
			t.Errorf("duplicate starter entry %q", e.Name)
		}
		seen[e.Name] = true
	}
}
