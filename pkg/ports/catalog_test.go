package ports

import "testing"

func TestByPriority_Descending(t *testing.T) {
	sorted := ByPriority(Catalog)
	if len(sorted) != len(Catalog) {
		t.Fatalf("got %d entries, want %d", len(sorted), len(Catalog))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Priority > sorted[i-1].Priority {
			t.Errorf("priority %d at index %d exceeds %d at index %d",
				sorted[i].Priority, i, sorted[i-1].Priority, i-1)
		}
	}
}

func TestByPriority_TiesKeepCatalogOrder(t *testing.T) {
	sorted := ByPriority(Catalog)

	want := []uint16{80, 443, 22, 445, 53, 8080, 3306, 25, 3389, 21, 23}
	for i, port := range want {
		if sorted[i].Port != port {
			t.Errorf("index %d: port = %d, want %d", i, sorted[i].Port, port)
		}
	}
}

func TestByPriority_DoesNotMutateInput(t *testing.T) {
	first := Catalog[0]
	third := Catalog[2]
	_ = ByPriority(Catalog)

	if Catalog[0] != first || Catalog[2] != third {
		t.Error("ByPriority reordered the shared catalog")
	}
}

func TestCatalog_NoDuplicates(t *testing.T) {
	seen := make(map[uint16]bool)
	for _, spec := range Catalog {
		if seen[spec.Port] {
			t.Errorf("duplicate port: %d", spec.Port)
		}
		seen[spec.Port] = true
		if spec.Priority < 0 || spec.Priority > 100 {
			t.Errorf("port %d: priority %d out of range", spec.Port, spec.Priority)
		}
	}
}

func TestLookup(t *testing.T) {
	spec, ok := Lookup(3389)
	if !ok || spec.Service != "RDP" {
		t.Errorf("Lookup(3389) = %+v, %v", spec, ok)
	}
	if _, ok := Lookup(9999); ok {
		t.Error("Lookup(9999) should miss")
	}
}
