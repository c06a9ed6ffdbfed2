package permission

import (
	"strings"
	"testing"
)

func TestCatalogCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Catalog() {
		if seen[d.Code] {
			t.Errorf("duplicate permission code %q", d.Code)
		}
		seen[d.Code] = true
	}
}

func TestCatalogCodesAreNamespaced(t *testing.T) {
	for _, d := range Catalog() {
		parts := strings.Split(d.Code, ":")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			t.Errorf("code %q is not of the form area:action", d.Code)
		}
		if d.Label == "" {
			t.Errorf("code %q has no label", d.Code)
		}
		if d.Area == "" {
			t.Errorf("code %q has no area", d.Code)
		}
	}
}

func TestLookup(t *testing.T) {
	d, ok := Lookup(OrdersApprove)
	if !ok {
		t.Fatalf("Lookup(%q) not found", OrdersApprove)
	}
	if d.Area != AreaOrders {
		t.Errorf("Lookup(%q).Area = %q, want %q", OrdersApprove, d.Area, AreaOrders)
	}

	if _, ok := Lookup("orders:fly"); ok {
		t.Error("Lookup of unknown code succeeded")
	}
}

func TestValid(t *testing.T) {
	if !Valid(OrdersRead, UsersWrite, AuditRead) {
		t.Error("Valid rejected known codes")
	}
	if Valid(OrdersRead, "unknown:code") {
		t.Error("Valid accepted an unknown code")
	}
	if !Valid() {
		t.Error("Valid of the empty set should pass")
	}
}

func TestByAreaCoversCatalog(t *testing.T) {
	grouped := ByArea()
	total := 0
	for _, defs := range grouped {
		total += len(defs)
	}
	if total != len(Catalog()) {
		t.Errorf("ByArea covers %d defs, catalog has %d", total, len(Catalog()))
	}
}
