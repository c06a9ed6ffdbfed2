package model

import "testing"

func TestChecklistAllCompleted(t *testing.T) {
	if !(Checklist{}).AllCompleted() {
		t.Error("empty checklist should count as complete")
	}
	partial := Checklist{{Item: "a", Completed: true}, {Item: "b"}}
	if partial.AllCompleted() {
		t.Error("partial checklist reported complete")
	}
	full := Checklist{{Item: "a", Completed: true}, {Item: "b", Completed: true}}
	if !full.AllCompleted() {
		t.Error("full checklist reported incomplete")
	}
}

func TestChecklistScanValue(t *testing.T) {
	original := Checklist{{Item: "install equipment", Completed: true}}
	raw, err := original.Value()
	if err != nil {
		t.Fatalf("Value() = %v", err)
	}

	var scanned Checklist
	if err := scanned.Scan(raw); err != nil {
		t.Fatalf("Scan() = %v", err)
	}
	if len(scanned) != 1 || scanned[0].Item != "install equipment" || !scanned[0].Completed {
		t.Errorf("round trip mismatch: %+v", scanned)
	}

	if err := scanned.Scan(42); err == nil {
		t.Error("Scan of an int should fail")
	}
}
