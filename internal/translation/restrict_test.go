package translation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRestrict(t *testing.T) {
	local := newMemStore("a", "A", "orphan", "O", "b", "B")
	dst := newMemStore()

	changed, err := Sync(Restrict(local, []string{"b", "a", "not-in-src"}), dst)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !changed {
		t.Error("Sync should report a change")
	}
	if diff := cmp.Diff(map[string]string{"a": "A", "b": "B"}, dst.snapshot()); diff != "" {
		t.Errorf("destination mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, Restrict(local, []string{"a", "b"}).Keys()); diff != "" {
		t.Errorf("Keys() must keep source order (-want +got):\n%s", diff)
	}
}

func TestWithKeys(t *testing.T) {
	local := newMemStore("a", "A", "orphan", "O")
	dst := newMemStore("a", "old", "b", "stale", "c", "keep")

	changed, err := Sync(WithKeys(local, []string{"a", "b"}), dst)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !changed {
		t.Error("Sync should report a change")
	}
	if diff := cmp.Diff(map[string]string{"a": "A", "c": "keep"}, dst.snapshot()); diff != "" {
		t.Errorf("destination mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, dst.removes); diff != "" {
		t.Errorf("Remove calls mismatch (-want +got):\n%s", diff)
	}
	if _, ok := dst.values["orphan"]; ok {
		t.Error("keys outside the view must not be synced")
	}
}
