package translation

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

// memStore is an ordered in-memory Store. A nil value is a key without value.
type memStore struct {
	keys   []string
	values map[string]*string

	sets    []string
	removes []string
	failOn  string
}

func newMemStore(pairs ...string) *memStore {
	s := &memStore{values: make(map[string]*string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		v := pairs[i+1]
		s.put(pairs[i], &v)
	}
	return s
}

func (s *memStore) put(key string, v *string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

func (s *memStore) Keys() []string { return s.keys }

func (s *memStore) Get(key string) (string, bool, error) {
	if key == s.failOn {
		return "", false, errBoom
	}
	v := s.values[key]
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *memStore) Set(key, value string) error {
	s.sets = append(s.sets, key)
	s.put(key, &value)
	return nil
}

func (s *memStore) Remove(key string) error {
	s.removes = append(s.removes, key)
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	return nil
}

func (s *memStore) snapshot() map[string]string {
	out := make(map[string]string)
	for k, v := range s.values {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

var errBoom = errors.New("boom")

func TestSync(t *testing.T) {
	src := newMemStore("a", "1", "b", "2", "c", "3")
	dst := newMemStore("a", "1", "b", "old", "z", "keep")

	changed, err := Sync(src, dst)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !changed {
		t.Error("Sync should report a change")
	}

	want := map[string]string{"a": "1", "b": "2", "c": "3", "z": "keep"}
	if diff := cmp.Diff(want, dst.snapshot()); diff != "" {
		t.Errorf("destination mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, dst.sets); diff != "" {
		t.Errorf("Set calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncAbsentValueRemoves(t *testing.T) {
	src := newMemStore()
	src.put("k", nil)
	dst := newMemStore("k", "value")

	changed, err := Sync(src, dst)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !changed {
		t.Error("Sync should report a change")
	}
	if len(dst.sets) != 0 {
		t.Errorf("Set must not be called for an absent value, got %v", dst.sets)
	}
	if diff := cmp.Diff([]string{"k"}, dst.removes); diff != "" {
		t.Errorf("Remove calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncBothAbsentIsUnchanged(t *testing.T) {
	src := newMemStore()
	src.put("k", nil)
	dst := newMemStore()

	changed, err := Sync(src, dst)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if changed || len(dst.removes) != 0 || len(dst.sets) != 0 {
		t.Errorf("changed=%v sets=%v removes=%v, want no mutation", changed, dst.sets, dst.removes)
	}
}

func TestSyncEmptyStringDiffersFromAbsent(t *testing.T) {
	src := newMemStore("k", "")
	dst := newMemStore()

	changed, err := Sync(src, dst)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !changed {
		t.Fatal("empty string should be written to a destination without value")
	}
	if v, ok, _ := dst.Get("k"); !ok || v != "" {
		t.Errorf("Get(k) = %q, %v", v, ok)
	}
}

func TestCleanUp(t *testing.T) {
	tests := []struct {
		name        string
		src         *memStore
		dst         *memStore
		wantRemoved bool
		wantKeys    []string
	}{
		{
			name:        "removes keys missing from source",
			src:         newMemStore("k1", "x", "k3", "x"),
			dst:         newMemStore("k1", "a", "k2", "b", "k3", "c"),
			wantRemoved: true,
			wantKeys:    []string{"k1", "k3"},
		},
		{
			name:        "superset source removes nothing",
			src:         newMemStore("k1", "x", "k2", "x", "k3", "x", "k4", "x"),
			dst:         newMemStore("k1", "a", "k2", "b"),
			wantRemoved: false,
			wantKeys:    []string{"k1", "k2"},
		},
		{
			name:        "removes adjacent keys",
			src:         newMemStore("k3", "x"),
			dst:         newMemStore("k1", "a", "k2", "b", "k3", "c"),
			wantRemoved: true,
			wantKeys:    []string{"k3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed, err := CleanUp(tt.src, tt.dst)
			if err != nil {
				t.Fatalf("CleanUp failed: %v", err)
			}
			if removed != tt.wantRemoved {
				t.Errorf("CleanUp() = %v, want %v", removed, tt.wantRemoved)
			}
			if diff := cmp.Diff(tt.wantKeys, tt.dst.Keys()); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSyncFromIsIdempotent(t *testing.T) {
	src := newMemStore("a", "1", "b", "2")
	src.put("n", nil)
	dst := newMemStore("a", "0", "n", "x", "gone", "y")

	changed, err := SyncFrom(src, dst, true)
	if err != nil {
		t.Fatalf("first SyncFrom failed: %v", err)
	}
	if !changed {
		t.Error("first SyncFrom should change the destination")
	}
	first := dst.snapshot()

	changed, err = SyncFrom(src, dst, true)
	if err != nil {
		t.Fatalf("second SyncFrom failed: %v", err)
	}
	if changed {
		t.Error("second SyncFrom should report no change")
	}
	if diff := cmp.Diff(first, dst.snapshot()); diff != "" {
		t.Errorf("second SyncFrom mutated destination (-first +second):\n%s", diff)
	}

	want := map[string]string{"a": "1", "b": "2"}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("destination mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncFromWithoutCleanUp(t *testing.T) {
	src := newMemStore("a", "1")
	dst := newMemStore("a", "1", "extra", "x")

	changed, err := SyncFrom(src, dst, false)
	if err != nil {
		t.Fatalf("SyncFrom failed: %v", err)
	}
	if changed {
		t.Error("SyncFrom without cleanup should not touch extra keys")
	}
	if _, ok, _ := dst.Get("extra"); !ok {
		t.Error("extra key was removed")
	}
}

func TestSyncFromCleanUpOnlyChange(t *testing.T) {
	src := newMemStore("a", "1")
	dst := newMemStore("a", "1", "extra", "x")

	changed, err := SyncFrom(src, dst, true)
	if err != nil {
		t.Fatalf("SyncFrom failed: %v", err)
	}
	if !changed {
		t.Error("a cleanup removal alone should report a change")
	}
}

func TestSyncAbortsOnError(t *testing.T) {
	src := newMemStore("a", "1", "b", "2", "c", "3")
	src.failOn = "b"
	dst := newMemStore()

	changed, err := Sync(src, dst)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Sync error = %v, want %v", err, errBoom)
	}
	if !changed {
		t.Error("changed should reflect the key written before the failure")
	}
	if diff := cmp.Diff(map[string]string{"a": "1"}, dst.snapshot()); diff != "" {
		t.Errorf("partial state mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncerRecordsChanges(t *testing.T) {
	src := newMemStore("a", "new")
	src.put("b", nil)
	dst := newMemStore("a", "old", "b", "x", "c", "y")

	s := NewSyncer(zerolog.Nop())
	if _, err := s.SyncFrom(src, dst, true); err != nil {
		t.Fatalf("SyncFrom failed: %v", err)
	}

	old, newValue, x, y := "old", "new", "x", "y"
	want := []Change{
		{Key: "c", Op: OpRemove, Old: &y},
		{Key: "a", Op: OpSet, Old: &old, New: &newValue},
		{Key: "b", Op: OpRemove, Old: &x},
	}
	if diff := cmp.Diff(want, s.Changes()); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}

	s.Reset()
	if len(s.Changes()) != 0 {
		t.Error("Reset should clear changes")
	}
}
