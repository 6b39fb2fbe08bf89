package translation

import "slices"

// Restrict returns a view of src whose Keys only reports keys that are also
// in keys. Get, Set and Remove go straight to src.
func Restrict(src Store, keys []string) Store {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	return &restricted{Store: src, allowed: allowed}
}

type restricted struct {
	Store
	allowed map[string]bool
}

func (r *restricted) Keys() []string {
	var keys []string
	for _, k := range r.Store.Keys() {
		if r.allowed[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// WithKeys returns a view of src whose Keys reports exactly keys, in the
// given order. Keys src does not hold read as absent, so syncing from the
// view removes them from the destination.
func WithKeys(src Store, keys []string) Store {
	return &withKeys{Store: src, keys: slices.Clone(keys)}
}

type withKeys struct {
	Store
	keys []string
}

func (w *withKeys) Keys() []string { return slices.Clone(w.keys) }
