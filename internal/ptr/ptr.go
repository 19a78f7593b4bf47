// Package ptr provides pointer helper functions.
// Similar to k8s.io/utils/ptr for working with optional schedule fields.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// Deref dereferences ptr and returns the value it points to if no nil,
// or else returns def.
func Deref[T any](ptr *T, def T) T {
	if ptr != nil {
		return *ptr
	}
	return def
}

// Clone returns a pointer to a copy of *p, or nil when p is nil.
// Use it to keep optional override fields from aliasing between copies.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
