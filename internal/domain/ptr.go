package domain

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// Deref returns *p, or fallback when p is nil. Pin overrides resolve this way.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Or returns the first non-zero value.
func Or[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
