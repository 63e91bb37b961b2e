package core

// Ref is a field that is either a plain name typed by the user or a
// resolved server entity. It replaces the string-or-object duck typing the
// web client used for thirdParty/category/subCategory fields: the state is
// explicit instead of being inferred from a `.name` presence check.
type Ref[T any] struct {
	name     string
	entity   *T
	resolved bool
}

// Unresolved builds a Ref holding only a user-typed name.
func Unresolved[T any](name string) Ref[T] {
	return Ref[T]{name: name}
}

// Resolved builds a Ref holding a persisted entity.
func Resolved[T any](entity T) Ref[T] {
	return Ref[T]{entity: &entity, resolved: true}
}

// IsResolved reports whether the Ref holds an entity.
func (r Ref[T]) IsResolved() bool {
	return r.resolved
}

// IsZero reports whether the Ref holds neither a name nor an entity.
// Optional fields (sub-category) use the zero Ref for "absent".
func (r Ref[T]) IsZero() bool {
	return !r.resolved && r.name == ""
}

// Name returns the unresolved name, or "" once resolved.
func (r Ref[T]) Name() string {
	return r.name
}

// Entity returns the resolved entity and whether one is present.
func (r Ref[T]) Entity() (T, bool) {
	if !r.resolved {
		var zero T
		return zero, false
	}
	return *r.entity, true
}
