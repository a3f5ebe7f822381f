package reconcile

import "reflect"

// Field declares one tracked field of an entity type as a pair of accessors
// and a mutator. The comparator is generic over the declaration, so each
// field's truth is stated in exactly one place instead of a hand-written
// compare branch plus a separate assignment.
type Field[E any, R any] struct {
	// Name is the field's label in change logs.
	Name string
	// Current reads the stored value from the entity.
	Current func(E) any
	// Incoming reads the externally observed value from the record.
	Incoming func(R) any
	// Assign writes the incoming value into the entity.
	Assign func(E, R)
}

// ApplyFields compares every declared field of e against r, assigning the
// incoming value where it differs. It returns the names of changed fields,
// preserving a per-field audit trail. Equality is exact per field; pointer
// values compare by pointee.
func ApplyFields[E any, R any](e E, r R, fields []Field[E, R]) []string {
	var changed []string
	for _, f := range fields {
		if reflect.DeepEqual(f.Current(e), f.Incoming(r)) {
			continue
		}
		f.Assign(e, r)
		changed = append(changed, f.Name)
	}
	return changed
}
