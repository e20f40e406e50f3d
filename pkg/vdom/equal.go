package vdom

import "reflect"

// PropsEqual compares two prop values for equality.
func PropsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// ShallowEqual compares a and b one level deep. Maps are equal when they
// hold the same keys and each pair of values is identical; slices, arrays
// and struct fields likewise element by element. Nested maps and slices are
// compared by identity, not recursively.
func ShallowEqual(a, b any) bool {
	if Identical(a, b) {
		return true
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map:
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			w := vb.MapIndex(iter.Key())
			if !w.IsValid() || !Identical(iter.Value().Interface(), w.Interface()) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !Identical(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range va.NumField() {
			if !identicalValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	}
	return false
}

// identicalValue is Identical for reflected values, which may come from
// unexported fields and so cannot go through Interface.
func identicalValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return identicalValue(a.Elem(), b.Elem())
	case reflect.Slice:
		return a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Struct:
		for i := range a.NumField() {
			if !identicalValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := range a.Len() {
			if !identicalValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	}
	return a.Equal(b)
}

// Identical reports whether a and b are the same value: == for comparable
// values, reference identity for maps, slices, funcs, channels and pointers.
func Identical(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		// Structs holding interfaces report comparable but may panic on ==.
		defer func() {
			if recover() != nil {
				same = false
			}
		}()
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
