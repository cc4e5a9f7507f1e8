// Package mixin merges property maps into a target in place.
package mixin

import "reflect"

// Merge copies source then extras into target and returns target.
// Later keys win. Nil values are skipped, as are values that are the target
// map itself. A nil target is replaced by a new map.
func Merge(target, source, extras map[string]any) map[string]any {
	return Extend(target, source, extras)
}

// Extend is the variadic form of Merge.
func Extend(target map[string]any, sources ...map[string]any) map[string]any {
	if target == nil {
		size := 0
		for _, s := range sources {
			size += len(s)
		}
		target = make(map[string]any, size)
	}

	self := reflect.ValueOf(target).Pointer()
	for _, src := range sources {
		for k, v := range src {
			if v == nil || isSelf(v, self) {
				continue
			}
			target[k] = v
		}
	}
	return target
}

// isSelf reports whether v is the map whose header pointer is self.
func isSelf(v any, self uintptr) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return false
	}
	return rv.Pointer() == self
}

// Clone returns a shallow copy of m.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
