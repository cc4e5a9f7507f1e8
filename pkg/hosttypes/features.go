package hosttypes

import (
	"strconv"
	"strings"
)

// Feature is one token of a window feature string. Bare tokens have an empty Value.
type Feature struct {
	Key   string
	Value string
}

// Features is an ordered window feature list.
type Features []Feature

// ParseFeatures splits "chrome,dialog=no,width=300" into its tokens.
func ParseFeatures(s string) Features {
	var out Features
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, value, _ := strings.Cut(tok, "=")
		out = append(out, Feature{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return out
}

// String renders the features back to their comma separated form.
func (f Features) String() string {
	parts := make([]string, 0, len(f))
	for _, ft := range f {
		if ft.Value == "" {
			parts = append(parts, ft.Key)
			continue
		}
		parts = append(parts, ft.Key+"="+ft.Value)
	}
	return strings.Join(parts, ",")
}

// Get returns the value of key and whether it is present.
func (f Features) Get(key string) (string, bool) {
	for _, ft := range f {
		if ft.Key == key {
			return ft.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (f Features) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Enabled reports whether key is present and not switched off with "no" or "0".
func (f Features) Enabled(key string) bool {
	v, ok := f.Get(key)
	if !ok {
		return false
	}
	return v != "no" && v != "0"
}

// Int returns the integer value of key.
func (f Features) Int(key string) (int, bool) {
	v, ok := f.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Geometry positions a dialog explicitly instead of centering it. Zero
// fields are left out of its features.
type Geometry struct {
	X, Y, Width, Height int
}

// Features returns the screenX/screenY/width/height tokens that are set.
func (g Geometry) Features() Features {
	var out Features
	for _, f := range []struct {
		key string
		v   int
	}{{"screenX", g.X}, {"screenY", g.Y}, {"width", g.Width}, {"height", g.Height}} {
		if f.v != 0 {
			out = append(out, Feature{Key: f.key, Value: strconv.Itoa(f.v)})
		}
	}
	return out
}
