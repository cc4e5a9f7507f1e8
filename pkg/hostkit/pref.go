package hostkit

import (
	"github.com/spf13/cast"

	"hostkit/pkg/hosttypes"
)

// Pref reads and writes preferences through the preferences-service capability.
// Every method takes an optional branch; nil means the root branch.
type Pref struct {
	k *Kit
}

// GetPrefService returns the root preference branch.
func (p *Pref) GetPrefService() (hosttypes.PrefBranch, error) {
	return use[hosttypes.PrefBranch](p.k, "Pref.GetPrefService", hosttypes.CapPreferences)
}

func (p *Pref) branch(op string, b hosttypes.PrefBranch) (hosttypes.PrefBranch, error) {
	if b != nil {
		return b, nil
	}
	return use[hosttypes.PrefBranch](p.k, op, hosttypes.CapPreferences)
}

// GetPref returns the value of name as a string, int or bool, depending on
// its stored type. A missing preference is KindNotFound.
func (p *Pref) GetPref(name string, b hosttypes.PrefBranch) (any, error) {
	const op = "Pref.GetPref"
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	prefs, err := p.branch(op, b)
	if err != nil {
		return nil, err
	}

	v, err := try(op, func() (any, error) {
		switch prefs.Type(name) {
		case hosttypes.PrefString:
			return prefs.GetString(name)
		case hosttypes.PrefInt:
			return prefs.GetInt(name)
		case hosttypes.PrefBool:
			return prefs.GetBool(name)
		default:
			return nil, hosttypes.NewError(op, hosttypes.KindNotFound, "no preference %q", name)
		}
	})
	if err != nil {
		if hosttypes.KindOf(err) == hosttypes.KindNotFound {
			return nil, err
		}
		return nil, p.k.fail(op, err)
	}
	return v, nil
}

// SetPref stores value under name. An existing preference keeps its type
// and value is converted to it; a new one takes the type of value.
func (p *Pref) SetPref(name string, value any, b hosttypes.PrefBranch) error {
	const op = "Pref.SetPref"
	if name == "" {
		return invalid(op, "name is required")
	}
	prefs, err := p.branch(op, b)
	if err != nil {
		return err
	}

	t, err := try(op, func() (hosttypes.PrefType, error) { return prefs.Type(name), nil })
	if err != nil {
		return p.k.fail(op, err)
	}
	if t == hosttypes.PrefInvalid {
		t = prefTypeOf(value)
	}
	return p.set(op, prefs, name, t, value)
}

// AddPref stores value under name with the type of value. Values that are
// not strings, integers or booleans are stored as their JSON encoding.
func (p *Pref) AddPref(name string, value any, b hosttypes.PrefBranch) error {
	const op = "Pref.AddPref"
	if name == "" {
		return invalid(op, "name is required")
	}
	prefs, err := p.branch(op, b)
	if err != nil {
		return err
	}

	t := prefTypeOf(value)
	if t == hosttypes.PrefInvalid {
		encoded, err := p.k.JSON.Encode(value)
		if err != nil {
			return err
		}
		value, t = encoded, hosttypes.PrefString
	}
	return p.set(op, prefs, name, t, value)
}

func (p *Pref) set(op string, prefs hosttypes.PrefBranch, name string, t hosttypes.PrefType, value any) error {
	var store func() error
	switch t {
	case hosttypes.PrefString:
		s, err := cast.ToStringE(value)
		if err != nil {
			return hosttypes.WrapError(op, hosttypes.KindInvalidArgument, err)
		}
		store = func() error { return prefs.SetString(name, s) }
	case hosttypes.PrefInt:
		i, err := cast.ToIntE(value)
		if err != nil {
			return hosttypes.WrapError(op, hosttypes.KindInvalidArgument, err)
		}
		store = func() error { return prefs.SetInt(name, i) }
	case hosttypes.PrefBool:
		bv, err := cast.ToBoolE(value)
		if err != nil {
			return hosttypes.WrapError(op, hosttypes.KindInvalidArgument, err)
		}
		store = func() error { return prefs.SetBool(name, bv) }
	default:
		return invalid(op, "cannot store %T in preference %q", value, name)
	}

	if err := tryDo(op, store); err != nil {
		return p.k.fail(op, err)
	}
	return nil
}

func prefTypeOf(v any) hosttypes.PrefType {
	switch v.(type) {
	case string:
		return hosttypes.PrefString
	case bool:
		return hosttypes.PrefBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return hosttypes.PrefInt
	default:
		return hosttypes.PrefInvalid
	}
}
