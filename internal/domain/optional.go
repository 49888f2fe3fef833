package domain

import (
	"encoding/json"
	"fmt"
)

// OptionalFloat distinguishes "not supplied" from an explicit zero.
// The zero value is absent. JSON null also decodes as absent.
type OptionalFloat struct {
	value float64
	set   bool
}

// Some returns an OptionalFloat holding v.
func Some(v float64) OptionalFloat {
	return OptionalFloat{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o OptionalFloat) Get() (float64, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o OptionalFloat) IsSet() bool {
	return o.set
}

// Or returns the supplied value, or def when absent.
func (o OptionalFloat) Or(def float64) float64 {
	if o.set {
		return o.value
	}
	return def
}

func (o OptionalFloat) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprintf("%g", o.value)
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("optional number: %w", err)
	}
	*o = Some(v)
	return nil
}
