package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AttrKind tags the concrete type held by an AttrValue
type AttrKind uint8

const (
	AttrInvalid AttrKind = iota
	AttrString
	AttrNumber
	AttrBool
)

// AttrValue is a small tagged union of string, number and boolean.
// Demand items carry arbitrary attributes (material, width_mm, ...) as a map of these.
type AttrValue struct {
	kind AttrKind
	str  string
	num  float64
	b    bool
}

// Attributes is the open key/value attribute map of a demand item
type Attributes map[string]AttrValue

func StringAttr(s string) AttrValue  { return AttrValue{kind: AttrString, str: s} }
func NumberAttr(n float64) AttrValue { return AttrValue{kind: AttrNumber, num: n} }
func BoolAttr(b bool) AttrValue      { return AttrValue{kind: AttrBool, b: b} }

func (v AttrValue) Kind() AttrKind { return v.kind }

func (v AttrValue) AsString() (string, bool) { return v.str, v.kind == AttrString }

func (v AttrValue) AsNumber() (float64, bool) { return v.num, v.kind == AttrNumber }

func (v AttrValue) AsBool() (bool, bool) { return v.b, v.kind == AttrBool }

// Text renders any kind as plain text
func (v AttrValue) Text() string {
	switch v.kind {
	case AttrString:
		return v.str
	case AttrNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case AttrBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v AttrValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AttrString:
		return json.Marshal(v.str)
	case AttrNumber:
		return json.Marshal(v.num)
	case AttrBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *AttrValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = StringAttr(x)
	case float64:
		*v = NumberAttr(x)
	case bool:
		*v = BoolAttr(x)
	default:
		return fmt.Errorf("attribute value must be a string, number or boolean, got %s", string(data))
	}
	return nil
}
