package ifc

// ValueKind tells which field of a Value is meaningful
type ValueKind int

const (
	KindNull    ValueKind = iota // $
	KindDerived                  // *
	KindRef                      // #12
	KindString                   // 'text'
	KindEnum                     // .ELEMENT.
	KindNumber                   // 1.5E-3
	KindList                     // (a,b,c)
	KindTyped                    // IFCLABEL('x')
)

// Value is one attribute of a STEP instance
type Value struct {
	Kind ValueKind
	Ref  int
	Str  string // string content, enumeration literal or type name of a typed value
	Num  float64
	List []Value // list items, or the single wrapped value of a typed value
}

// IsNull reports whether the attribute is unset ($) or derived (*)
func (v Value) IsNull() bool {
	return v.Kind == KindNull || v.Kind == KindDerived
}

// AsRef returns the referenced instance id
func (v Value) AsRef() (int, bool) {
	if v.Kind != KindRef {
		return 0, false
	}
	return v.Ref, true
}

// AsString returns string content; typed values are unwrapped
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindTyped:
		if len(v.List) == 1 {
			return v.List[0].AsString()
		}
	}
	return "", false
}

// AsEnum returns the enumeration literal without dots
func (v Value) AsEnum() (string, bool) {
	if v.Kind != KindEnum {
		return "", false
	}
	return v.Str, true
}

// AsNumber returns a numeric value; typed values such as IFCLENGTHMEASURE(1.) are unwrapped
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindTyped:
		if len(v.List) == 1 {
			return v.List[0].AsNumber()
		}
	}
	return 0, false
}

// AsList returns list items
func (v Value) AsList() ([]Value, bool) {
	if v.Kind != KindList {
		return nil, false
	}
	return v.List, true
}

// Numbers returns the numeric items of a list, skipping anything else
func (v Value) Numbers() []float64 {
	result := make([]float64, 0, len(v.List))
	for _, item := range v.List {
		if n, ok := item.AsNumber(); ok {
			result = append(result, n)
		}
	}
	return result
}

// Refs returns the referenced ids of a list, skipping anything else
func (v Value) Refs() []int {
	result := make([]int, 0, len(v.List))
	for _, item := range v.List {
		if id, ok := item.AsRef(); ok {
			result = append(result, id)
		}
	}
	return result
}
