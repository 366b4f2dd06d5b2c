package component

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldSet is an embeddable StructuredNode implementation backed by
// reflection over the embedding struct. Field names are matched
// against the json tag first, then the lower-camel form of the Go
// field name, then the exact Go name.
//
// Nested field objects should be held by pointer (or be addressable)
// so writes through the path engine reach the live object.
type FieldSet struct {
	self reflect.Value
}

// BindFields binds the reflection target. Call it from the
// constructor with a pointer to the embedding struct.
func (f *FieldSet) BindFields(self any) {
	f.self = reflect.ValueOf(self)
}

// Field returns the named field's current value.
func (f *FieldSet) Field(name string) (any, bool) {
	fv, ok := f.fieldByName(name)
	if !ok {
		return nil, false
	}
	// Hand out addressable structs by pointer so nested writes stick.
	if fv.Kind() == reflect.Struct && fv.CanAddr() {
		return fv.Addr().Interface(), true
	}
	return fv.Interface(), true
}

// SetField writes the named field, converting the value to the
// field's type when needed.
func (f *FieldSet) SetField(name string, value any) bool {
	fv, ok := f.fieldByName(name)
	if !ok || !fv.CanSet() {
		return false
	}
	return assignValue(fv, value)
}

func (f *FieldSet) structValue() (reflect.Value, bool) {
	v := f.self
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

func (f *FieldSet) fieldByName(name string) (reflect.Value, bool) {
	sv, ok := f.structValue()
	if !ok {
		return reflect.Value{}, false
	}
	t := sv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if fieldMatches(sf, name) {
			return sv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func fieldMatches(sf reflect.StructField, name string) bool {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		tagName, _, _ := strings.Cut(tag, ",")
		if tagName != "" && tagName != "-" && tagName == name {
			return true
		}
	}
	return sf.Name == name || lowerFirst(sf.Name) == name
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// assignValue writes value into dst, converting between compatible
// kinds and falling back to a JSON round trip for structured values.
func assignValue(dst reflect.Value, value any) bool {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return true
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return true
	}
	if isNumeric(rv.Kind()) && isNumeric(dst.Kind()) {
		dst.Set(rv.Convert(dst.Type()))
		return true
	}
	if rv.Type().ConvertibleTo(dst.Type()) && rv.Kind() == dst.Kind() {
		dst.Set(rv.Convert(dst.Type()))
		return true
	}

	// Structured values (maps, slices) decoded from the wire.
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	target := reflect.New(dst.Type())
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return false
	}
	dst.Set(target.Elem())
	return true
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
