package patient

import "encoding/json"

// Field carries a value together with whether it was supplied at all, so a
// partial update can tell "not provided" apart from "explicitly null".
type Field[T any] struct {
	Set   bool
	Value *T
}

// Some returns a supplied field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a supplied field that clears the value.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// IsNull reports whether the field was supplied as an explicit null.
func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
