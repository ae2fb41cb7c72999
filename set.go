package api

import (
	"encoding/json"
	"reflect"
	"slices"
)

// Set is a collection of unique values. Duplicates are collapsed on insert
// and the first occurrence keeps its position. It serializes as an array.
type Set[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewSet returns a set holding vals without duplicates.
func NewSet[T comparable](vals ...T) Set[T] {
	var s Set[T]
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was not present yet.
func (s *Set[T]) Add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of values.
func (s Set[T]) Len() int { return len(s.items) }

// Values returns a copy of the values.
func (s Set[T]) Values() []T { return slices.Clone(s.items) }

// MarshalJSON encodes the set as an array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes an array, dropping duplicates.
func (s *Set[T]) UnmarshalJSON(b []byte) error {
	var vals []T
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	*s = NewSet(vals...)
	return nil
}

// MarshalYAML encodes the set as a sequence.
func (s Set[T]) MarshalYAML() (any, error) {
	if s.items == nil {
		return []T{}, nil
	}
	return s.items, nil
}

func (s *Set[T]) elemType() reflect.Type { return reflect.TypeFor[T]() }

func (s *Set[T]) addValue(v reflect.Value) { s.Add(v.Interface().(T)) }

func (s Set[T]) sliceValue() reflect.Value { return reflect.ValueOf(s.items) }

// setSink and setSource let the binder and the serializer reach a Set of
// any element type through reflection.
type setSink interface {
	elemType() reflect.Type
	addValue(v reflect.Value)
}

type setSource interface {
	sliceValue() reflect.Value
}

var setSinkType = reflect.TypeFor[setSink]()

func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(setSinkType)
}

func setElemType(t reflect.Type) reflect.Type {
	return reflect.New(t).Interface().(setSink).elemType()
}
