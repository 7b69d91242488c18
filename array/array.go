package array

import (
	"fmt"
	"reflect"

	"github.com/objlink/objlink/errors"
	"github.com/objlink/objlink/marshal"
)

// Array is a fixed-shape host array exposed to the script runtime.
// Dimensions are fixed at creation; multidimensional arrays are nested
// slices allocated eagerly, so every row of a dimension has the same
// length. Indices at the boundary are 1-based and translated here.
type Array struct {
	dims      []int
	elem      reflect.Type
	data      reflect.Value
	marshaler *marshal.Marshaler
}

// New allocates an array of elem with the given dimensions. At least one
// dimension is required and no dimension may be negative; zero-length
// dimensions are legal and yield an empty array.
func New(m *marshal.Marshaler, elem reflect.Type, dims ...int) (*Array, error) {
	if elem == nil {
		return nil, errors.InvalidInput(errors.StageArray, "element type is required")
	}
	if len(dims) == 0 {
		return nil, errors.InvalidInput(errors.StageArray, "array requires at least one dimension")
	}
	for _, d := range dims {
		if d < 0 {
			return nil, errors.InvalidInput(errors.StageArray, fmt.Sprintf("negative dimension %d", d))
		}
	}
	return &Array{
		dims:      append([]int(nil), dims...),
		elem:      elem,
		data:      alloc(elem, dims),
		marshaler: m,
	}, nil
}

// alloc builds the nested slice value for dims, innermost type first.
func alloc(elem reflect.Type, dims []int) reflect.Value {
	typ := elem
	for range dims {
		typ = reflect.SliceOf(typ)
	}
	return allocInto(typ, dims)
}

func allocInto(typ reflect.Type, dims []int) reflect.Value {
	v := reflect.MakeSlice(typ, dims[0], dims[0])
	if len(dims) > 1 {
		for i := 0; i < dims[0]; i++ {
			v.Index(i).Set(allocInto(typ.Elem(), dims[1:]))
		}
	}
	return v
}

// FromSlice wraps an existing host slice as a one-dimensional array view.
// Mutations through the array are visible to holders of the slice.
func FromSlice(m *marshal.Marshaler, v any) (*Array, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, errors.InvalidInput(errors.StageArray, "value is not a slice")
	}
	return &Array{
		dims:      []int{rv.Len()},
		elem:      rv.Type().Elem(),
		data:      rv,
		marshaler: m,
	}, nil
}

// Dims returns the array's shape.
func (a *Array) Dims() []int { return append([]int(nil), a.dims...) }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.dims) }

// Len returns the length of the first dimension, the value the script
// runtime's length operator reports.
func (a *Array) Len() int { return a.dims[0] }

// Elem returns the element type.
func (a *Array) Elem() reflect.Type { return a.elem }

// Value returns the backing nested slice.
func (a *Array) Value() reflect.Value { return a.data }

// Get reads the element at the given 1-based indices, one per dimension,
// converted to its script representation.
func (a *Array) Get(indices ...int) (any, error) {
	cell, err := a.cell(indices)
	if err != nil {
		return nil, err
	}
	return a.marshaler.ToScript(cell.Interface(), marshal.ModeFull), nil
}

// Set writes value at the given 1-based indices, converting it against
// the element type. Conversion failure is a type mismatch, not a silent
// zero write.
func (a *Array) Set(value any, indices ...int) error {
	cell, err := a.cell(indices)
	if err != nil {
		return err
	}
	rv, ok := a.marshaler.ToHost(value, a.elem)
	if !ok {
		return errors.TypeMismatch(errors.StageArray, nil, fmt.Sprintf("%T", value), a.elem.String())
	}
	cell.Set(rv)
	return nil
}

// Sub returns the 1-based index'th row of a multidimensional array as an
// array view sharing the same backing storage.
func (a *Array) Sub(index int) (*Array, error) {
	if len(a.dims) < 2 {
		return nil, errors.InvalidInput(errors.StageArray, "array is one-dimensional")
	}
	if index < 1 || index > a.dims[0] {
		return nil, errors.OutOfBounds(index, a.dims[0])
	}
	return &Array{
		dims:      append([]int(nil), a.dims[1:]...),
		elem:      a.elem,
		data:      a.data.Index(index - 1),
		marshaler: a.marshaler,
	}, nil
}

// cell walks the nested slices to the addressed element. Every index is
// 1-based and checked against its dimension.
func (a *Array) cell(indices []int) (reflect.Value, error) {
	if len(indices) != len(a.dims) {
		return reflect.Value{}, errors.InvalidInput(errors.StageArray,
			fmt.Sprintf("got %d indices for rank %d array", len(indices), len(a.dims)))
	}
	v := a.data
	for depth, idx := range indices {
		if idx < 1 || idx > a.dims[depth] {
			return reflect.Value{}, errors.OutOfBounds(idx, a.dims[depth])
		}
		v = v.Index(idx - 1)
	}
	return v, nil
}

// ConvertToHost lets arrays flow directly into host parameters typed as
// the backing slice, so a bridge-allocated array can be passed to host
// methods without an element-wise copy.
func (a *Array) ConvertToHost(target reflect.Type) (reflect.Value, bool) {
	if a.data.Type().AssignableTo(target) {
		return a.data, true
	}
	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		return reflect.ValueOf(a), true
	}
	return reflect.Value{}, false
}
