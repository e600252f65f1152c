package typetable

import (
	"reflect"

	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

// Member describes one field of a generic Struct/OptStruct/Union for
// the generic walker below (spec.md §4.2: "name, offset, type-pointer,
// is-array, is-optional"). FieldName must name an exported Go struct
// field reachable by reflection; Kind selects the member's codec via
// the Table passed to Encode/Decode.
type Member struct {
	FieldName string
	Kind      Kind
	IsArray   bool
	Optional  bool
}

// Layout is the member list for one generic Struct/OptStruct/Union
// type (spec.md §4.2). OptStruct gates Optional members behind a
// leading UInt32 presence bitmask; a plain Struct has no Optional
// members and no bitmask; Union is layout-incompatible with the other
// two and is handled by EncodeUnion/DecodeUnion instead.
type Layout struct {
	Name      string
	Members   []Member
	OptStruct bool
}

// EncodeStruct walks Members in declaration order, writing the
// OptStruct presence bitmask first when applicable, then each present
// member: arrays as Int32 length (-1 for null) followed by elements,
// scalars directly (spec.md §4.2).
func EncodeStruct(t *Table, w binary.Writer, l Layout, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return status.BadEncodingError
	}

	presentIdx := -1
	if l.OptStruct {
		var mask uint32
		for i, m := range l.Members {
			if !m.Optional {
				continue
			}
			fv := rv.FieldByName(m.FieldName)
			if fv.IsValid() && !fv.IsZero() {
				mask |= 1 << uint(optionalBitIndex(l, i))
			}
		}
		if err := binary.WriteUint32(w, mask); err != nil {
			return err
		}
		presentIdx = int(mask)
	}

	for i, m := range l.Members {
		fv := rv.FieldByName(m.FieldName)
		if !fv.IsValid() {
			return status.BadEncodingError
		}
		if m.Optional {
			bit := uint(optionalBitIndex(l, i))
			if presentIdx&(1<<bit) == 0 {
				continue
			}
		}
		if m.IsArray {
			if err := encodeArrayMember(t, w, m, fv); err != nil {
				return err
			}
			continue
		}
		if err := t.EncodeBinary(w, m.Kind, fv.Interface()); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStruct is the inverse of EncodeStruct; v must be a non-nil
// pointer to the destination struct.
func DecodeStruct(t *Table, r *binary.Reader, l Layout, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return status.BadDecodingError
	}
	rv = rv.Elem()

	var mask uint32
	if l.OptStruct {
		m, err := binary.ReadUInt32(r)
		if err != nil {
			return err
		}
		mask = m
	}

	for i, m := range l.Members {
		if m.Optional {
			bit := uint(optionalBitIndex(l, i))
			if mask&(1<<bit) == 0 {
				continue
			}
		}
		fv := rv.FieldByName(m.FieldName)
		if !fv.IsValid() || !fv.CanSet() {
			return status.BadDecodingError
		}
		if m.IsArray {
			if err := decodeArrayMember(t, r, m, fv); err != nil {
				return err
			}
			continue
		}
		val, err := t.DecodeBinary(r, m.Kind)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(val))
	}
	return nil
}

// optionalBitIndex returns the 0-based rank of member i among the
// layout's Optional members, matching the order the presence bitmask
// is built in.
func optionalBitIndex(l Layout, i int) int {
	bit := 0
	for j := 0; j < i; j++ {
		if l.Members[j].Optional {
			bit++
		}
	}
	return bit
}

func encodeArrayMember(t *Table, w binary.Writer, m Member, fv reflect.Value) error {
	if fv.IsNil() {
		return binary.WriteInt32(w, -1)
	}
	n := fv.Len()
	if err := binary.WriteInt32(w, int32(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := t.EncodeBinary(w, m.Kind, fv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func decodeArrayMember(t *Table, r *binary.Reader, m Member, fv reflect.Value) error {
	n, err := binary.ReadInt32(r)
	if err != nil {
		return err
	}
	if n < 0 {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	elemType := fv.Type().Elem()
	slice := reflect.MakeSlice(fv.Type(), int(n), int(n))
	for i := 0; i < int(n); i++ {
		val, err := t.DecodeBinary(r, m.Kind)
		if err != nil {
			return err
		}
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(elemType) && rv.Type().ConvertibleTo(elemType) {
			rv = rv.Convert(elemType)
		}
		slice.Index(i).Set(rv)
	}
	fv.Set(slice)
	return nil
}

// EncodeUnion writes the 1-based switch index followed by the chosen
// member's encoding (spec.md §4.2).
func EncodeUnion(t *Table, w binary.Writer, switchIdx uint32, kind Kind, v any) error {
	if err := binary.WriteUint32(w, switchIdx); err != nil {
		return err
	}
	if switchIdx == 0 {
		return nil // no active member
	}
	return t.EncodeBinary(w, kind, v)
}

// DecodeUnion reads the switch index and, if nonzero, decodes the
// member selected by kindFor(switchIdx).
func DecodeUnion(t *Table, r *binary.Reader, kindFor func(uint32) (Kind, bool)) (switchIdx uint32, value any, err error) {
	switchIdx, err = binary.ReadUInt32(r)
	if err != nil {
		return 0, nil, err
	}
	if switchIdx == 0 {
		return 0, nil, nil
	}
	kind, ok := kindFor(switchIdx)
	if !ok {
		return 0, nil, status.BadDecodingError
	}
	value, err = t.DecodeBinary(r, kind)
	return switchIdx, value, err
}
