package types

import (
	"github.com/google/uuid"

	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

// BuiltinKind is the numeric builtin type id used on the wire inside a
// Variant's encoding mask (OPC UA Part 6 Table 14).
type BuiltinKind byte

const (
	KindBoolean BuiltinKind = iota + 1
	KindSByte
	KindByte
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat
	KindDouble
	KindString
	KindDateTime
	KindGUID
	KindByteString
	KindXmlElement
	KindNodeId
	KindExpandedNodeId
	KindStatusCode
	KindQualifiedName
	KindLocalizedText
	KindExtensionObject
	KindDataValue
	KindVariant
	KindDiagnosticInfo
)

const (
	variantArrayFlag     byte = 0x80
	variantDimsFlag      byte = 0x40
	variantTypeMask      byte = 0x3F
)

// Variant holds a scalar of a known builtin kind, a flat array of one
// kind (optionally with multi-dimension shape), or nothing
// (spec.md §3). Arrays of Variant/DiagnosticInfo are permitted on the
// wire but never as the element of another array (Part 6 Table 15).
type Variant struct {
	Empty bool
	Kind  BuiltinKind

	// Scalar holds the value when !IsArray. Its concrete Go type
	// matches Kind (bool, int8, ..., NodeId, ExtensionObject, ...).
	Scalar any

	IsArray bool
	// Array holds one element per flattened entry, len(Array) ==
	// product(Dimensions) when Dimensions is set.
	Array      []any
	Dimensions []int32
}

func NewScalarVariant(kind BuiltinKind, v any) Variant {
	return Variant{Kind: kind, Scalar: v}
}

func NewArrayVariant(kind BuiltinKind, v []any, dims []int32) Variant {
	return Variant{Kind: kind, IsArray: true, Array: v, Dimensions: dims}
}

func (v Variant) EncodeBinary(w binary.Writer) error {
	if v.Empty {
		return w.WriteByte(0)
	}
	mask := byte(v.Kind) & variantTypeMask
	if v.IsArray {
		mask |= variantArrayFlag
		if len(v.Dimensions) > 0 {
			mask |= variantDimsFlag
		}
	}
	if err := w.WriteByte(mask); err != nil {
		return err
	}
	if !v.IsArray {
		return encodeScalar(w, v.Kind, v.Scalar)
	}
	if err := binary.WriteInt32(w, int32(len(v.Array))); err != nil {
		return err
	}
	for _, e := range v.Array {
		if err := encodeScalar(w, v.Kind, e); err != nil {
			return err
		}
	}
	if len(v.Dimensions) > 0 {
		if err := binary.WriteInt32(w, int32(len(v.Dimensions))); err != nil {
			return err
		}
		for _, d := range v.Dimensions {
			if err := binary.WriteInt32(w, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func ReadVariant(r *binary.Reader) (Variant, error) {
	mask, err := r.ReadByte()
	if err != nil {
		return Variant{}, err
	}
	if mask == 0 {
		return Variant{Empty: true}, nil
	}
	kind := BuiltinKind(mask & variantTypeMask)
	isArray := mask&variantArrayFlag != 0
	hasDims := mask&variantDimsFlag != 0

	if !isArray {
		val, err := decodeScalar(r, kind)
		if err != nil {
			return Variant{}, err
		}
		return NewScalarVariant(kind, val), nil
	}

	n, err := binary.ReadInt32(r)
	if err != nil {
		return Variant{}, err
	}
	var arr []any
	if n >= 0 {
		arr = make([]any, n)
		for i := range arr {
			val, err := decodeScalar(r, kind)
			if err != nil {
				return Variant{}, err
			}
			arr[i] = val
		}
	}

	var dims []int32
	if hasDims {
		dn, err := binary.ReadInt32(r)
		if err != nil {
			return Variant{}, err
		}
		if dn < 0 {
			return Variant{}, status.BadDecodingError
		}
		dims = make([]int32, dn)
		product := int32(1)
		for i := range dims {
			d, err := binary.ReadInt32(r)
			if err != nil {
				return Variant{}, err
			}
			dims[i] = d
			product *= d
		}
		if n >= 0 && product != n {
			return Variant{}, status.BadDecodingError
		}
	}

	return Variant{Kind: kind, IsArray: true, Array: arr, Dimensions: dims}, nil
}

func encodeScalar(w binary.Writer, kind BuiltinKind, v any) error {
	switch kind {
	case KindBoolean:
		return binary.WriteBool(w, v.(bool))
	case KindSByte:
		return binary.WriteSByte(w, v.(int8))
	case KindByte:
		return binary.WriteByte(w, v.(byte))
	case KindInt16:
		return binary.WriteInt16(w, v.(int16))
	case KindUInt16:
		return binary.WriteUint16(w, v.(uint16))
	case KindInt32:
		return binary.WriteInt32(w, v.(int32))
	case KindUInt32:
		return binary.WriteUint32(w, v.(uint32))
	case KindInt64:
		return binary.WriteInt64(w, v.(int64))
	case KindUInt64:
		return binary.WriteUint64(w, v.(uint64))
	case KindFloat:
		return binary.WriteFloat(w, v.(float32))
	case KindDouble:
		return binary.WriteDouble(w, v.(float64))
	case KindString:
		s := v.(NullableString)
		return binary.WriteString(w, s.Value, s.Valid)
	case KindDateTime:
		return binary.WriteInt64(w, v.(int64))
	case KindGUID:
		return writeGUID(w, v.(guidValue).id)
	case KindByteString:
		b := v.(NullableBytes)
		return binary.WriteByteArray(w, b.Value, b.Valid)
	case KindNodeId:
		return v.(NodeId).EncodeBinary(w)
	case KindExpandedNodeId:
		return v.(ExpandedNodeId).EncodeBinary(w)
	case KindStatusCode:
		return binary.WriteUint32(w, uint32(v.(uint32)))
	case KindQualifiedName:
		return v.(QualifiedName).EncodeBinary(w)
	case KindLocalizedText:
		return v.(LocalizedText).EncodeBinary(w)
	case KindExtensionObject:
		return v.(ExtensionObject).EncodeBinary(w)
	case KindDataValue:
		return v.(DataValue).EncodeBinary(w)
	default:
		return status.BadEncodingError
	}
}

func decodeScalar(r *binary.Reader, kind BuiltinKind) (any, error) {
	switch kind {
	case KindBoolean:
		return binary.ReadBool(r)
	case KindSByte:
		return binary.ReadSByte(r)
	case KindByte:
		return r.ReadByte()
	case KindInt16:
		return binary.ReadInt16(r)
	case KindUInt16:
		return binary.ReadUInt16(r)
	case KindInt32:
		return binary.ReadInt32(r)
	case KindUInt32:
		return binary.ReadUInt32(r)
	case KindInt64:
		return binary.ReadInt64(r)
	case KindUInt64:
		return binary.ReadUInt64(r)
	case KindFloat:
		return binary.ReadFloat(r)
	case KindDouble:
		return binary.ReadDouble(r)
	case KindString:
		s, ok, err := binary.ReadString(r)
		return NullableString{Value: s, Valid: ok}, err
	case KindDateTime:
		return binary.ReadInt64(r)
	case KindGUID:
		g, err := readGUID(r)
		return guidValue{id: g}, err
	case KindByteString:
		b, ok, err := binary.ReadByteArray(r)
		return NullableBytes{Value: b, Valid: ok}, err
	case KindNodeId:
		return ReadNodeId(r)
	case KindExpandedNodeId:
		return ReadExpandedNodeId(r)
	case KindStatusCode:
		return binary.ReadUInt32(r)
	case KindQualifiedName:
		return ReadQualifiedName(r)
	case KindLocalizedText:
		return ReadLocalizedText(r)
	case KindExtensionObject:
		return ReadExtensionObject(r)
	case KindDataValue:
		return ReadDataValue(r)
	default:
		return nil, status.BadDecodingError
	}
}

// NullableString and NullableBytes distinguish the null and empty
// forms of String/ByteString inside a Variant scalar slot
// (spec.md §3: "the null string and the empty string are distinct").
type NullableString struct {
	Valid bool
	Value string
}

type NullableBytes struct {
	Valid bool
	Value []byte
}

type guidValue struct{ id uuid.UUID }
