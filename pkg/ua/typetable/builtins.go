package typetable

import (
	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/types"
)

func init() {
	registerScalar(types.KindBoolean, "Boolean", 1,
		func(w binary.Writer, v any) error { return binary.WriteBool(w, v.(bool)) },
		func(r *binary.Reader) (any, error) { return binary.ReadBool(r) },
	)
	registerScalar(types.KindSByte, "SByte", 1,
		func(w binary.Writer, v any) error { return binary.WriteSByte(w, v.(int8)) },
		func(r *binary.Reader) (any, error) { return binary.ReadSByte(r) },
	)
	registerScalar(types.KindByte, "Byte", 1,
		func(w binary.Writer, v any) error { return binary.WriteByte(w, v.(byte)) },
		func(r *binary.Reader) (any, error) { return r.ReadByte() },
	)
	registerScalar(types.KindInt16, "Int16", 2,
		func(w binary.Writer, v any) error { return binary.WriteInt16(w, v.(int16)) },
		func(r *binary.Reader) (any, error) { return binary.ReadInt16(r) },
	)
	registerScalar(types.KindUInt16, "UInt16", 2,
		func(w binary.Writer, v any) error { return binary.WriteUint16(w, v.(uint16)) },
		func(r *binary.Reader) (any, error) { return binary.ReadUInt16(r) },
	)
	registerScalar(types.KindInt32, "Int32", 4,
		func(w binary.Writer, v any) error { return binary.WriteInt32(w, v.(int32)) },
		func(r *binary.Reader) (any, error) { return binary.ReadInt32(r) },
	)
	registerScalar(types.KindUInt32, "UInt32", 4,
		func(w binary.Writer, v any) error { return binary.WriteUint32(w, v.(uint32)) },
		func(r *binary.Reader) (any, error) { return binary.ReadUInt32(r) },
	)
	registerScalar(types.KindInt64, "Int64", 8,
		func(w binary.Writer, v any) error { return binary.WriteInt64(w, v.(int64)) },
		func(r *binary.Reader) (any, error) { return binary.ReadInt64(r) },
	)
	registerScalar(types.KindUInt64, "UInt64", 8,
		func(w binary.Writer, v any) error { return binary.WriteUint64(w, v.(uint64)) },
		func(r *binary.Reader) (any, error) { return binary.ReadUInt64(r) },
	)
	registerScalar(types.KindFloat, "Float", 4,
		func(w binary.Writer, v any) error { return binary.WriteFloat(w, v.(float32)) },
		func(r *binary.Reader) (any, error) { return binary.ReadFloat(r) },
	)
	registerScalar(types.KindDouble, "Double", 8,
		func(w binary.Writer, v any) error { return binary.WriteDouble(w, v.(float64)) },
		func(r *binary.Reader) (any, error) { return binary.ReadDouble(r) },
	)
	registerScalar(types.KindDateTime, "DateTime", 8,
		func(w binary.Writer, v any) error { return binary.WriteInt64(w, v.(int64)) },
		func(r *binary.Reader) (any, error) { return binary.ReadInt64(r) },
	)
	registerScalar(types.KindStatusCode, "StatusCode", 4,
		func(w binary.Writer, v any) error { return binary.WriteUint32(w, v.(uint32)) },
		func(r *binary.Reader) (any, error) { return binary.ReadUInt32(r) },
	)

	registerVariable(types.KindString, "String",
		func(w binary.Writer, v any) error {
			s := v.(types.NullableString)
			return binary.WriteString(w, s.Value, s.Valid)
		},
		func(r *binary.Reader) (any, error) {
			s, ok, err := binary.ReadString(r)
			return types.NullableString{Value: s, Valid: ok}, err
		},
	)
	registerVariable(types.KindByteString, "ByteString",
		func(w binary.Writer, v any) error {
			b := v.(types.NullableBytes)
			return binary.WriteByteArray(w, b.Value, b.Valid)
		},
		func(r *binary.Reader) (any, error) {
			b, ok, err := binary.ReadByteArray(r)
			return types.NullableBytes{Value: b, Valid: ok}, err
		},
	)
	registerVariable(types.KindNodeId, "NodeId",
		func(w binary.Writer, v any) error { return v.(types.NodeId).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadNodeId(r) },
	)
	registerVariable(types.KindExpandedNodeId, "ExpandedNodeId",
		func(w binary.Writer, v any) error { return v.(types.ExpandedNodeId).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadExpandedNodeId(r) },
	)
	registerVariable(types.KindQualifiedName, "QualifiedName",
		func(w binary.Writer, v any) error { return v.(types.QualifiedName).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadQualifiedName(r) },
	)
	registerVariable(types.KindLocalizedText, "LocalizedText",
		func(w binary.Writer, v any) error { return v.(types.LocalizedText).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadLocalizedText(r) },
	)
	registerVariable(types.KindExtensionObject, "ExtensionObject",
		func(w binary.Writer, v any) error { return v.(types.ExtensionObject).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadExtensionObject(r) },
	)
	registerVariable(types.KindDataValue, "DataValue",
		func(w binary.Writer, v any) error { return v.(types.DataValue).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadDataValue(r) },
	)
	registerVariable(types.KindVariant, "Variant",
		func(w binary.Writer, v any) error { return v.(types.Variant).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadVariant(r) },
	)
	registerVariable(types.KindDiagnosticInfo, "DiagnosticInfo",
		func(w binary.Writer, v any) error { return v.(types.DiagnosticInfo).EncodeBinary(w) },
		func(r *binary.Reader) (any, error) { return types.ReadDiagnosticInfo(r) },
	)
}

func registerScalar(k types.BuiltinKind, name string, size int,
	enc func(binary.Writer, any) error, dec func(*binary.Reader) (any, error)) {
	Global.Register(Descriptor{
		Kind: builtinKind(k), Name: name, Size: size,
		Encode: enc, Decode: dec,
		Copy:  func(v any) any { return v },
		Clear: func(any) {},
		Equal: func(a, b any) bool { return a == b },
	})
}

func registerVariable(k types.BuiltinKind, name string,
	enc func(binary.Writer, any) error, dec func(*binary.Reader) (any, error)) {
	Global.Register(Descriptor{
		Kind: builtinKind(k), Name: name, Size: 0,
		Encode: enc, Decode: dec,
		Copy:  func(v any) any { return v },
		Clear: func(any) {},
		Equal: nil, // structural equality left to reflect.DeepEqual by callers; no built-in variable-length kind needs a custom comparator today
	})
}
