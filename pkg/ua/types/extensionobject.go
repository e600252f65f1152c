package types

import (
	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

// BodyEncoding selects an ExtensionObject's body representation
// (spec.md §3).
type BodyEncoding byte

const (
	BodyNoBody BodyEncoding = iota
	BodyByteString
	BodyXML
)

// ExtensionObject carries a typed, possibly-opaque structure. Decoded
// objects are not modeled here (that requires the type table's
// per-struct codec, see package typetable); this core treats every
// ExtensionObject as encoded bytes or XML plus a type id, which is
// sufficient for generic routing through the channel/dispatch layers.
type ExtensionObject struct {
	TypeId   NodeId
	Encoding BodyEncoding
	Body     []byte // raw bytes for BodyByteString, UTF-8 XML for BodyXML
	BodyOK   bool   // false means the body itself is the null ByteString
}

func (e ExtensionObject) EncodeBinary(w binary.Writer) error {
	if err := e.TypeId.EncodeBinary(w); err != nil {
		return err
	}
	if err := w.WriteByte(byte(e.Encoding)); err != nil {
		return err
	}
	switch e.Encoding {
	case BodyNoBody:
		return nil
	case BodyByteString, BodyXML:
		return binary.WriteByteArray(w, e.Body, e.BodyOK || e.Encoding == BodyXML)
	default:
		return status.BadEncodingError
	}
}

func ReadExtensionObject(r *binary.Reader) (ExtensionObject, error) {
	typeId, err := ReadNodeId(r)
	if err != nil {
		return ExtensionObject{}, err
	}
	encByte, err := r.ReadByte()
	if err != nil {
		return ExtensionObject{}, err
	}
	enc := BodyEncoding(encByte)
	eo := ExtensionObject{TypeId: typeId, Encoding: enc}
	switch enc {
	case BodyNoBody:
		return eo, nil
	case BodyByteString, BodyXML:
		data, ok, err := binary.ReadByteArray(r)
		if err != nil {
			return ExtensionObject{}, err
		}
		eo.Body, eo.BodyOK = data, ok
		return eo, nil
	default:
		return ExtensionObject{}, status.BadDecodingError
	}
}
