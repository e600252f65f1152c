// Package types implements the OPC UA built-in type system (spec.md
// §3): NodeId, ExpandedNodeId, QualifiedName, LocalizedText,
// ExtensionObject, DataValue, Variant, DiagnosticInfo, and their
// binary encodings. XML encodings live in sibling package uaxml;
// type-table registration lives in sibling package typetable.
package types

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

// IdentifierKind selects which of NodeId's four identifier forms is
// active (spec.md §3 NodeId invariant).
type IdentifierKind byte

const (
	IdentifierNumeric IdentifierKind = iota
	IdentifierString
	IdentifierGUID
	IdentifierByteString
)

// Compact encoding-byte forms for the numeric identifier, selected by
// the smallest representation that fits (spec.md §4.1).
const (
	encTwoByte    byte = 0x00
	encFourByte   byte = 0x01
	encNumeric    byte = 0x02
	encString     byte = 0x03
	encGUID       byte = 0x04
	encByteString byte = 0x05

	flagServerIndex byte = 0x40
	flagNamespaceURI byte = 0x80
)

// NodeId identifies a node in the address space: a 16-bit namespace
// index plus one of four identifier kinds.
type NodeId struct {
	Namespace uint16
	Kind      IdentifierKind
	Numeric   uint32
	Str       string
	GUID      uuid.UUID
	Bytes     []byte
}

func NewNumericNodeId(ns uint16, id uint32) NodeId {
	return NodeId{Namespace: ns, Kind: IdentifierNumeric, Numeric: id}
}

func NewStringNodeId(ns uint16, id string) NodeId {
	return NodeId{Namespace: ns, Kind: IdentifierString, Str: id}
}

func NewGUIDNodeId(ns uint16, id uuid.UUID) NodeId {
	return NodeId{Namespace: ns, Kind: IdentifierGUID, GUID: id}
}

func NewByteStringNodeId(ns uint16, id []byte) NodeId {
	return NodeId{Namespace: ns, Kind: IdentifierByteString, Bytes: id}
}

func (n NodeId) IsNull() bool {
	return n.Kind == IdentifierNumeric && n.Namespace == 0 && n.Numeric == 0
}

func (n NodeId) Equal(o NodeId) bool {
	if n.Namespace != o.Namespace || n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case IdentifierNumeric:
		return n.Numeric == o.Numeric
	case IdentifierString:
		return n.Str == o.Str
	case IdentifierGUID:
		return n.GUID == o.GUID
	case IdentifierByteString:
		return string(n.Bytes) == string(o.Bytes)
	}
	return false
}

// EncodeBinary writes the compact binary form chosen by the smallest
// encoding byte that fits the identifier, per spec.md §4.1.
func (n NodeId) EncodeBinary(w binary.Writer) error {
	return n.encode(w, 0)
}

// encode writes the NodeId body; extraFlags carries the
// ExpandedNodeId-only namespace-URI/server-index bits into the
// encoding byte.
func (n NodeId) encode(w binary.Writer, extraFlags byte) error {
	switch n.Kind {
	case IdentifierNumeric:
		if n.Namespace == 0 && n.Numeric <= 0xFF {
			if err := w.WriteByte(encTwoByte | extraFlags); err != nil {
				return err
			}
			return binary.WriteByte(w, byte(n.Numeric))
		}
		if n.Namespace <= 0xFF && n.Numeric <= 0xFFFF {
			if err := w.WriteByte(encFourByte | extraFlags); err != nil {
				return err
			}
			if err := binary.WriteByte(w, byte(n.Namespace)); err != nil {
				return err
			}
			return binary.WriteUint16(w, uint16(n.Numeric))
		}
		if err := w.WriteByte(encNumeric | extraFlags); err != nil {
			return err
		}
		if err := binary.WriteUint16(w, n.Namespace); err != nil {
			return err
		}
		return binary.WriteUint32(w, n.Numeric)
	case IdentifierString:
		if err := w.WriteByte(encString | extraFlags); err != nil {
			return err
		}
		if err := binary.WriteUint16(w, n.Namespace); err != nil {
			return err
		}
		return binary.WriteString(w, n.Str, true)
	case IdentifierGUID:
		if err := w.WriteByte(encGUID | extraFlags); err != nil {
			return err
		}
		if err := binary.WriteUint16(w, n.Namespace); err != nil {
			return err
		}
		return writeGUID(w, n.GUID)
	case IdentifierByteString:
		if err := w.WriteByte(encByteString | extraFlags); err != nil {
			return err
		}
		if err := binary.WriteUint16(w, n.Namespace); err != nil {
			return err
		}
		return binary.WriteByteArray(w, n.Bytes, true)
	default:
		return status.BadEncodingError
	}
}

// writeGUID encodes a UUID in the OPC UA Guid wire layout: Data1
// (uint32), Data2 (uint16), Data3 (uint16) each little-endian, then
// Data4's 8 bytes verbatim (spec.md §3 Guid kind).
func writeGUID(w binary.Writer, id uuid.UUID) error {
	b := id[:]
	data1 := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	data2 := uint16(b[4])<<8 | uint16(b[5])
	data3 := uint16(b[6])<<8 | uint16(b[7])
	if err := binary.WriteUint32(w, data1); err != nil {
		return err
	}
	if err := binary.WriteUint16(w, data2); err != nil {
		return err
	}
	if err := binary.WriteUint16(w, data3); err != nil {
		return err
	}
	_, err := w.Write(b[8:16])
	return err
}

func ReadNodeId(r *binary.Reader) (NodeId, error) {
	n, _, err := readNodeIdFlags(r)
	return n, err
}

func readNodeIdFlags(r *binary.Reader) (NodeId, byte, error) {
	encByte, err := r.ReadByte()
	if err != nil {
		return NodeId{}, 0, err
	}
	flags := encByte & (flagServerIndex | flagNamespaceURI)
	kind := encByte &^ (flagServerIndex | flagNamespaceURI)

	var n NodeId
	switch kind {
	case encTwoByte:
		b, err := r.ReadByte()
		if err != nil {
			return NodeId{}, 0, err
		}
		n = NodeId{Kind: IdentifierNumeric, Numeric: uint32(b)}
	case encFourByte:
		ns, err := r.ReadByte()
		if err != nil {
			return NodeId{}, 0, err
		}
		v, err := binary.ReadUInt16(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		n = NodeId{Namespace: uint16(ns), Kind: IdentifierNumeric, Numeric: uint32(v)}
	case encNumeric:
		ns, err := binary.ReadUInt16(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		v, err := binary.ReadUInt32(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		n = NodeId{Namespace: ns, Kind: IdentifierNumeric, Numeric: v}
	case encString:
		ns, err := binary.ReadUInt16(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		s, _, err := binary.ReadString(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		n = NodeId{Namespace: ns, Kind: IdentifierString, Str: s}
	case encGUID:
		ns, err := binary.ReadUInt16(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		g, err := readGUID(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		n = NodeId{Namespace: ns, Kind: IdentifierGUID, GUID: g}
	case encByteString:
		ns, err := binary.ReadUInt16(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		data, _, err := binary.ReadByteArray(r)
		if err != nil {
			return NodeId{}, 0, err
		}
		n = NodeId{Namespace: ns, Kind: IdentifierByteString, Bytes: data}
	default:
		return NodeId{}, 0, status.BadDecodingError
	}
	return n, flags, nil
}

func readGUID(r *binary.Reader) (uuid.UUID, error) {
	var u uuid.UUID
	data1, err := binary.ReadUInt32(r)
	if err != nil {
		return u, err
	}
	data2, err := binary.ReadUInt16(r)
	if err != nil {
		return u, err
	}
	data3, err := binary.ReadUInt16(r)
	if err != nil {
		return u, err
	}
	u[0] = byte(data1 >> 24)
	u[1] = byte(data1 >> 16)
	u[2] = byte(data1 >> 8)
	u[3] = byte(data1)
	u[4] = byte(data2 >> 8)
	u[5] = byte(data2)
	u[6] = byte(data3 >> 8)
	u[7] = byte(data3)
	tail, err := r.Take(8)
	if err != nil {
		return u, err
	}
	copy(u[8:16], tail)
	return u, nil
}

// Parse implements the NodeId textual grammar from spec.md §8:
// "i=5555", "ns=5;s=foobar", "g=<guid>", "ns=5;b=<base64>".
func Parse(s string) (NodeId, error) {
	var ns uint16
	body := s
	if strings.HasPrefix(s, "ns=") {
		parts := strings.SplitN(s[len("ns="):], ";", 2)
		if len(parts) != 2 {
			return NodeId{}, status.BadDecodingError
		}
		v, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return NodeId{}, status.BadDecodingError
		}
		ns = uint16(v)
		body = parts[1]
	}

	switch {
	case strings.HasPrefix(body, "i="):
		v, err := strconv.ParseUint(body[2:], 10, 32)
		if err != nil {
			return NodeId{}, status.BadDecodingError
		}
		return NewNumericNodeId(ns, uint32(v)), nil
	case strings.HasPrefix(body, "s="):
		return NewStringNodeId(ns, body[2:]), nil
	case strings.HasPrefix(body, "g="):
		id, err := uuid.Parse(body[2:])
		if err != nil {
			return NodeId{}, status.BadDecodingError
		}
		return NewGUIDNodeId(ns, id), nil
	case strings.HasPrefix(body, "b="):
		data, err := base64.StdEncoding.DecodeString(body[2:])
		if err != nil {
			return NodeId{}, status.BadDecodingError
		}
		return NewByteStringNodeId(ns, data), nil
	default:
		return NodeId{}, status.BadDecodingError
	}
}

// String renders the textual NodeId grammar, the inverse of Parse.
func (n NodeId) String() string {
	var body string
	switch n.Kind {
	case IdentifierNumeric:
		body = fmt.Sprintf("i=%d", n.Numeric)
	case IdentifierString:
		body = fmt.Sprintf("s=%s", n.Str)
	case IdentifierGUID:
		body = fmt.Sprintf("g=%s", strings.ToUpper(n.GUID.String()))
	case IdentifierByteString:
		body = fmt.Sprintf("b=%s", base64.StdEncoding.EncodeToString(n.Bytes))
	}
	if n.Namespace == 0 {
		return body
	}
	return fmt.Sprintf("ns=%d;%s", n.Namespace, body)
}
