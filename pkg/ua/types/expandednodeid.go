package types

import (
	"github.com/ua-stack/opcua/pkg/ua/binary"
)

// ExpandedNodeId extends NodeId with an optional namespace URI and a
// 32-bit server index (spec.md §3).
type ExpandedNodeId struct {
	NodeId
	NamespaceURI string
	HasURI       bool
	ServerIndex  uint32
}

func (e ExpandedNodeId) EncodeBinary(w binary.Writer) error {
	var flags byte
	if e.HasURI {
		flags |= flagNamespaceURI
	}
	if e.ServerIndex != 0 {
		flags |= flagServerIndex
	}
	if err := e.NodeId.encode(w, flags); err != nil {
		return err
	}
	if e.HasURI {
		if err := binary.WriteString(w, e.NamespaceURI, true); err != nil {
			return err
		}
	}
	if e.ServerIndex != 0 {
		if err := binary.WriteUint32(w, e.ServerIndex); err != nil {
			return err
		}
	}
	return nil
}

func ReadExpandedNodeId(r *binary.Reader) (ExpandedNodeId, error) {
	n, flags, err := readNodeIdFlags(r)
	if err != nil {
		return ExpandedNodeId{}, err
	}
	e := ExpandedNodeId{NodeId: n}
	if flags&flagNamespaceURI != 0 {
		uri, ok, err := binary.ReadString(r)
		if err != nil {
			return ExpandedNodeId{}, err
		}
		e.HasURI = ok
		e.NamespaceURI = uri
	}
	if flags&flagServerIndex != 0 {
		idx, err := binary.ReadUInt32(r)
		if err != nil {
			return ExpandedNodeId{}, err
		}
		e.ServerIndex = idx
	}
	return e, nil
}
