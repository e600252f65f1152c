package types

import "github.com/ua-stack/opcua/pkg/ua/binary"

// DataValue bundles a Variant with quality/timestamp metadata. Each
// field is independently optional, signalled by a presence bitmask
// (spec.md §3).
type DataValue struct {
	HasValue bool
	Value    Variant

	HasStatus bool
	Status    uint32

	HasSourceTimestamp bool
	SourceTimestamp    int64 // OPC UA DateTime: 100ns intervals since 1601-01-01 UTC

	HasSourcePicoseconds bool
	SourcePicoseconds    uint16

	HasServerTimestamp bool
	ServerTimestamp    int64

	HasServerPicoseconds bool
	ServerPicoseconds    uint16
}

const (
	dvValueMask             byte = 0x01
	dvStatusMask            byte = 0x02
	dvSourceTimestampMask   byte = 0x04
	dvServerTimestampMask   byte = 0x08
	dvSourcePicosecondsMask byte = 0x10
	dvServerPicosecondsMask byte = 0x20
)

func (d DataValue) EncodeBinary(w binary.Writer) error {
	var mask byte
	if d.HasValue {
		mask |= dvValueMask
	}
	if d.HasStatus {
		mask |= dvStatusMask
	}
	if d.HasSourceTimestamp {
		mask |= dvSourceTimestampMask
	}
	if d.HasServerTimestamp {
		mask |= dvServerTimestampMask
	}
	if d.HasSourcePicoseconds {
		mask |= dvSourcePicosecondsMask
	}
	if d.HasServerPicoseconds {
		mask |= dvServerPicosecondsMask
	}
	if err := w.WriteByte(mask); err != nil {
		return err
	}
	if d.HasValue {
		if err := d.Value.EncodeBinary(w); err != nil {
			return err
		}
	}
	if d.HasStatus {
		if err := binary.WriteUint32(w, d.Status); err != nil {
			return err
		}
	}
	if d.HasSourceTimestamp {
		if err := binary.WriteInt64(w, d.SourceTimestamp); err != nil {
			return err
		}
	}
	if d.HasSourcePicoseconds {
		if err := binary.WriteUint16(w, d.SourcePicoseconds); err != nil {
			return err
		}
	}
	if d.HasServerTimestamp {
		if err := binary.WriteInt64(w, d.ServerTimestamp); err != nil {
			return err
		}
	}
	if d.HasServerPicoseconds {
		if err := binary.WriteUint16(w, d.ServerPicoseconds); err != nil {
			return err
		}
	}
	return nil
}

func ReadDataValue(r *binary.Reader) (DataValue, error) {
	mask, err := r.ReadByte()
	if err != nil {
		return DataValue{}, err
	}
	var d DataValue
	if mask&dvValueMask != 0 {
		d.HasValue = true
		if d.Value, err = ReadVariant(r); err != nil {
			return DataValue{}, err
		}
	}
	if mask&dvStatusMask != 0 {
		d.HasStatus = true
		if d.Status, err = binary.ReadUInt32(r); err != nil {
			return DataValue{}, err
		}
	}
	if mask&dvSourceTimestampMask != 0 {
		d.HasSourceTimestamp = true
		if d.SourceTimestamp, err = binary.ReadInt64(r); err != nil {
			return DataValue{}, err
		}
	}
	if mask&dvSourcePicosecondsMask != 0 {
		d.HasSourcePicoseconds = true
		if d.SourcePicoseconds, err = binary.ReadUInt16(r); err != nil {
			return DataValue{}, err
		}
	}
	if mask&dvServerTimestampMask != 0 {
		d.HasServerTimestamp = true
		if d.ServerTimestamp, err = binary.ReadInt64(r); err != nil {
			return DataValue{}, err
		}
	}
	if mask&dvServerPicosecondsMask != 0 {
		d.HasServerPicoseconds = true
		if d.ServerPicoseconds, err = binary.ReadUInt16(r); err != nil {
			return DataValue{}, err
		}
	}
	return d, nil
}
