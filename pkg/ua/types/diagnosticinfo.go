package types

import "github.com/ua-stack/opcua/pkg/ua/binary"

// DiagnosticInfo carries extended diagnostic detail for a result,
// with an optional recursive InnerDiagnosticInfo (spec.md §3).
type DiagnosticInfo struct {
	HasSymbolicId          bool
	SymbolicId             int32
	HasNamespaceURI        bool
	NamespaceURI           int32
	HasLocalizedText       bool
	LocalizedText          int32
	HasLocale              bool
	Locale                 int32
	HasAdditionalInfo      bool
	AdditionalInfo         string
	HasInnerStatusCode     bool
	InnerStatusCode        uint32
	HasInnerDiagnosticInfo bool
	InnerDiagnosticInfo    *DiagnosticInfo
}

const (
	diSymbolicId      byte = 0x01
	diNamespaceURI    byte = 0x02
	diLocalizedText   byte = 0x04
	diLocale          byte = 0x08
	diAdditionalInfo  byte = 0x10
	diInnerStatusCode byte = 0x20
	diInnerDiagInfo   byte = 0x40
)

func (d DiagnosticInfo) EncodeBinary(w binary.Writer) error {
	var mask byte
	if d.HasSymbolicId {
		mask |= diSymbolicId
	}
	if d.HasNamespaceURI {
		mask |= diNamespaceURI
	}
	if d.HasLocalizedText {
		mask |= diLocalizedText
	}
	if d.HasLocale {
		mask |= diLocale
	}
	if d.HasAdditionalInfo {
		mask |= diAdditionalInfo
	}
	if d.HasInnerStatusCode {
		mask |= diInnerStatusCode
	}
	if d.HasInnerDiagnosticInfo {
		mask |= diInnerDiagInfo
	}
	if err := w.WriteByte(mask); err != nil {
		return err
	}
	var err error
	if d.HasSymbolicId {
		err = binary.WriteInt32(w, d.SymbolicId)
	}
	if err == nil && d.HasNamespaceURI {
		err = binary.WriteInt32(w, d.NamespaceURI)
	}
	if err == nil && d.HasLocalizedText {
		err = binary.WriteInt32(w, d.LocalizedText)
	}
	if err == nil && d.HasLocale {
		err = binary.WriteInt32(w, d.Locale)
	}
	if err == nil && d.HasAdditionalInfo {
		err = binary.WriteString(w, d.AdditionalInfo, true)
	}
	if err == nil && d.HasInnerStatusCode {
		err = binary.WriteUint32(w, d.InnerStatusCode)
	}
	if err == nil && d.HasInnerDiagnosticInfo {
		err = d.InnerDiagnosticInfo.EncodeBinary(w)
	}
	return err
}

func ReadDiagnosticInfo(r *binary.Reader) (DiagnosticInfo, error) {
	mask, err := r.ReadByte()
	if err != nil {
		return DiagnosticInfo{}, err
	}
	var d DiagnosticInfo
	if mask&diSymbolicId != 0 {
		d.HasSymbolicId = true
		if d.SymbolicId, err = binary.ReadInt32(r); err != nil {
			return DiagnosticInfo{}, err
		}
	}
	if mask&diNamespaceURI != 0 {
		d.HasNamespaceURI = true
		if d.NamespaceURI, err = binary.ReadInt32(r); err != nil {
			return DiagnosticInfo{}, err
		}
	}
	if mask&diLocalizedText != 0 {
		d.HasLocalizedText = true
		if d.LocalizedText, err = binary.ReadInt32(r); err != nil {
			return DiagnosticInfo{}, err
		}
	}
	if mask&diLocale != 0 {
		d.HasLocale = true
		if d.Locale, err = binary.ReadInt32(r); err != nil {
			return DiagnosticInfo{}, err
		}
	}
	if mask&diAdditionalInfo != 0 {
		d.HasAdditionalInfo = true
		s, _, err := binary.ReadString(r)
		if err != nil {
			return DiagnosticInfo{}, err
		}
		d.AdditionalInfo = s
	}
	if mask&diInnerStatusCode != 0 {
		d.HasInnerStatusCode = true
		if d.InnerStatusCode, err = binary.ReadUInt32(r); err != nil {
			return DiagnosticInfo{}, err
		}
	}
	if mask&diInnerDiagInfo != 0 {
		d.HasInnerDiagnosticInfo = true
		inner, err := ReadDiagnosticInfo(r)
		if err != nil {
			return DiagnosticInfo{}, err
		}
		d.InnerDiagnosticInfo = &inner
	}
	return d, nil
}
