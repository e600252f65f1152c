package types

import "github.com/ua-stack/opcua/pkg/ua/binary"

// QualifiedName is a namespace-scoped name.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

func (q QualifiedName) EncodeBinary(w binary.Writer) error {
	if err := binary.WriteUint16(w, q.NamespaceIndex); err != nil {
		return err
	}
	return binary.WriteString(w, q.Name, true)
}

func ReadQualifiedName(r *binary.Reader) (QualifiedName, error) {
	ns, err := binary.ReadUInt16(r)
	if err != nil {
		return QualifiedName{}, err
	}
	name, _, err := binary.ReadString(r)
	if err != nil {
		return QualifiedName{}, err
	}
	return QualifiedName{NamespaceIndex: ns, Name: name}, nil
}

// LocalizedText pairs an optional locale tag with optional text; both
// presence flags are independent (spec.md §3).
type LocalizedText struct {
	HasLocale bool
	Locale    string
	HasText   bool
	Text      string
}

const (
	localeTextFlag byte = 0x01
	textTextFlag   byte = 0x02
)

func (l LocalizedText) EncodeBinary(w binary.Writer) error {
	var flags byte
	if l.HasLocale {
		flags |= localeTextFlag
	}
	if l.HasText {
		flags |= textTextFlag
	}
	if err := w.WriteByte(flags); err != nil {
		return err
	}
	if l.HasLocale {
		if err := binary.WriteString(w, l.Locale, true); err != nil {
			return err
		}
	}
	if l.HasText {
		if err := binary.WriteString(w, l.Text, true); err != nil {
			return err
		}
	}
	return nil
}

func ReadLocalizedText(r *binary.Reader) (LocalizedText, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return LocalizedText{}, err
	}
	var l LocalizedText
	if flags&localeTextFlag != 0 {
		s, ok, err := binary.ReadString(r)
		if err != nil {
			return LocalizedText{}, err
		}
		l.HasLocale, l.Locale = ok, s
	}
	if flags&textTextFlag != 0 {
		s, ok, err := binary.ReadString(r)
		if err != nil {
			return LocalizedText{}, err
		}
		l.HasText, l.Text = ok, s
	}
	return l, nil
}
