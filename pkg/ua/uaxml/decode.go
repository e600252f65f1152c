package uaxml

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ua-stack/opcua/pkg/ua/status"
	"github.com/ua-stack/opcua/pkg/ua/types"
)

// DecodeBool accepts "true"/"false" per spec.md §4.3.
func DecodeBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, status.BadDecodingError
	}
}

// DecodeFloat is the inverse of EncodeFloat, including the INF/-INF/
// NaN special tags.
func DecodeFloat(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, status.BadDecodingError
	}
	return v, nil
}

// DecodeDateTime parses the ISO-8601 form EncodeDateTime produces,
// including an optional fractional second of any precision up to ns.
func DecodeDateTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		"2006-01-02T15:04:05.999999999Z",
		"2006-01-02T15:04:05Z",
	}
	var t time.Time
	var err error
	for _, layout := range layouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			return types.DateTimeFromTime(t), nil
		}
	}
	return 0, status.BadDecodingError
}

func DecodeByteString(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, status.BadDecodingError
	}
	return b, nil
}

// Tokenizer is a thin wrapper over encoding/xml.Decoder giving
// component codecs the pull-tokenizer surface spec.md §4.3 requires:
// element starts, ends, attributes, and character data, tolerant of
// self-closing empty elements (encoding/xml already synthesizes a
// matching EndElement for those).
type Tokenizer struct {
	dec *xml.Decoder
}

func NewTokenizer(r io.Reader) *Tokenizer {
	return &Tokenizer{dec: xml.NewDecoder(r)}
}

// NextStart skips non-element tokens and returns the next
// StartElement, or io.EOF.
func (t *Tokenizer) NextStart() (xml.StartElement, error) {
	for {
		tok, err := t.dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// CharData reads character data up to the matching end element for
// the element just returned by NextStart, concatenating any text
// nodes encountered (self-closing elements yield "").
func (t *Tokenizer) CharData() (string, error) {
	var b strings.Builder
	for {
		tok, err := t.dec.Token()
		if err != nil {
			return "", err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

// Skip consumes tokens until the end of the element whose start tag
// was just returned by NextStart, discarding nested content.
func (t *Tokenizer) Skip() error {
	depth := 1
	for depth > 0 {
		tok, err := t.dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}
