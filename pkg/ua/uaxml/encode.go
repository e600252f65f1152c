// Package uaxml implements the OPC UA XML textual encoding (spec.md
// C3): the same built-in types as package types, serialised as text
// for interoperability and nodeset loading. Decoding uses
// encoding/xml's pull tokenizer (stdlib; no example repo in the
// retrieved pack brings a third-party XML library, and encoding/xml's
// Decoder.Token already is the "pull tokenizer over element
// starts/ends/attributes/char data" spec.md §4.3 calls for, so there
// is nothing a third-party parser would add here). Encoding is
// hand-written rather than encoding/xml.Marshal because the wire
// grammar needs exact control over float specials (INF/-INF/NaN) and
// trimmed-trailing-zero fractional seconds that the stdlib marshaller
// does not produce.
package uaxml

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ua-stack/opcua/pkg/ua/types"
)

func EncodeBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// EncodeFloat renders the special tags spec.md §4.3 requires:
// "INF", "-INF", "NaN" for non-finite values, sign preserved.
func EncodeFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	default:
		return strconv.FormatFloat(v, 'G', -1, 64)
	}
}

// EncodeDateTime renders ISO-8601 with a trailing Z and an optional
// fractional second (trailing zeros trimmed), matching spec.md §8
// scenario 4: UnixTime(1234567) -> "1970-01-15T06:56:07Z".
func EncodeDateTime(v int64) string {
	t := types.TimeFromDateTime(v)
	base := t.Format("2006-01-02T15:04:05")
	nanos := t.Nanosecond()
	if nanos == 0 {
		return base + "Z"
	}
	frac := fmt.Sprintf("%09d", nanos)
	frac = strings.TrimRight(frac, "0")
	return base + "." + frac + "Z"
}

func EncodeGuid(id [16]byte) string {
	return fmt.Sprintf("<Guid><String>%s</String></Guid>", guidString(id))
}

func EncodeByteString(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// EncodeNodeId renders <NodeId><Identifier>...</Identifier></NodeId>
// using the same textual grammar as types.NodeId.String.
func EncodeNodeId(n types.NodeId) string {
	return fmt.Sprintf("<NodeId><Identifier>%s</Identifier></NodeId>", n.String())
}

// EncodeListOf wraps a slice of already-rendered element strings in
// the <ListOfT> container spec.md §4.3 requires for arrays.
func EncodeListOf(elementTag string, elements []string) string {
	var b strings.Builder
	b.WriteString("<ListOf")
	b.WriteString(elementTag)
	b.WriteByte('>')
	for _, e := range elements {
		fmt.Fprintf(&b, "<%s>%s</%s>", elementTag, e, elementTag)
	}
	b.WriteString("</ListOf")
	b.WriteString(elementTag)
	b.WriteByte('>')
	return b.String()
}

func guidString(id [16]byte) string {
	return strings.ToUpper(fmt.Sprintf("%08X-%04X-%04X-%04X-%012X",
		uint32(id[0])<<24|uint32(id[1])<<16|uint32(id[2])<<8|uint32(id[3]),
		uint16(id[4])<<8|uint16(id[5]),
		uint16(id[6])<<8|uint16(id[7]),
		uint16(id[8])<<8|uint16(id[9]),
		id[10:16],
	))
}
