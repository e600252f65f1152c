// Package status defines the OPC UA status code type and the closed
// enumeration of codes this stack returns. A Code is an error value: it
// satisfies the error interface so callers can propagate it with plain
// Go error handling and recover it with errors.As.
package status

import "fmt"

// Code is a 32-bit OPC UA status code. The high 16 bits are the
// severity+subcode per Part 4 §7.34; this stack treats Code as an
// opaque enumeration rather than decomposing the bit layout, since no
// component needs anything finer than identity comparison against the
// named constants below.
type Code uint32

// Severity classifies a Code by its top two bits, per Part 4 §7.34.
type Severity int

const (
	SeverityGood Severity = iota
	SeverityUncertain
	SeverityBad
)

// Severity returns the code's severity class.
func (c Code) Severity() Severity {
	switch {
	case c&0x80000000 != 0:
		return SeverityBad
	case c&0x40000000 != 0:
		return SeverityUncertain
	default:
		return SeverityGood
	}
}

// IsGood reports whether c has no error/uncertain bit set.
func (c Code) IsGood() bool { return c.Severity() == SeverityGood }

// IsBad reports whether c is in the Bad severity class.
func (c Code) IsBad() bool { return c.Severity() == SeverityBad }

func (c Code) Error() string {
	if name, ok := names[c]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(c))
	}
	return fmt.Sprintf("status 0x%08X", uint32(c))
}

func (c Code) String() string { return c.Error() }

// The closed set of status codes this core produces or consumes.
// Values match the OPC UA Part 6 numeric assignments used by the
// reference implementation this stack is grounded on.
const (
	Good Code = 0x00000000

	// Encoding / decoding (spec.md §7 regime 1).
	BadEncodingLimitsExceeded Code = 0x80080000
	BadDecodingError          Code = 0x80070000
	BadEncodingError          Code = 0x80060000

	// Security (spec.md §7 regime 2).
	BadSecurityChecksFailed           Code = 0x80130000
	BadCertificateInvalid             Code = 0x80140000
	BadCertificateTimeInvalid         Code = 0x80120000
	BadCertificateIssuerTimeInvalid   Code = 0x80150000
	BadCertificateUntrusted           Code = 0x80160000
	BadCertificateRevoked             Code = 0x80170000
	BadCertificateIssuerRevoked       Code = 0x80180000
	BadCertificateRevocationUnknown   Code = 0x80190000
	BadCertificateIssuerUseNotAllowed Code = 0x801A0000
	BadCertificateUseNotAllowed       Code = 0x80190100
	BadCertificateIssuerRevocationUnknown Code = 0x80190200
	BadCertificateChainIncomplete     Code = 0x810D0000
	BadIdentityTokenInvalid           Code = 0x80200000
	BadIdentityTokenRejected          Code = 0x80210000
	BadUserAccessDenied               Code = 0x801F0000

	// Protocol (spec.md §7 regime 3).
	BadTcpInternalError      Code = 0x80010000
	BadTcpEndpointUrlInvalid Code = 0x80030000
	BadTcpMessageTooLarge    Code = 0x80040000
	BadSequenceNumberInvalid Code = 0x80B40000
	BadConnectionClosed      Code = 0x80AE0000
	BadCommunicationError    Code = 0x80050000
	BadRequestTimeout        Code = 0x800A0000
	BadTimeout               Code = 0x800A0000
	BadTooManyOperations     Code = 0x80100000

	// Channel / session lifecycle.
	BadSecureChannelClosed     Code = 0x80560000
	BadSecureChannelIdInvalid  Code = 0x80230000
	BadSessionIdInvalid        Code = 0x80250000
	BadSessionClosed           Code = 0x80260000
	BadSessionNotActivated     Code = 0x80270000
	BadNonceInvalid            Code = 0x80410000
	BadRequestHeaderInvalid    Code = 0x802A0000
	BadInvalidState            Code = 0x80AF0000
	BadSubscriptionIdInvalid   Code = 0x80280000
	BadSequenceNumberUnknown   Code = 0x80B80000
	BadMessageNotAvailable     Code = 0x807F0000
	GoodSubscriptionTransferred Code = 0x002D0000
	BadNoSubscription          Code = 0x80450000
	BadServiceUnsupported      Code = 0x800B0000
	BadNothingToDo             Code = 0x800C0000
)

var names = map[Code]string{
	Good:                              "Good",
	BadEncodingLimitsExceeded:         "BadEncodingLimitsExceeded",
	BadDecodingError:                  "BadDecodingError",
	BadEncodingError:                  "BadEncodingError",
	BadSecurityChecksFailed:           "BadSecurityChecksFailed",
	BadCertificateInvalid:             "BadCertificateInvalid",
	BadCertificateTimeInvalid:         "BadCertificateTimeInvalid",
	BadCertificateIssuerTimeInvalid:   "BadCertificateIssuerTimeInvalid",
	BadCertificateUntrusted:           "BadCertificateUntrusted",
	BadCertificateRevoked:             "BadCertificateRevoked",
	BadCertificateIssuerRevoked:       "BadCertificateIssuerRevoked",
	BadCertificateRevocationUnknown:   "BadCertificateRevocationUnknown",
	BadCertificateIssuerUseNotAllowed: "BadCertificateIssuerUseNotAllowed",
	BadCertificateUseNotAllowed:       "BadCertificateUseNotAllowed",
	BadCertificateIssuerRevocationUnknown: "BadCertificateIssuerRevocationUnknown",
	BadCertificateChainIncomplete:     "BadCertificateChainIncomplete",
	BadIdentityTokenInvalid:           "BadIdentityTokenInvalid",
	BadIdentityTokenRejected:          "BadIdentityTokenRejected",
	BadUserAccessDenied:               "BadUserAccessDenied",
	BadTcpInternalError:               "BadTcpInternalError",
	BadTcpEndpointUrlInvalid:          "BadTcpEndpointUrlInvalid",
	BadTcpMessageTooLarge:             "BadTcpMessageTooLarge",
	BadSequenceNumberInvalid:          "BadSequenceNumberInvalid",
	BadConnectionClosed:               "BadConnectionClosed",
	BadCommunicationError:             "BadCommunicationError",
	BadRequestTimeout:                 "BadRequestTimeout",
	BadTooManyOperations:              "BadTooManyOperations",
	BadSecureChannelClosed:            "BadSecureChannelClosed",
	BadSecureChannelIdInvalid:         "BadSecureChannelIdInvalid",
	BadSessionIdInvalid:               "BadSessionIdInvalid",
	BadSessionClosed:                  "BadSessionClosed",
	BadSessionNotActivated:            "BadSessionNotActivated",
	BadNonceInvalid:                   "BadNonceInvalid",
	BadRequestHeaderInvalid:           "BadRequestHeaderInvalid",
	BadInvalidState:                   "BadInvalidState",
	BadSubscriptionIdInvalid:          "BadSubscriptionIdInvalid",
	BadSequenceNumberUnknown:          "BadSequenceNumberUnknown",
	BadMessageNotAvailable:            "BadMessageNotAvailable",
	GoodSubscriptionTransferred:       "GoodSubscriptionTransferred",
	BadNoSubscription:                 "BadNoSubscription",
	BadServiceUnsupported:             "BadServiceUnsupported",
	BadNothingToDo:                    "BadNothingToDo",
}
