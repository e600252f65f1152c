// Package channel implements the UA/TCP secure channel (spec.md C5):
// HEL/ACK/ERR/OPN/MSG/CLO framing, chunk reassembly, sequence-number
// discipline, and token rollover, layered over package security for
// its per-direction crypto and package certs for chain validation.
//
// Grounded on _teacher_ref's SMB2 framing+session packages for the
// overall shape (fixed-size header parsed first, variable body read
// to a declared length, a Conn-owning session object mediating state)
// even though the wire grammar itself is OPC UA's own.
package channel

import (
	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

// MessageType is the 3-byte ASCII tag at the start of every UA/TCP
// frame.
type MessageType [3]byte

var (
	MessageTypeHEL = MessageType{'H', 'E', 'L'}
	MessageTypeACK = MessageType{'A', 'C', 'K'}
	MessageTypeERR = MessageType{'E', 'R', 'R'}
	MessageTypeOPN = MessageType{'O', 'P', 'N'}
	MessageTypeMSG = MessageType{'M', 'S', 'G'}
	MessageTypeCLO = MessageType{'C', 'L', 'O'}
)

// ChunkFlag is the 4th byte of a frame: space for HEL/ACK/ERR, one of
// F/C/A for OPN/MSG/CLO.
type ChunkFlag byte

const (
	ChunkFlagNone         ChunkFlag = ' '
	ChunkFlagFinal        ChunkFlag = 'F'
	ChunkFlagContinuation ChunkFlag = 'C'
	ChunkFlagAbort        ChunkFlag = 'A'
)

// FrameHeaderSize is the fixed 8-byte prefix every frame carries:
// 3-byte message type, 1-byte chunk flag, 4-byte little-endian total
// length including this prefix.
const FrameHeaderSize = 8

// ChunkHeaderSize is the 12-byte prefix spec.md §2's table names for
// OPN/MSG/CLO chunks: 3-byte type + 1-byte flag + 4-byte size +
// 4-byte SecureChannelId, folding the frame header and the channel id
// together since every OPC UA chunk (not just HEL/ACK/ERR) carries
// both.
const ChunkHeaderSize = 12

type FrameHeader struct {
	Type       MessageType
	ChunkFlag  ChunkFlag
	TotalSize  uint32
}

func (h FrameHeader) Encode(w binary.Writer) error {
	if _, err := w.Write(h.Type[:]); err != nil {
		return err
	}
	if err := w.WriteByte(byte(h.ChunkFlag)); err != nil {
		return err
	}
	return binary.WriteUint32(w, h.TotalSize)
}

func DecodeFrameHeader(r *binary.Reader) (FrameHeader, error) {
	var h FrameHeader
	tag, err := r.Take(3)
	if err != nil {
		return h, err
	}
	copy(h.Type[:], tag)
	flag, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	h.ChunkFlag = ChunkFlag(flag)
	size, err := binary.ReadUInt32(r)
	if err != nil {
		return h, err
	}
	if size < FrameHeaderSize {
		return h, status.BadTcpInternalError
	}
	h.TotalSize = size
	return h, nil
}

// HelloBody is the shared HEL/ACK body layout (spec.md §6); EndpointURL
// is populated for HEL only.
type HelloBody struct {
	ProtocolVersion   uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
	EndpointURL       string // HEL only
}

func (b HelloBody) EncodeHEL(w binary.Writer) error {
	if err := b.encodeFixed(w); err != nil {
		return err
	}
	return binary.WriteString(w, b.EndpointURL, true)
}

func (b HelloBody) EncodeACK(w binary.Writer) error {
	return b.encodeFixed(w)
}

func (b HelloBody) encodeFixed(w binary.Writer) error {
	for _, v := range []uint32{b.ProtocolVersion, b.ReceiveBufferSize, b.SendBufferSize, b.MaxMessageSize, b.MaxChunkCount} {
		if err := binary.WriteUint32(w, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeHelloFixed(r *binary.Reader) (HelloBody, error) {
	var b HelloBody
	var err error
	if b.ProtocolVersion, err = binary.ReadUInt32(r); err != nil {
		return b, err
	}
	if b.ReceiveBufferSize, err = binary.ReadUInt32(r); err != nil {
		return b, err
	}
	if b.SendBufferSize, err = binary.ReadUInt32(r); err != nil {
		return b, err
	}
	if b.MaxMessageSize, err = binary.ReadUInt32(r); err != nil {
		return b, err
	}
	if b.MaxChunkCount, err = binary.ReadUInt32(r); err != nil {
		return b, err
	}
	return b, nil
}

func DecodeHEL(r *binary.Reader) (HelloBody, error) {
	b, err := decodeHelloFixed(r)
	if err != nil {
		return b, err
	}
	b.EndpointURL, _, err = binary.ReadString(r)
	return b, err
}

func DecodeACK(r *binary.Reader) (HelloBody, error) {
	return decodeHelloFixed(r)
}

// ErrorBody is the ERR frame body: a status code plus a free-text
// reason string.
type ErrorBody struct {
	Error  status.Code
	Reason string
}

func (b ErrorBody) Encode(w binary.Writer) error {
	if err := binary.WriteUint32(w, uint32(b.Error)); err != nil {
		return err
	}
	return binary.WriteString(w, b.Reason, true)
}

func DecodeErrorBody(r *binary.Reader) (ErrorBody, error) {
	var b ErrorBody
	code, err := binary.ReadUInt32(r)
	if err != nil {
		return b, err
	}
	b.Error = status.Code(code)
	b.Reason, _, err = binary.ReadString(r)
	return b, err
}

// reasonFor gives ERR frames a human-readable default reason when the
// caller does not supply one, borrowed from open62541's channel error
// strings per SPEC_FULL.md's supplemented-features list.
func reasonFor(code status.Code) string {
	switch code {
	case status.BadTcpMessageTooLarge:
		return "the message size exceeds the negotiated limit"
	case status.BadTcpEndpointUrlInvalid:
		return "the endpoint url is empty or malformed"
	case status.BadSecurityChecksFailed:
		return "the chunk signature or decryption failed"
	case status.BadSequenceNumberInvalid:
		return "the sequence number is out of the legal window"
	case status.BadCommunicationError:
		return "a transport-level communication error occurred"
	default:
		return code.Error()
	}
}

// NewErrorBody builds an ErrorBody with a default reason string for
// code when reason is empty.
func NewErrorBody(code status.Code, reason string) ErrorBody {
	if reason == "" {
		reason = reasonFor(code)
	}
	return ErrorBody{Error: code, Reason: reason}
}
