package channel

import (
	"bytes"
	"sync"
	"time"

	"github.com/ua-stack/opcua/pkg/ua/security"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

// Limits bounds how large a channel will let a connected peer's
// messages grow, negotiated during HEL/ACK.
type Limits struct {
	MaxMessageSize uint32
	MaxChunkCount  uint32
	ReceiveBuffer  uint32
	SendBuffer     uint32
}

// Channel is one UA/TCP secure channel: handshake state, sequence
// number discipline per direction, the current and previous security
// tokens (for renewal overlap), and the negotiated frame-size limits.
//
// Per spec.md §5 a Channel is owned by exactly one cooperative event
// loop; callers are responsible for not sharing one across goroutines
// without external synchronization. Every method, the send/receive
// path included, still takes the mutex around its field accesses.
type Channel struct {
	mu sync.Mutex

	state     State
	isClient  bool
	channelID uint32
	policy    *security.Policy
	limits    Limits

	sendSeq sequenceCounter
	recvSeq sequenceCounter

	currentToken  *SecurityToken
	previousToken *SecurityToken

	reassembly *reassembler

	openedAt    time.Time
	lastActivity time.Time
}

func NewChannel(policy *security.Policy, isClient bool) *Channel {
	return &Channel{
		state:      StateClosed,
		isClient:   isClient,
		policy:     policy,
		reassembly: newReassembler(),
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// CompleteHandshake transitions the channel to Open after a
// successful HEL/ACK/OPN exchange, recording the negotiated limits
// and the first security token.
func (c *Channel) CompleteHandshake(channelID uint32, limits Limits, token SecurityToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelID = channelID
	c.limits = limits
	c.currentToken = &token
	c.state = StateOpen
	now := time.Now()
	c.openedAt = now
	c.lastActivity = now
}

// RenewToken installs a freshly issued token, retaining the previous
// one for its grace window so in-flight chunks signed with it still
// decode (spec.md §4.5 "Token rollover").
func (c *Channel) RenewToken(token SecurityToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previousToken = c.currentToken
	c.currentToken = &token
	c.state = StateOpen
}

// SelectToken returns the token matching tokenID, consulting the
// previous token only while it remains within its grace window.
// Returns BadSecureChannelIdInvalid if neither matches.
func (c *Channel) SelectToken(tokenID uint32, now time.Time) (*SecurityToken, status.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentToken != nil && c.currentToken.TokenID == tokenID {
		return c.currentToken, status.Good
	}
	if c.previousToken != nil && c.previousToken.TokenID == tokenID && c.previousToken.WithinGrace(now) {
		return c.previousToken, status.Good
	}
	return nil, status.BadSecureChannelIdInvalid
}

func (c *Channel) NextSendSequenceNumber() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendSeq.Send()
}

func (c *Channel) AcceptSequenceNumber(n uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvSeq.Accept(n)
}

func (c *Channel) Touch(now time.Time) {
	c.mu.Lock()
	c.lastActivity = now
	c.mu.Unlock()
}

// Idle reports whether the channel has had no activity within the
// current token's lifetime, per spec.md §4.5 "timeout (no activity
// within lifetime) -> Closed".
func (c *Channel) Idle(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentToken == nil {
		return false
	}
	return now.Sub(c.lastActivity) > c.currentToken.Lifetime
}

// SignAndEncrypt applies the channel's current-direction symmetric
// keys to a MSG/CLO chunk body: sign the plaintext, zero-pad plaintext
// plus signature to the cipher block size, then encrypt, per OPC UA
// Part 6 §6.3 ordering (sign-then-encrypt on send, decrypt-then-verify
// on receive).
func (c *Channel) SignAndEncrypt(plaintext []byte) ([]byte, error) {
	c.mu.Lock()
	token := c.currentToken
	c.mu.Unlock()
	if token == nil {
		return nil, status.BadSecureChannelClosed
	}
	keys := token.Keys.Local

	sig, err := c.policy.SymSig.Sign(keys.SigningKey, plaintext)
	if err != nil {
		return nil, err
	}
	signed := append(append([]byte{}, plaintext...), sig...)

	padded := padToBlock(signed, c.policy.SymEnc.BlockSize())
	return c.policy.SymEnc.Encrypt(keys.EncryptingKey, keys.IV, padded)
}

// VerifyAndDecrypt reverses SignAndEncrypt using the key set selected
// by the chunk's claimed token id.
func (c *Channel) VerifyAndDecrypt(ciphertext []byte, tokenID uint32, now time.Time) ([]byte, error) {
	token, code := c.SelectToken(tokenID, now)
	if code != status.Good {
		return nil, code
	}
	keys := token.Keys.Remote

	padded, err := c.policy.SymEnc.Decrypt(keys.EncryptingKey, keys.IV, ciphertext)
	if err != nil {
		return nil, err
	}
	sigSize := c.policy.SymSig.SignatureSize()
	// SignAndEncrypt zero-pads after the signature and sends no pad
	// length, so each pad length below one block is tried, shortest first.
	for pad := 0; pad < c.policy.SymEnc.BlockSize() && pad+sigSize <= len(padded); pad++ {
		if pad > 0 && padded[len(padded)-pad] != 0 {
			break
		}
		end := len(padded) - pad
		body, sig := padded[:end-sigSize], padded[end-sigSize:end]
		if c.policy.SymSig.Verify(keys.SigningKey, body, sig) == nil {
			return body, nil
		}
	}
	return nil, status.BadSecurityChecksFailed
}

func padToBlock(data []byte, blockSize int) []byte {
	if blockSize <= 1 {
		return data
	}
	rem := len(data) % blockSize
	if rem == 0 {
		return data
	}
	return append(data, make([]byte, blockSize-rem)...)
}

// reassembler accumulates chunks belonging to one in-flight message,
// enforcing the negotiated chunk-count and message-size limits
// (spec.md §4.5 "Chunking").
type reassembler struct {
	buf        bytes.Buffer
	chunkCount uint32
}

func newReassembler() *reassembler { return &reassembler{} }

// Append adds one chunk's body to the in-progress message. limits of
// zero disable the corresponding check (useful before HEL/ACK
// negotiation has happened).
func (r *reassembler) Append(body []byte, limits Limits) error {
	r.chunkCount++
	if limits.MaxChunkCount != 0 && r.chunkCount > limits.MaxChunkCount {
		return status.BadTcpMessageTooLarge
	}
	if limits.MaxMessageSize != 0 && uint32(r.buf.Len()+len(body)) > limits.MaxMessageSize {
		return status.BadTcpMessageTooLarge
	}
	r.buf.Write(body)
	return nil
}

// Finish returns the fully assembled message and resets the
// reassembler for the next one.
func (r *reassembler) Finish() []byte {
	out := make([]byte, r.buf.Len())
	copy(out, r.buf.Bytes())
	r.buf.Reset()
	r.chunkCount = 0
	return out
}

func (r *reassembler) Abort() {
	r.buf.Reset()
	r.chunkCount = 0
}

// NegotiateLimits implements the HEL/ACK negotiation spec.md §8
// scenario 5 describes: the buffer sizes take the smaller of the
// client's request and the server's own ceiling (a value of 0 from
// either side, meaning "no limit", defers to the other side's value),
// while MaxMessageSize and MaxChunkCount are the server's own limits,
// echoed back unchanged — they bound what the server itself will
// accept or send and are not negotiated down to the client's request.
func NegotiateLimits(client, server Limits) Limits {
	return Limits{
		MaxMessageSize: server.MaxMessageSize,
		MaxChunkCount:  server.MaxChunkCount,
		ReceiveBuffer:  minNonZero(client.ReceiveBuffer, server.ReceiveBuffer),
		SendBuffer:     minNonZero(client.SendBuffer, server.SendBuffer),
	}
}

func minNonZero(a, b uint32) uint32 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
