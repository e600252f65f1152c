package channel

import (
	"time"

	"github.com/ua-stack/opcua/pkg/ua/security"
)

// KeySet holds one direction's derived symmetric key material:
// signing key, encrypting key, and initialization vector (spec.md
// §4.5 "Per-direction crypto").
type KeySet struct {
	SigningKey    []byte
	EncryptingKey []byte
	IV            []byte
}

// deriveKeySet runs the policy's key-derivation function over secret
// (the peer's nonce, used as the HMAC key) and seed (our own nonce,
// used as the HMAC message) per OPC UA Part 6 §6.2.4, producing
// exactly the signing-key/encrypting-key/IV triple one direction
// needs.
func deriveKeySet(policy *security.Policy, secret, seed []byte) KeySet {
	sigLen := policy.SymSig.KeyLength()
	encLen := policy.SymEnc.KeyLength()
	ivLen := policy.SymEnc.BlockSize()

	material := policy.KDF.Derive(secret, seed, sigLen+encLen+ivLen)
	return KeySet{
		SigningKey:    material[:sigLen],
		EncryptingKey: material[sigLen : sigLen+encLen],
		IV:            material[sigLen+encLen : sigLen+encLen+ivLen],
	}
}

// DirectionalKeys bundles the local (our send direction) and remote
// (our receive direction) key sets derived from one nonce exchange.
type DirectionalKeys struct {
	Local  KeySet
	Remote KeySet
}

// DeriveChannelKeys derives both directions' key sets given the
// client and server nonces exchanged during OPN/renewal. isClient
// selects which nonce seeds which direction, since the client
// encrypts with keys derived from (serverNonce as secret, clientNonce
// as seed) and the server does the mirror image.
func DeriveChannelKeys(policy *security.Policy, clientNonce, serverNonce []byte, isClient bool) DirectionalKeys {
	if isClient {
		return DirectionalKeys{
			Local:  deriveKeySet(policy, serverNonce, clientNonce),
			Remote: deriveKeySet(policy, clientNonce, serverNonce),
		}
	}
	return DirectionalKeys{
		Local:  deriveKeySet(policy, clientNonce, serverNonce),
		Remote: deriveKeySet(policy, serverNonce, clientNonce),
	}
}

// SecurityToken is one issuance of a channel's symmetric security
// context: the token id, the channel id it belongs to, when it was
// issued, and its requested lifetime.
type SecurityToken struct {
	ChannelID  uint32
	TokenID    uint32
	CreatedAt  time.Time
	Lifetime   time.Duration
	Keys       DirectionalKeys
}

// GraceDeadline is the instant after which chunks signed with this
// token are no longer acceptable: 25% of the token's lifetime beyond
// its nominal expiry (spec.md §4.5 "Token rollover").
func (t SecurityToken) GraceDeadline() time.Time {
	return t.CreatedAt.Add(t.Lifetime + t.Lifetime/4)
}

func (t SecurityToken) Expired(now time.Time) bool {
	return now.After(t.CreatedAt.Add(t.Lifetime))
}

func (t SecurityToken) WithinGrace(now time.Time) bool {
	return !now.After(t.GraceDeadline())
}
