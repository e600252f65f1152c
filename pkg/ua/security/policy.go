// Package security defines the pluggable security-policy capability
// set (spec.md C4, DESIGN NOTES "hand-assembled vtables"): each policy
// is a plain value implementing AsymmetricSignature, AsymmetricEncryption,
// SymmetricSignature, SymmetricEncryption, CertificateSignature, and
// KeyDerivation. The channel takes a *Policy by reference; it never
// owns the policy definition, matching the "trait/interface" dispatch
// the design notes call for in place of the source's hand-rolled
// function-pointer vtables.
package security

import (
	"crypto/rand"
	"crypto/rsa"
)

// AsymmetricSignature signs/verifies with the peer's RSA key pair.
type AsymmetricSignature interface {
	Sign(priv *rsa.PrivateKey, data []byte) ([]byte, error)
	Verify(pub *rsa.PublicKey, data, sig []byte) error
	LocalSignatureSize(priv *rsa.PrivateKey) int
	RemoteSignatureSize(pub *rsa.PublicKey) int
}

// AsymmetricEncryption encrypts/decrypts the asymmetric (OPN) channel
// payload.
type AsymmetricEncryption interface {
	Encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error)
	Decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error)
	LocalKeyLength(priv *rsa.PrivateKey) int
	RemoteKeyLength(pub *rsa.PublicKey) int
	RemoteBlockSize(pub *rsa.PublicKey) int
	RemotePlaintextBlockSize(pub *rsa.PublicKey) int
}

// SymmetricSignature signs/verifies MSG/CLO chunks once a channel has
// derived its per-direction keys.
type SymmetricSignature interface {
	Sign(key, data []byte) ([]byte, error)
	Verify(key, data, sig []byte) error
	SignatureSize() int
	KeyLength() int
}

// SymmetricEncryption encrypts/decrypts MSG/CLO chunk bodies.
type SymmetricEncryption interface {
	Encrypt(key, iv, plaintext []byte) ([]byte, error)
	Decrypt(key, iv, ciphertext []byte) ([]byte, error)
	KeyLength() int
	BlockSize() int
	PlaintextBlockSize() int
}

// CertificateSignature covers CSR creation and chain-signature
// verification, independent of the per-message asymmetric signature
// above (a policy may, e.g., sign messages with PSS but still verify
// chains with PKCS1v15 per its CA's issuance practice).
type CertificateSignature interface {
	CreateSigningRequest(priv *rsa.PrivateKey, subject []byte) ([]byte, error)
	VerifyChainLink(issuer *rsa.PublicKey, certTBS, certSig []byte) error
}

// KeyDerivation implements OPC UA's P_SHA keyed pseudo-random function
// (Part 6 §6.2.4) used to derive signing/encryption keys and IVs from
// the client/server nonce pair.
type KeyDerivation interface {
	Derive(secret, seed []byte, length int) []byte
}

// Policy bundles one named security policy's full capability set plus
// the fixed parameters spec.md §4.4's table specifies.
type Policy struct {
	URI string

	AsymSig AsymmetricSignature
	AsymEnc AsymmetricEncryption
	SymSig  SymmetricSignature
	SymEnc  SymmetricEncryption
	CertSig CertificateSignature
	KDF     KeyDerivation

	// NonceLength is the length in bytes of client/server nonces this
	// policy generates during OPN/ActivateSession.
	NonceLength int
}

// GenerateNonce returns a cryptographically random nonce of the
// policy's configured length.
func (p *Policy) GenerateNonce() ([]byte, error) {
	n := make([]byte, p.NonceLength)
	if _, err := rand.Read(n); err != nil {
		return nil, err
	}
	return n, nil
}

// IsAsymmetric reports whether the policy defines asymmetric
// primitives. The PubSub-Aes256-CTR policy does not (spec.md §4.4
// table: "-- --" for its asym columns) since it has no channel
// handshake, only a pre-shared symmetric key.
func (p *Policy) IsAsymmetric() bool { return p.AsymSig != nil && p.AsymEnc != nil }
