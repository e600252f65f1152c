package policies

import "github.com/ua-stack/opcua/pkg/ua/security"

const (
	Basic128Rsa15URI      = "http://opcfoundation.org/UA/SecurityPolicy#Basic128Rsa15"
	Basic256Sha256URI     = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	Aes256Sha256RsaPssURI = "http://opcfoundation.org/UA/SecurityPolicy#Aes256Sha256RsaPss"
	PubSubAes256CtrURI    = "http://opcfoundation.org/UA/SecurityPolicy#PubSub-Aes256-CTR"
	NoneURI               = "http://opcfoundation.org/UA/SecurityPolicy#None"
)

// Basic128Rsa15 matches spec.md §4.4's first column: PKCS1v15/SHA1
// asymmetric signature, PKCS1v15 asymmetric encryption, HMAC-SHA1
// symmetric signature, AES-128-CBC symmetric encryption, 16-byte
// nonces.
var Basic128Rsa15 = &security.Policy{
	URI:         Basic128Rsa15URI,
	AsymSig:     pkcs1v15Signature{hash: sha1Hash},
	AsymEnc:     pkcs1v15Encryption{},
	SymSig:      security.NewHMACSHA1Signature(),
	SymEnc:      security.NewAES128CBCEncryption(),
	CertSig:     security.NewRSASHA1CertSignature(),
	KDF:         security.NewPSHA1Derivation(),
	NonceLength: 16,
}

// Basic256Sha256 matches spec.md §4.4's second column: PKCS1v15/SHA256
// asymmetric signature, OAEP/SHA1 asymmetric encryption, HMAC-SHA256
// symmetric signature, AES-256-CBC symmetric encryption, 32-byte
// nonces.
var Basic256Sha256 = &security.Policy{
	URI:         Basic256Sha256URI,
	AsymSig:     pkcs1v15Signature{hash: sha256Hash},
	AsymEnc:     oaepEncryption{hash: sha1Hash},
	SymSig:      security.NewHMACSHA256Signature(),
	SymEnc:      security.NewAES256CBCEncryption(),
	CertSig:     security.NewRSASHA256CertSignature(),
	KDF:         security.NewPSHA256Derivation(),
	NonceLength: 32,
}

// Aes256Sha256RsaPss matches spec.md §4.4's third column: PSS/SHA256
// asymmetric signature, OAEP/SHA256 asymmetric encryption, HMAC-SHA256
// symmetric signature, AES-256-CBC symmetric encryption, 32-byte
// nonces.
var Aes256Sha256RsaPss = &security.Policy{
	URI:         Aes256Sha256RsaPssURI,
	AsymSig:     pssSignature{hash: sha256Hash},
	AsymEnc:     oaepEncryption{hash: sha256Hash},
	SymSig:      security.NewHMACSHA256Signature(),
	SymEnc:      security.NewAES256CBCEncryption(),
	CertSig:     security.NewRSASHA256CertSignature(),
	KDF:         security.NewPSHA256Derivation(),
	NonceLength: 32,
}

// PubSubAes256Ctr matches spec.md §4.4's fourth column: no asymmetric
// handshake (the symmetric key comes from the PubSub SecurityKeys
// service instead of a channel OPN), HMAC-SHA256 symmetric signature,
// AES-256-CTR symmetric encryption, 76-byte key material split into a
// 32-byte signing key, 32-byte encryption key, 4-byte key-nonce, and
// 8-byte message-nonce.
var PubSubAes256Ctr = &security.Policy{
	URI:         PubSubAes256CtrURI,
	SymSig:      security.NewHMACSHA256Signature(),
	SymEnc:      security.NewAES256CTREncryption(),
	KDF:         security.NewPSHA256Derivation(),
	NonceLength: 76,
}

// ByURI looks up one of the four policies above by its SecurityPolicy
// URI, or reports ok=false for an unknown or the None URI (None has no
// Policy value: the channel bypasses security.Policy entirely and
// transmits cleartext, unsigned chunks).
func ByURI(uri string) (*security.Policy, bool) {
	switch uri {
	case Basic128Rsa15URI:
		return Basic128Rsa15, true
	case Basic256Sha256URI:
		return Basic256Sha256, true
	case Aes256Sha256RsaPssURI:
		return Aes256Sha256RsaPss, true
	case PubSubAes256CtrURI:
		return PubSubAes256Ctr, true
	default:
		return nil, false
	}
}
