package security

import (
	"bytes"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"hash"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

// hmacSymmetricSignature implements SymmetricSignature for the two
// HMAC flavours the built-in policies use, grounded on the
// HMAC-SHA256 chunk signing in _teacher_ref's SMB signing package.
type hmacSymmetricSignature struct {
	newHash func() hash.Hash
	size    int
	keyLen  int
}

func (h hmacSymmetricSignature) Sign(key, data []byte) ([]byte, error) {
	mac := hmac.New(h.newHash, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

func (h hmacSymmetricSignature) Verify(key, data, sig []byte) error {
	want, _ := h.Sign(key, data)
	if !hmac.Equal(want, sig) {
		return status.BadSecurityChecksFailed
	}
	return nil
}

func (h hmacSymmetricSignature) SignatureSize() int { return h.size }
func (h hmacSymmetricSignature) KeyLength() int     { return h.keyLen }

var hmacSha1Signature = hmacSymmetricSignature{newHash: sha1.New, size: sha1.Size, keyLen: 16}
var hmacSha256Signature = hmacSymmetricSignature{newHash: sha256.New, size: sha256.Size, keyLen: 32}

// aesCbcEncryption implements SymmetricEncryption with AES in CBC
// mode, IV-per-message, and no padding of its own: Encrypt rejects
// input that is not block-aligned and Decrypt returns the padded
// plaintext. channel.Channel.SignAndEncrypt zero-pads before calling
// Encrypt, and VerifyAndDecrypt locates the signature ahead of that
// pad.
type aesCbcEncryption struct{ keyLen int }

func (a aesCbcEncryption) Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(plaintext)%block.BlockSize() != 0 {
		return nil, status.BadEncodingError
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

func (a aesCbcEncryption) Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext)%block.BlockSize() != 0 {
		return nil, status.BadDecodingError
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

func (a aesCbcEncryption) KeyLength() int          { return a.keyLen }
func (a aesCbcEncryption) BlockSize() int          { return aes.BlockSize }
func (a aesCbcEncryption) PlaintextBlockSize() int { return aes.BlockSize }

var aes128CbcEncryption = aesCbcEncryption{keyLen: 16}
var aes256CbcEncryption = aesCbcEncryption{keyLen: 32}

// aesCtrEncryption implements SymmetricEncryption with AES-CTR, used
// only by the PubSub-Aes256-CTR policy (spec.md §4.4: counter block is
// MessageNonce||BlockCounter, no IV transmitted per chunk).
type aesCtrEncryption struct{ keyLen int }

func (a aesCtrEncryption) Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(out, plaintext)
	return out, nil
}

func (a aesCtrEncryption) Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	return a.Encrypt(key, iv, ciphertext) // CTR is its own inverse
}

func (a aesCtrEncryption) KeyLength() int          { return a.keyLen }
func (a aesCtrEncryption) BlockSize() int          { return aes.BlockSize }
func (a aesCtrEncryption) PlaintextBlockSize() int { return 1 }

var aes256CtrEncryption = aesCtrEncryption{keyLen: 32}

// pShaDerivation implements the P_SHA1/P_SHA256 pseudo-random
// function from RFC 2246 §5 as reused by OPC UA Part 6 §6.2.4 for
// SecureChannel key derivation.
type pShaDerivation struct{ newHash func() hash.Hash }

func (p pShaDerivation) Derive(secret, seed []byte, length int) []byte {
	var out bytes.Buffer
	a := hmacOnce(p.newHash, secret, seed)
	for out.Len() < length {
		out.Write(hmacOnce(p.newHash, secret, append(append([]byte{}, a...), seed...)))
		a = hmacOnce(p.newHash, secret, a)
	}
	return out.Bytes()[:length]
}

func hmacOnce(newHash func() hash.Hash, key, data []byte) []byte {
	mac := hmac.New(newHash, key)
	mac.Write(data)
	return mac.Sum(nil)
}

var pSha1 = pShaDerivation{newHash: sha1.New}
var pSha256 = pShaDerivation{newHash: sha256.New}

// rsaCertSignature implements CertificateSignature against a plain
// RSA public key extracted from the issuer's certificate;
// VerifyChainLink checks one chain link's PKCS#1 v1.5 signature.
// certs.Store.VerifyChain does not call it and checks links with
// x509.Certificate.CheckSignatureFrom instead.
type rsaCertSignature struct {
	newHash  func() hash.Hash
	cryptoID crypto.Hash
}

func (r rsaCertSignature) CreateSigningRequest(priv *rsa.PrivateKey, subject []byte) ([]byte, error) {
	tmpl := &x509.CertificateRequest{RawSubject: subject}
	return x509.CreateCertificateRequest(rand.Reader, tmpl, priv)
}

func (r rsaCertSignature) VerifyChainLink(issuer *rsa.PublicKey, certTBS, certSig []byte) error {
	h := r.newHash()
	h.Write(certTBS)
	digest := h.Sum(nil)
	if err := rsa.VerifyPKCS1v15(issuer, r.cryptoID, digest, certSig); err != nil {
		return status.BadCertificateInvalid
	}
	return nil
}

var rsaSha1CertSignature = rsaCertSignature{newHash: sha1.New, cryptoID: crypto.SHA1}
var rsaSha256CertSignature = rsaCertSignature{newHash: sha256.New, cryptoID: crypto.SHA256}

// The New* constructors below are the package's only exported
// surface for the concrete capability implementations above; package
// policies uses them to assemble the four named Policy values without
// this package needing to export the implementation types themselves.

func NewHMACSHA1Signature() SymmetricSignature   { return hmacSha1Signature }
func NewHMACSHA256Signature() SymmetricSignature { return hmacSha256Signature }

func NewAES128CBCEncryption() SymmetricEncryption { return aes128CbcEncryption }
func NewAES256CBCEncryption() SymmetricEncryption { return aes256CbcEncryption }
func NewAES256CTREncryption() SymmetricEncryption { return aes256CtrEncryption }

func NewPSHA1Derivation() KeyDerivation   { return pSha1 }
func NewPSHA256Derivation() KeyDerivation { return pSha256 }

func NewRSASHA1CertSignature() CertificateSignature   { return rsaSha1CertSignature }
func NewRSASHA256CertSignature() CertificateSignature { return rsaSha256CertSignature }
