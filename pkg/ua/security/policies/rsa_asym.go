// Package policies provides the four concrete security.Policy values
// spec.md §4.4's table names: Basic128Rsa15, Basic256Sha256,
// Aes256Sha256RsaPss, and PubSub-Aes256-CTR.
package policies

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"hash"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

// pkcs1v15Signature implements security.AsymmetricSignature with
// RSASSA-PKCS1-v1_5 over the named hash, used by Basic128Rsa15 (SHA1)
// and Basic256Sha256 (SHA256).
type pkcs1v15Signature struct {
	hash cryptoHash
}

func (s pkcs1v15Signature) Sign(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := s.hash.sum(data)
	return rsa.SignPKCS1v15(rand.Reader, priv, s.hash.id, digest)
}

func (s pkcs1v15Signature) Verify(pub *rsa.PublicKey, data, sig []byte) error {
	digest := s.hash.sum(data)
	if err := rsa.VerifyPKCS1v15(pub, s.hash.id, digest, sig); err != nil {
		return status.BadSecurityChecksFailed
	}
	return nil
}

func (s pkcs1v15Signature) LocalSignatureSize(priv *rsa.PrivateKey) int {
	return priv.PublicKey.Size()
}

func (s pkcs1v15Signature) RemoteSignatureSize(pub *rsa.PublicKey) int { return pub.Size() }

// pssSignature implements security.AsymmetricSignature with RSASSA-PSS,
// used by Aes256Sha256RsaPss.
type pssSignature struct{ hash cryptoHash }

func (s pssSignature) Sign(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := s.hash.sum(data)
	return rsa.SignPSS(rand.Reader, priv, s.hash.id, digest, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       s.hash.id,
	})
}

func (s pssSignature) Verify(pub *rsa.PublicKey, data, sig []byte) error {
	digest := s.hash.sum(data)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: s.hash.id}
	if err := rsa.VerifyPSS(pub, s.hash.id, digest, sig, opts); err != nil {
		return status.BadSecurityChecksFailed
	}
	return nil
}

func (s pssSignature) LocalSignatureSize(priv *rsa.PrivateKey) int { return priv.PublicKey.Size() }
func (s pssSignature) RemoteSignatureSize(pub *rsa.PublicKey) int  { return pub.Size() }

// oaepEncryption implements security.AsymmetricEncryption with
// RSAES-OAEP over the named hash.
type oaepEncryption struct{ hash cryptoHash }

func (e oaepEncryption) Encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	return rsa.EncryptOAEP(e.hash.newHash(), rand.Reader, pub, plaintext, nil)
}

func (e oaepEncryption) Decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	pt, err := rsa.DecryptOAEP(e.hash.newHash(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, status.BadSecurityChecksFailed
	}
	return pt, nil
}

func (e oaepEncryption) LocalKeyLength(priv *rsa.PrivateKey) int  { return priv.PublicKey.Size() }
func (e oaepEncryption) RemoteKeyLength(pub *rsa.PublicKey) int   { return pub.Size() }
func (e oaepEncryption) RemoteBlockSize(pub *rsa.PublicKey) int   { return pub.Size() }
func (e oaepEncryption) RemotePlaintextBlockSize(pub *rsa.PublicKey) int {
	return pub.Size() - 2*e.hash.size() - 2
}

// pkcs1v15Encryption implements security.AsymmetricEncryption with
// RSAES-PKCS1-v1_5, used only by Basic128Rsa15.
type pkcs1v15Encryption struct{}

func (pkcs1v15Encryption) Encrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	return rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
}

func (pkcs1v15Encryption) Decrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, status.BadSecurityChecksFailed
	}
	return pt, nil
}

func (pkcs1v15Encryption) LocalKeyLength(priv *rsa.PrivateKey) int         { return priv.PublicKey.Size() }
func (pkcs1v15Encryption) RemoteKeyLength(pub *rsa.PublicKey) int          { return pub.Size() }
func (pkcs1v15Encryption) RemoteBlockSize(pub *rsa.PublicKey) int          { return pub.Size() }
func (pkcs1v15Encryption) RemotePlaintextBlockSize(pub *rsa.PublicKey) int { return pub.Size() - 11 }

// cryptoHash pairs a crypto.Hash identity (for the rsa package's
// PKCS1v15/PSS/OAEP calls, which take the digest algorithm as a
// parameter rather than inferring it) with a constructor for the
// underlying hash.Hash.
type cryptoHash struct {
	id      crypto.Hash
	newHash func() hash.Hash
}

func (h cryptoHash) sum(data []byte) []byte {
	hh := h.newHash()
	hh.Write(data)
	return hh.Sum(nil)
}

func (h cryptoHash) size() int { return h.newHash().Size() }

var sha1Hash = cryptoHash{id: crypto.SHA1, newHash: sha1.New}
var sha256Hash = cryptoHash{id: crypto.SHA256, newHash: sha256.New}
