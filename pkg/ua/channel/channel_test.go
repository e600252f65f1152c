package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/security/policies"
	"github.com/ua-stack/opcua/pkg/ua/status"
)

func TestNegotiateLimitsBuffersTakeSmaller(t *testing.T) {
	client := Limits{MaxMessageSize: 16777216, MaxChunkCount: 5000, ReceiveBuffer: 65536, SendBuffer: 65536}
	server := Limits{MaxMessageSize: 8388608, MaxChunkCount: 10000, ReceiveBuffer: 131072, SendBuffer: 32768}

	got := NegotiateLimits(client, server)
	assert.Equal(t, uint32(65536), got.ReceiveBuffer)
	assert.Equal(t, uint32(32768), got.SendBuffer)
}

func TestNegotiateLimitsEchoesServerMessageAndChunkLimits(t *testing.T) {
	// spec.md §8 scenario 5: the server's own MaxMessageSize/MaxChunkCount
	// are echoed in the ACK regardless of what the client asked for,
	// even when the client's request is numerically smaller.
	client := Limits{MaxMessageSize: 16777216, MaxChunkCount: 5000}
	server := Limits{MaxMessageSize: 8388608, MaxChunkCount: 10000}

	got := NegotiateLimits(client, server)
	assert.Equal(t, uint32(8388608), got.MaxMessageSize)
	assert.Equal(t, uint32(10000), got.MaxChunkCount)
}

func TestNegotiateLimitsBufferZeroMeansUnset(t *testing.T) {
	got := NegotiateLimits(Limits{ReceiveBuffer: 0}, Limits{ReceiveBuffer: 4096})
	assert.Equal(t, uint32(4096), got.ReceiveBuffer)

	got = NegotiateLimits(Limits{SendBuffer: 8192}, Limits{SendBuffer: 0})
	assert.Equal(t, uint32(8192), got.SendBuffer)
}

func samplePair(t *testing.T) (local, remote KeySet) {
	t.Helper()
	policy := policies.Basic256Sha256
	clientNonce := make([]byte, 32)
	serverNonce := make([]byte, 32)
	for i := range clientNonce {
		clientNonce[i] = byte(i)
	}
	for i := range serverNonce {
		serverNonce[i] = byte(i + 100)
	}
	clientKeys := DeriveChannelKeys(policy, clientNonce, serverNonce, true)
	serverKeys := DeriveChannelKeys(policy, clientNonce, serverNonce, false)
	// the client's send direction must match the server's receive direction
	return clientKeys.Local, serverKeys.Remote
}

func TestDeriveChannelKeysMirrorAcrossPeers(t *testing.T) {
	local, remote := samplePair(t)
	assert.Equal(t, local.SigningKey, remote.SigningKey)
	assert.Equal(t, local.EncryptingKey, remote.EncryptingKey)
	assert.Equal(t, local.IV, remote.IV)
}

func newOpenChannel(t *testing.T, lifetime time.Duration) (*Channel, *Channel) {
	t.Helper()
	policy := policies.Basic256Sha256
	clientNonce := make([]byte, 32)
	serverNonce := make([]byte, 32)
	for i := range clientNonce {
		clientNonce[i] = byte(i)
		serverNonce[i] = byte(i + 64)
	}

	client := NewChannel(policy, true)
	server := NewChannel(policy, false)

	clientKeys := DeriveChannelKeys(policy, clientNonce, serverNonce, true)
	serverKeys := DeriveChannelKeys(policy, clientNonce, serverNonce, false)

	now := time.Now()
	client.CompleteHandshake(1, Limits{MaxMessageSize: 1 << 20, MaxChunkCount: 100}, SecurityToken{
		ChannelID: 1, TokenID: 1, CreatedAt: now, Lifetime: lifetime, Keys: clientKeys,
	})
	server.CompleteHandshake(1, Limits{MaxMessageSize: 1 << 20, MaxChunkCount: 100}, SecurityToken{
		ChannelID: 1, TokenID: 1, CreatedAt: now, Lifetime: lifetime, Keys: serverKeys,
	})
	return client, server
}

func TestSignAndEncryptRoundTrip(t *testing.T) {
	client, server := newOpenChannel(t, time.Hour)

	plaintext := []byte("GetEndpointsRequest payload")
	ct, err := client.SignAndEncrypt(plaintext)
	require.NoError(t, err)

	got, err := server.VerifyAndDecrypt(ct, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestVerifyAndDecryptRejectsUnknownToken(t *testing.T) {
	client, server := newOpenChannel(t, time.Hour)
	plaintext := []byte("payload")
	ct, err := client.SignAndEncrypt(plaintext)
	require.NoError(t, err)

	_, err = server.VerifyAndDecrypt(ct, 99, time.Now())
	assert.Equal(t, status.BadSecureChannelIdInvalid, err)
}

func TestTokenRolloverGraceWindow(t *testing.T) {
	client, server := newOpenChannel(t, time.Hour)

	oldPlaintext := []byte("before renewal")
	oldCipher, err := client.SignAndEncrypt(oldPlaintext)
	require.NoError(t, err)

	// Renew: issue a new token on both sides with a fresh key set.
	policy := client.policy
	newClientNonce := make([]byte, 32)
	newServerNonce := make([]byte, 32)
	for i := range newClientNonce {
		newClientNonce[i] = byte(255 - i)
		newServerNonce[i] = byte(i)
	}
	newClientKeys := DeriveChannelKeys(policy, newClientNonce, newServerNonce, true)
	newServerKeys := DeriveChannelKeys(policy, newClientNonce, newServerNonce, false)

	now := time.Now()
	client.RenewToken(SecurityToken{ChannelID: 1, TokenID: 2, CreatedAt: now, Lifetime: time.Hour, Keys: newClientKeys})
	server.RenewToken(SecurityToken{ChannelID: 1, TokenID: 2, CreatedAt: now, Lifetime: time.Hour, Keys: newServerKeys})

	// Old-token chunk still decodes within the grace window.
	got, err := server.VerifyAndDecrypt(oldCipher, 1, now)
	require.NoError(t, err)
	assert.Equal(t, oldPlaintext, got)

	// New-token chunk decodes too.
	newPlaintext := []byte("after renewal")
	newCipher, err := client.SignAndEncrypt(newPlaintext)
	require.NoError(t, err)
	got, err = server.VerifyAndDecrypt(newCipher, 2, now)
	require.NoError(t, err)
	assert.Equal(t, newPlaintext, got)

	// Well past the grace deadline, the old token is no longer accepted.
	farFuture := now.Add(2 * time.Hour)
	_, err = server.VerifyAndDecrypt(oldCipher, 1, farFuture)
	assert.Equal(t, status.BadSecureChannelIdInvalid, err)
}

func TestReassemblerEnforcesChunkCount(t *testing.T) {
	r := newReassembler()
	limits := Limits{MaxChunkCount: 2, MaxMessageSize: 1000}
	require.NoError(t, r.Append([]byte("a"), limits))
	require.NoError(t, r.Append([]byte("b"), limits))
	err := r.Append([]byte("c"), limits)
	assert.Equal(t, status.BadTcpMessageTooLarge, err)
}

func TestReassemblerEnforcesMessageSize(t *testing.T) {
	r := newReassembler()
	limits := Limits{MaxChunkCount: 10, MaxMessageSize: 4}
	require.NoError(t, r.Append([]byte("ab"), limits))
	err := r.Append([]byte("abc"), limits)
	assert.Equal(t, status.BadTcpMessageTooLarge, err)
}

func TestReassemblerFinishConcatenates(t *testing.T) {
	r := newReassembler()
	limits := Limits{}
	require.NoError(t, r.Append([]byte("he"), limits))
	require.NoError(t, r.Append([]byte("llo"), limits))
	assert.Equal(t, []byte("hello"), r.Finish())
}
