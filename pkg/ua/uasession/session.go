// Package uasession implements the Session layer (spec.md C6):
// CreateSession, ActivateSession (with the four identity-token
// kinds), and CloseSession, layered over a channel.Channel.
package uasession

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

// IdentityKind enumerates the ActivateSession user-identity forms
// spec.md §4.6 names.
type IdentityKind int

const (
	IdentityAnonymous IdentityKind = iota
	IdentityUserNamePassword
	IdentityX509Certificate
	IdentityIssuedToken
)

// Identity is the decoded user-identity token ActivateSession carries.
type Identity struct {
	Kind     IdentityKind
	UserName string
	// Password holds cleartext only after the channel's asymmetric
	// decryption step (spec.md: "optionally encrypted"); callers must
	// not log it.
	Password         []byte
	CertificateThumb []byte
	CertificateSig   []byte
	IssuedTokenBytes []byte // e.g. a JWT when the policy is issuer-based
}

// Session is one authenticated context layered over a channel
// (spec.md §3 "Session"): an authentication token, nonce pair, user
// identity, and the set of subscription ids it owns.
type Session struct {
	mu sync.Mutex

	ID                 uuid.UUID
	AuthenticationToken uuid.UUID
	ChannelID           uint32

	ClientNonce []byte
	ServerNonce []byte

	Identity Identity

	RevisedTimeout time.Duration
	CreatedAt      time.Time
	LastActivated  time.Time

	activated     bool
	subscriptions map[uint32]struct{}
}

// NewSession builds a fresh, not-yet-activated session bound to
// channelID with the requested timeout (the server is free to revise
// it down, which callers do via RevisedTimeout before returning the
// CreateSession response).
func NewSession(channelID uint32, requestedTimeout time.Duration) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	token, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:                  id,
		AuthenticationToken: token,
		ChannelID:           channelID,
		RevisedTimeout:      requestedTimeout,
		CreatedAt:           time.Now(),
		subscriptions:       make(map[uint32]struct{}),
	}, nil
}

// GenerateServerNonce produces a fresh nonce of the given length
// (policy.NonceLength, typically) for CreateSession and every
// ActivateSession call, preventing replay across activations.
func GenerateServerNonce(length int) ([]byte, error) {
	n := make([]byte, length)
	if _, err := rand.Read(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Activate verifies identity (caller has already checked any
// signature/password per the identity kind) and rotates the server
// nonce, per spec.md §4.6: "ActivateSession may be sent again on a
// different channel to reassociate the session... must
// re-authenticate and return a new serverNonce."
func (s *Session) Activate(channelID uint32, identity Identity, newServerNonce []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ChannelID = channelID
	s.Identity = identity
	s.ServerNonce = newServerNonce
	s.activated = true
	s.LastActivated = time.Now()
}

func (s *Session) IsActivated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activated
}

// Expired reports whether the session has gone unused (no
// ActivateSession and no service call) past RevisedTimeout.
func (s *Session) Expired(now time.Time, lastServiceCall time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.LastActivated
	if lastServiceCall.After(last) {
		last = lastServiceCall
	}
	if last.IsZero() {
		last = s.CreatedAt
	}
	return now.Sub(last) > s.RevisedTimeout
}

func (s *Session) AddSubscription(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[id] = struct{}{}
}

func (s *Session) RemoveSubscription(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, id)
}

// SubscriptionIDs returns a snapshot of the subscription ids this
// session currently owns.
func (s *Session) SubscriptionIDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, 0, len(s.subscriptions))
	for id := range s.subscriptions {
		out = append(out, id)
	}
	return out
}

// Close ends the session. If deleteSubscriptions is false, the
// caller (the session manager) must leave owned subscriptions
// orphaned rather than deleting them, per spec.md §4.6 CloseSession:
// "deletes owned subscriptions iff the DeleteSubscriptions flag is
// true — otherwise subscriptions remain orphaned and may be claimed
// via TransferSubscriptions." Close itself only reports which ids the
// caller must handle; it does not know how to delete a subscription
// (that lives in package subscription).
func (s *Session) Close(deleteSubscriptions bool) (ownedSubscriptionIDs []uint32, shouldDelete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint32, 0, len(s.subscriptions))
	for id := range s.subscriptions {
		ids = append(ids, id)
	}
	s.subscriptions = make(map[uint32]struct{})
	s.activated = false
	return ids, deleteSubscriptions
}

// ValidateIdentity applies the minimal structural checks spec.md
// lists for each identity kind before a policy/auth layer is
// consulted; it never itself validates a password or signature
// against a user store — that's an external collaborator per spec.md
// §1 "out of scope".
func ValidateIdentity(id Identity) status.Code {
	switch id.Kind {
	case IdentityAnonymous:
		return status.Good
	case IdentityUserNamePassword:
		if id.UserName == "" {
			return status.BadIdentityTokenInvalid
		}
		return status.Good
	case IdentityX509Certificate:
		if len(id.CertificateThumb) == 0 || len(id.CertificateSig) == 0 {
			return status.BadIdentityTokenInvalid
		}
		return status.Good
	case IdentityIssuedToken:
		if len(id.IssuedTokenBytes) == 0 {
			return status.BadIdentityTokenInvalid
		}
		return status.Good
	default:
		return status.BadIdentityTokenInvalid
	}
}
