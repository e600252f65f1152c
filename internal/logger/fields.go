package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the channel,
// session, subscription, and dispatch layers. Use these consistently
// so log aggregation and querying stays uniform across components.
const (
	// ------------------------------------------------------------------
	// Distributed tracing
	// ------------------------------------------------------------------
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ------------------------------------------------------------------
	// Channel
	// ------------------------------------------------------------------
	KeyChannelID    = "channel_id"
	KeyTokenID      = "token_id"
	KeySecurityURI  = "security_policy_uri"
	KeyMessageType  = "message_type"
	KeySequenceNum  = "sequence_number"
	KeyRequestID    = "request_id"
	KeyClientAddr   = "client_addr"

	// ------------------------------------------------------------------
	// Session & identity
	// ------------------------------------------------------------------
	KeySessionID     = "session_id"
	KeyAuthToken     = "auth_token"
	KeyIdentityKind  = "identity_kind"
	KeyUserName      = "user_name"

	// ------------------------------------------------------------------
	// Subscription
	// ------------------------------------------------------------------
	KeySubscriptionID = "subscription_id"
	KeyMonitoredItem  = "monitored_item_id"
	KeyPublishSeq     = "publish_sequence_number"

	// ------------------------------------------------------------------
	// Dispatch
	// ------------------------------------------------------------------
	KeyServiceName    = "service_name"
	KeyRequestHandle  = "request_handle"
	KeyServiceResult  = "service_result"

	// ------------------------------------------------------------------
	// Operation metadata
	// ------------------------------------------------------------------
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// ChannelID returns a slog.Attr for the owning secure channel id.
func ChannelID(id uint32) slog.Attr { return slog.Uint64(KeyChannelID, uint64(id)) }

// TokenID returns a slog.Attr for the active security token id.
func TokenID(id uint32) slog.Attr { return slog.Uint64(KeyTokenID, uint64(id)) }

// SecurityPolicyURI returns a slog.Attr for a channel's negotiated policy.
func SecurityPolicyURI(uri string) slog.Attr { return slog.String(KeySecurityURI, uri) }

// MessageType returns a slog.Attr for a UA/TCP frame's 3-byte type.
func MessageType(t string) slog.Attr { return slog.String(KeyMessageType, t) }

// SequenceNumber returns a slog.Attr for a chunk's sequence number.
func SequenceNumber(n uint32) slog.Attr { return slog.Uint64(KeySequenceNum, uint64(n)) }

// RequestID returns a slog.Attr for a chunk's requestId.
func RequestID(id uint32) slog.Attr { return slog.Uint64(KeyRequestID, uint64(id)) }

// ClientAddr returns a slog.Attr for the remote peer address.
func ClientAddr(addr string) slog.Attr { return slog.String(KeyClientAddr, addr) }

// SessionID returns a slog.Attr for a uasession.Session id.
func SessionID(id string) slog.Attr { return slog.String(KeySessionID, id) }

// IdentityKind returns a slog.Attr naming the ActivateSession identity kind.
func IdentityKind(kind string) slog.Attr { return slog.String(KeyIdentityKind, kind) }

// UserName returns a slog.Attr for a UserNameIdentityToken's name.
func UserName(name string) slog.Attr { return slog.String(KeyUserName, name) }

// SubscriptionID returns a slog.Attr for a subscription's id.
func SubscriptionID(id uint32) slog.Attr { return slog.Uint64(KeySubscriptionID, uint64(id)) }

// MonitoredItemID returns a slog.Attr for a monitored item's id.
func MonitoredItemID(id uint32) slog.Attr { return slog.Uint64(KeyMonitoredItem, uint64(id)) }

// PublishSequenceNumber returns a slog.Attr for a NotificationMessage's sequence number.
func PublishSequenceNumber(n uint32) slog.Attr { return slog.Uint64(KeyPublishSeq, uint64(n)) }

// ServiceName returns a slog.Attr for the dispatched service's name.
func ServiceName(name string) slog.Attr { return slog.String(KeyServiceName, name) }

// RequestHandle returns a slog.Attr for a RequestHeader's requestHandle.
func RequestHandle(h uint32) slog.Attr { return slog.Uint64(KeyRequestHandle, uint64(h)) }

// ServiceResult returns a slog.Attr for a ResponseHeader's serviceResult.
func ServiceResult(code string) slog.Attr { return slog.String(KeyServiceResult, code) }

// Err returns a slog.Attr for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
