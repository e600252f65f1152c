package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for channel/session/dispatch spans, following
// OpenTelemetry semantic-convention style where applicable.
const (
	AttrChannelID      = "opcua.channel_id"
	AttrTokenID        = "opcua.token_id"
	AttrSecurityPolicy = "opcua.security_policy_uri"
	AttrSessionID      = "opcua.session_id"
	AttrServiceName    = "opcua.service_name"
	AttrRequestHandle  = "opcua.request_handle"
	AttrSubscriptionID = "opcua.subscription_id"
	AttrServiceResult  = "opcua.service_result"
)

func ChannelID(id uint32) attribute.KeyValue { return attribute.Int64(AttrChannelID, int64(id)) }

func TokenID(id uint32) attribute.KeyValue { return attribute.Int64(AttrTokenID, int64(id)) }

func SecurityPolicyURI(uri string) attribute.KeyValue {
	return attribute.String(AttrSecurityPolicy, uri)
}

func SessionID(id string) attribute.KeyValue { return attribute.String(AttrSessionID, id) }

func ServiceName(name string) attribute.KeyValue { return attribute.String(AttrServiceName, name) }

func RequestHandle(h uint32) attribute.KeyValue {
	return attribute.Int64(AttrRequestHandle, int64(h))
}

func SubscriptionID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrSubscriptionID, int64(id))
}

func ServiceResult(code string) attribute.KeyValue {
	return attribute.String(AttrServiceResult, code)
}

// StartServiceSpan starts a span for one service invocation, named
// opcua.service/<serviceName> and carrying the service name, channel
// id and request handle. pkg/ua/dispatch does not call it; Dispatch
// starts its own span on the tracer it was built with.
func StartServiceSpan(ctx context.Context, serviceName string, channelID, requestHandle uint32) (context.Context, trace.Span) {
	return StartSpan(ctx, "opcua.service/"+serviceName, trace.WithAttributes(
		ServiceName(serviceName),
		ChannelID(channelID),
		RequestHandle(requestHandle),
	))
}

// StartChannelSpan starts a span for a channel-lifecycle event (HEL,
// OPN, CLO).
func StartChannelSpan(ctx context.Context, event string, channelID uint32) (context.Context, trace.Span) {
	return StartSpan(ctx, "opcua.channel/"+event, trace.WithAttributes(ChannelID(channelID)))
}
