// Package dispatch implements the service dispatcher (spec.md C8):
// binding decoded requests to the session/subscription handlers that
// serve them, stamping the shared ResponseHeader, and falling back to
// a ServiceFault when a request type-id is unregistered or its body
// fails to decode. Synchronous and asynchronous callers share the
// same Dispatch path; DispatchAsync is a thin goroutine wrapper per
// spec.md §4.8 "Synchronous and asynchronous surfaces are twins".
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ua-stack/opcua/pkg/ua/binary"
	"github.com/ua-stack/opcua/pkg/ua/status"
	"github.com/ua-stack/opcua/pkg/ua/types"
	"github.com/ua-stack/opcua/pkg/ua/uasession"
)

// ServiceFaultTypeID is the well-known numeric identifier (namespace
// 0) of the ServiceFault response, emitted whenever a request cannot
// be routed to a real handler.
const ServiceFaultTypeID uint32 = 397

// RequestHeader is the fixed prefix every service request carries.
// AuthenticationToken binds the request to a uasession.Session;
// everything past it is service-specific and decoded by the
// registered ServiceEntry.
type RequestHeader struct {
	AuthenticationToken types.NodeId
	Timestamp           int64 // OPC UA DateTime ticks; see types.DateTimeFromTime
	RequestHandle       uint32
	ReturnDiagnostics   uint32
	AuditEntryId        string
	AuditEntryIdOK      bool
	TimeoutHint         uint32
	AdditionalHeader    types.ExtensionObject
}

func DecodeRequestHeader(r *binary.Reader) (RequestHeader, error) {
	var h RequestHeader
	token, err := types.ReadNodeId(r)
	if err != nil {
		return RequestHeader{}, err
	}
	h.AuthenticationToken = token
	if h.Timestamp, err = binary.ReadInt64(r); err != nil {
		return RequestHeader{}, err
	}
	if h.RequestHandle, err = binary.ReadUInt32(r); err != nil {
		return RequestHeader{}, err
	}
	if h.ReturnDiagnostics, err = binary.ReadUInt32(r); err != nil {
		return RequestHeader{}, err
	}
	if h.AuditEntryId, h.AuditEntryIdOK, err = binary.ReadString(r); err != nil {
		return RequestHeader{}, err
	}
	if h.TimeoutHint, err = binary.ReadUInt32(r); err != nil {
		return RequestHeader{}, err
	}
	if h.AdditionalHeader, err = types.ReadExtensionObject(r); err != nil {
		return RequestHeader{}, err
	}
	return h, nil
}

// ResponseHeader is the fixed prefix every service response carries
// (spec.md §6 "Every response begins with a ResponseHeader").
type ResponseHeader struct {
	Timestamp          int64
	RequestHandle      uint32
	ServiceResult      status.Code
	ServiceDiagnostics types.DiagnosticInfo
	StringTable        []string
	AdditionalHeader   types.ExtensionObject
}

func (h ResponseHeader) EncodeBinary(w binary.Writer) error {
	if err := binary.WriteInt64(w, h.Timestamp); err != nil {
		return err
	}
	if err := binary.WriteUint32(w, h.RequestHandle); err != nil {
		return err
	}
	if err := binary.WriteUint32(w, uint32(h.ServiceResult)); err != nil {
		return err
	}
	if err := h.ServiceDiagnostics.EncodeBinary(w); err != nil {
		return err
	}
	if err := binary.WriteInt32(w, int32(len(h.StringTable))); err != nil {
		return err
	}
	for _, s := range h.StringTable {
		if err := binary.WriteString(w, s, true); err != nil {
			return err
		}
	}
	return h.AdditionalHeader.EncodeBinary(w)
}

// newResponseHeader stamps timestamp and echoed requestHandle per
// spec.md §4.8; callers fill ServiceResult from the handler outcome.
func newResponseHeader(now time.Time, requestHandle uint32, result status.Code) ResponseHeader {
	return ResponseHeader{
		Timestamp:     types.DateTimeFromTime(now),
		RequestHandle: requestHandle,
		ServiceResult: result,
	}
}

// Handler runs a decoded request against a session and returns a
// decoded response body plus the status to stamp into
// ResponseHeader.ServiceResult. sess is nil for services that do not
// require an active session (e.g. GetEndpoints, OpenSecureChannel
// sits below this layer entirely).
type Handler func(ctx context.Context, sess *uasession.Session, header RequestHeader, body any) (respBody any, result status.Code)

// ServiceEntry binds one request type-id to its codec pair and
// handler (spec.md §4.8 "a request encodeable-type, a response
// encodeable-type, and a handler").
type ServiceEntry struct {
	Name           string
	ResponseTypeID uint32
	DecodeBody     func(r *binary.Reader) (any, error)
	EncodeBody     func(w binary.Writer, body any) error
	Handle         Handler
}

// Dispatcher is the process-wide table of registered services,
// mirroring typetable.Table's register-then-freeze shape but keyed by
// the numeric identifier of namespace-0 request type-ids rather than
// by typetable.Kind.
type Dispatcher struct {
	mu       sync.RWMutex
	services map[uint32]ServiceEntry
	tracer   trace.Tracer
	now      func() time.Time
}

// New builds a Dispatcher. tracer may be the no-op tracer returned by
// a disabled telemetry configuration; Dispatch starts a span for every
// request whose header decodes and whose type id is registered (the
// two faults before that point return without one), so the caller
// decides whether that span goes anywhere by the tracer it supplies.
func New(tracer trace.Tracer) *Dispatcher {
	return &Dispatcher{
		services: make(map[uint32]ServiceEntry),
		tracer:   tracer,
		now:      time.Now,
	}
}

// Register binds requestTypeID (a namespace-0 numeric identifier) to
// entry. Register panics on a duplicate id, consistent with
// typetable.Table.Register treating that as a startup wiring bug.
func (d *Dispatcher) Register(requestTypeID uint32, entry ServiceEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.services[requestTypeID]; exists {
		panic("dispatch: duplicate registration for request type id")
	}
	d.services[requestTypeID] = entry
}

// Result is what Dispatch hands back to the channel/session event
// loop: the response's type-id and its fully encoded bytes, ready to
// wrap in an OPC UA MSG chunk.
type Result struct {
	ResponseTypeID uint32
	Body           []byte
}

// Dispatch decodes and serves one request. requestTypeID is the
// numeric identifier the caller already peeled off the enclosing
// ExtensionObject; r positions at the RequestHeader.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *uasession.Session, requestTypeID uint32, r *binary.Reader) Result {
	header, err := DecodeRequestHeader(r)
	if err != nil {
		return d.fault(header, status.BadDecodingError)
	}

	d.mu.RLock()
	entry, ok := d.services[requestTypeID]
	d.mu.RUnlock()
	if !ok {
		return d.fault(header, status.BadServiceUnsupported)
	}

	ctx, span := d.tracer.Start(ctx, "opcua.service/"+entry.Name, trace.WithAttributes(
		attribute.Int64("opcua.request_handle", int64(header.RequestHandle)),
	))
	defer span.End()

	body, err := entry.DecodeBody(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return d.fault(header, status.BadDecodingError)
	}

	respBody, result := entry.Handle(ctx, sess, header, body)
	if result.IsBad() {
		span.SetStatus(codes.Error, result.String())
	}

	respHeader := newResponseHeader(d.now(), header.RequestHandle, result)
	out := make([]byte, 0, 64)
	w := &sliceWriter{buf: &out}
	_ = respHeader.EncodeBinary(w)
	if respBody != nil {
		_ = entry.EncodeBody(w, respBody)
	}

	return Result{ResponseTypeID: entry.ResponseTypeID, Body: out}
}

// DispatchAsync runs Dispatch on its own goroutine and invokes done
// with the result, per spec.md §4.8's synchronous/asynchronous twin
// requirement. The caller supplies the goroutine's context so
// cancellation (e.g. a Cancel service call) can unblock it.
func (d *Dispatcher) DispatchAsync(ctx context.Context, sess *uasession.Session, requestTypeID uint32, r *binary.Reader, done func(Result)) {
	go func() {
		done(d.Dispatch(ctx, sess, requestTypeID, r))
	}()
}

func (d *Dispatcher) fault(header RequestHeader, result status.Code) Result {
	respHeader := newResponseHeader(d.now(), header.RequestHandle, result)
	out := make([]byte, 0, 64)
	w := &sliceWriter{buf: &out}
	_ = respHeader.EncodeBinary(w)
	return Result{ResponseTypeID: ServiceFaultTypeID, Body: out}
}

// sliceWriter is a binary.Writer that appends to a growable byte
// slice, used to serialize the stamped response in one pass.
type sliceWriter struct{ buf *[]byte }

func (s *sliceWriter) WriteByte(b byte) error {
	*s.buf = append(*s.buf, b)
	return nil
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}
