// Package subscription implements the Publish/Republish engine
// (spec.md C7): periodic ticks, keep-alive, the bounded retransmit
// queue, acknowledgement processing, lifetime expiry, and
// TransferSubscriptions.
package subscription

import (
	"sync"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

// MonitoringMode mirrors spec.md §4.7's three modes.
type MonitoringMode int

const (
	ModeDisabled MonitoringMode = iota
	ModeSampling
	ModeReporting
)

// MonitoredItem is one sampled NodeId+attribute pair (spec.md §3
// "Monitored Item"). Sample is supplied by the caller (the
// address-space layer, out of scope here per spec.md §1); this
// package only decides whether a sample should be queued given the
// item's mode and triggering links.
type MonitoredItem struct {
	ID             uint32
	SamplingMillis int64
	QueueSize      uint32
	DiscardOldest  bool
	Mode           MonitoringMode

	// Triggered are item ids this item forces to report when it
	// itself reports, even if they are in ModeSampling (spec.md
	// §4.7 "SetTriggering links items...").
	Triggered []uint32

	queue []Notification
}

// Notification is a single queued value change or event. The payload
// is left opaque (an encoded DataValue or EventFieldList) since this
// package's job is queueing and delivery, not the address-space's
// data model.
type Notification struct {
	ItemID  uint32
	Payload []byte
}

// enqueue appends n, dropping the oldest entry when QueueSize is
// exceeded and DiscardOldest is set, or refusing the newest
// otherwise.
func (m *MonitoredItem) enqueue(n Notification) {
	if uint32(len(m.queue)) < m.QueueSize || m.QueueSize == 0 {
		m.queue = append(m.queue, n)
		return
	}
	if m.DiscardOldest {
		m.queue = append(m.queue[1:], n)
	}
	// else: newest is discarded, queue unchanged.
}

func (m *MonitoredItem) drain() []Notification {
	out := m.queue
	m.queue = nil
	return out
}

// retransmitEntry is one previously sent NotificationMessage, kept
// until acknowledged or evicted for space.
type retransmitEntry struct {
	SequenceNumber uint32
	Message        NotificationMessage
}

// NotificationMessage is the body of one Publish response (spec.md
// GLOSSARY): a sequence number, publish time, and a batch of
// notifications. PublishTimeUnixNano is left as an int64 rather than
// time.Time so callers can inject a deterministic clock in tests.
type NotificationMessage struct {
	SequenceNumber      uint32
	PublishTimeUnixNano int64
	Notifications       []Notification
}

// Subscription is one periodic delivery pipeline (spec.md §3
// "Subscription").
type Subscription struct {
	mu sync.Mutex

	ID                      uint32
	SessionID               [16]byte // uuid.UUID bytes; avoids an import cycle with uasession
	PublishingIntervalMillis int64
	LifetimeCount           uint32
	MaxKeepAliveCount       uint32
	Priority                byte
	PublishingEnabled       bool
	MaxRetransmitQueueSize  uint32

	items map[uint32]*MonitoredItem

	nextSequenceNumber uint32
	keepAliveCounter   uint32
	lifetimeCounter    uint32

	retransmit []retransmitEntry

	terminated bool
}

func New(id uint32, sessionID [16]byte, publishingIntervalMillis int64, lifetimeCount, maxKeepAliveCount uint32) *Subscription {
	return &Subscription{
		ID:                       id,
		SessionID:                sessionID,
		PublishingIntervalMillis: publishingIntervalMillis,
		LifetimeCount:            lifetimeCount,
		MaxKeepAliveCount:        maxKeepAliveCount,
		PublishingEnabled:        true,
		MaxRetransmitQueueSize:   10,
		items:                    make(map[uint32]*MonitoredItem),
		nextSequenceNumber:       1,
	}
}

func (s *Subscription) AddMonitoredItem(item *MonitoredItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *Subscription) RemoveMonitoredItem(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Sample records a value for the named item, queueing it when the
// item's mode is Reporting (or when it is triggered by a reporting
// item's Sample call via ApplyTriggers). A value for a Sampling mode
// item is neither queued nor stored unless forceQueue is true;
// ApplyTriggers re-invokes Sample with triggered item ids and
// forceQueue=true.
func (s *Subscription) Sample(itemID uint32, payload []byte, forceQueue bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.Mode == ModeDisabled {
		return
	}
	if item.Mode == ModeReporting || forceQueue {
		item.enqueue(Notification{ItemID: itemID, Payload: payload})
	}
}

// ApplyTriggers forces every item linked from a reporting item's
// Triggered list to queue its most recent value alongside it (spec.md
// §4.7). Callers pass the triggering item's id and the payloads to
// deliver for each linked id.
func (s *Subscription) ApplyTriggers(triggeringItemID uint32, linkedPayloads map[uint32][]byte) {
	s.mu.Lock()
	item, ok := s.items[triggeringItemID]
	s.mu.Unlock()
	if !ok {
		return
	}
	for _, linkedID := range item.Triggered {
		if payload, ok := linkedPayloads[linkedID]; ok {
			s.Sample(linkedID, payload, true)
		}
	}
}

// tickOutcome reports what a Tick call produced, for the caller (the
// channel/session event loop) to decide whether a queued
// PublishRequest should be consumed.
type tickOutcome int

const (
	TickNothing tickOutcome = iota
	TickNotification
	TickKeepAlive
	TickTerminated
)

// Tick runs one publishing-interval cycle per spec.md §4.7's five
// numbered steps. haveQueuedRequest tells Tick whether a
// PublishRequest is currently available to answer; Tick never blocks
// waiting for one.
func (s *Subscription) Tick(nowUnixNano int64, haveQueuedRequest bool) (tickOutcome, NotificationMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return TickTerminated, NotificationMessage{}, false
	}
	if !s.PublishingEnabled {
		return TickNothing, NotificationMessage{}, false
	}

	var notifications []Notification
	for _, item := range s.items {
		notifications = append(notifications, item.drain()...)
	}

	if len(notifications) > 0 {
		msg := s.buildMessage(nowUnixNano, notifications)
		s.keepAliveCounter = 0
		s.lifetimeCounter = 0
		if !haveQueuedRequest {
			return TickNotification, msg, true // moreNotifications: caller must hold for next response
		}
		return TickNotification, msg, false
	}

	s.keepAliveCounter++
	s.lifetimeCounter++

	// A keep-alive is itself a successful publish response (spec.md
	// §4.7 step 5), so it resets the lifetime counter the same way a
	// notification does; only cycles with no response at all count
	// toward lifetime expiry.
	if s.keepAliveCounter > s.MaxKeepAliveCount {
		s.keepAliveCounter = 0
		s.lifetimeCounter = 0
		msg := s.buildMessage(nowUnixNano, nil)
		return TickKeepAlive, msg, false
	}

	if s.lifetimeCounter > s.LifetimeCount {
		s.terminated = true
		msg := s.buildMessage(nowUnixNano, nil)
		return TickTerminated, msg, false
	}

	return TickNothing, NotificationMessage{}, false
}

func (s *Subscription) buildMessage(nowUnixNano int64, notifications []Notification) NotificationMessage {
	seq := s.nextSequenceNumber
	s.nextSequenceNumber++
	msg := NotificationMessage{
		SequenceNumber:      seq,
		PublishTimeUnixNano: nowUnixNano,
		Notifications:       notifications,
	}
	s.pushRetransmit(seq, msg)
	return msg
}

func (s *Subscription) pushRetransmit(seq uint32, msg NotificationMessage) {
	if uint32(len(s.retransmit)) >= s.MaxRetransmitQueueSize && s.MaxRetransmitQueueSize > 0 {
		s.retransmit = s.retransmit[1:]
	}
	s.retransmit = append(s.retransmit, retransmitEntry{SequenceNumber: seq, Message: msg})
}

// Acknowledge removes an entry from the retransmit queue. Returns
// BadSequenceNumberUnknown when no matching entry is present.
func (s *Subscription) Acknowledge(seq uint32) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.retransmit {
		if e.SequenceNumber == seq {
			s.retransmit = append(s.retransmit[:i], s.retransmit[i+1:]...)
			return status.Good
		}
	}
	return status.BadSequenceNumberUnknown
}

// Republish returns the retransmit entry for seq, or
// BadMessageNotAvailable when absent (spec.md §4.7 "Republish").
func (s *Subscription) Republish(seq uint32) (NotificationMessage, status.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.retransmit {
		if e.SequenceNumber == seq {
			return e.Message, status.Good
		}
	}
	return NotificationMessage{}, status.BadMessageNotAvailable
}

func (s *Subscription) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// Transfer moves ownership to newSessionID per spec.md §4.7
// "TransferSubscriptions". sendInitialValues has no effect: this
// package keeps no last known value per item, so no item is marked
// and nothing is re-delivered on the next Tick unless a value is
// supplied again through Sample.
func (s *Subscription) Transfer(newSessionID [16]byte, sendInitialValues bool) (previousSessionID [16]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previousSessionID = s.SessionID
	s.SessionID = newSessionID
	s.keepAliveCounter = 0
	s.lifetimeCounter = 0
	_ = sendInitialValues
	return previousSessionID
}
