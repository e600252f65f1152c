package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

func TestKeepAliveEmittedExactlyEveryMaxCount(t *testing.T) {
	// spec.md §8 scenario 6: publishingInterval=100ms, maxKeepAliveCount=3,
	// no items -> first three ticks queue no response, fourth emits a
	// keep-alive with the next sequence number.
	sub := New(1, [16]byte{}, 100, 1000, 3)

	for i := 0; i < 3; i++ {
		outcome, _, _ := sub.Tick(int64(i), true)
		assert.Equal(t, TickNothing, outcome)
	}

	outcome, msg, _ := sub.Tick(3, true)
	assert.Equal(t, TickKeepAlive, outcome)
	assert.Empty(t, msg.Notifications)
	assert.Equal(t, uint32(1), msg.SequenceNumber)
}

func TestTickNotificationResetsKeepAliveAndLifetime(t *testing.T) {
	sub := New(1, [16]byte{}, 100, 1000, 3)
	sub.AddMonitoredItem(&MonitoredItem{ID: 10, QueueSize: 5, Mode: ModeReporting})

	sub.Tick(0, true) // no data yet
	sub.Sample(10, []byte("v1"), false)

	outcome, msg, _ := sub.Tick(1, true)
	assert.Equal(t, TickNotification, outcome)
	require.Len(t, msg.Notifications, 1)
	assert.Equal(t, []byte("v1"), msg.Notifications[0].Payload)
}

func TestLifetimeExpiryTerminatesSubscription(t *testing.T) {
	// LifetimeCount=3: the counter must exceed 3 silent cycles before
	// the subscription terminates, mirroring the keep-alive counter's
	// post-increment, strictly-greater threshold.
	sub := New(1, [16]byte{}, 100, 3, 1000)

	for i := 0; i < 3; i++ {
		outcome, _, _ := sub.Tick(int64(i), true)
		assert.Equal(t, TickNothing, outcome)
	}
	outcome, _, _ := sub.Tick(3, true)
	assert.Equal(t, TickTerminated, outcome)
	assert.True(t, sub.Terminated())
}

func TestKeepAliveResetsLifetimeCounter(t *testing.T) {
	// LifetimeCount=3, MaxKeepAliveCount=2: if keep-alives didn't reset
	// the lifetime counter, ticks 3/4/5 (two silent cycles past the
	// keep-alive at tick 2) would exceed LifetimeCount and terminate.
	// Since each keep-alive is itself a successful publish response,
	// the subscription must stay alive indefinitely on keep-alives alone.
	sub := New(1, [16]byte{}, 100, 3, 2)

	for i := int64(0); i < 10; i++ {
		outcome, _, _ := sub.Tick(i, true)
		assert.NotEqual(t, TickTerminated, outcome)
	}
	assert.False(t, sub.Terminated())
}

func TestAcknowledgeRemovesFromRetransmitQueue(t *testing.T) {
	sub := New(1, [16]byte{}, 100, 1000, 1000)
	sub.AddMonitoredItem(&MonitoredItem{ID: 1, QueueSize: 5, Mode: ModeReporting})
	sub.Sample(1, []byte("a"), false)
	_, msg, _ := sub.Tick(0, true)

	assert.Equal(t, status.Good, sub.Acknowledge(msg.SequenceNumber))
	assert.Equal(t, status.BadSequenceNumberUnknown, sub.Acknowledge(msg.SequenceNumber))
}

func TestRepublishReturnsOriginalOrNotAvailable(t *testing.T) {
	sub := New(1, [16]byte{}, 100, 1000, 1000)
	sub.AddMonitoredItem(&MonitoredItem{ID: 1, QueueSize: 5, Mode: ModeReporting})
	sub.Sample(1, []byte("payload"), false)
	_, msg, _ := sub.Tick(0, true)

	got, code := sub.Republish(msg.SequenceNumber)
	require.Equal(t, status.Good, code)
	assert.Equal(t, msg, got)

	_, code = sub.Republish(msg.SequenceNumber + 99)
	assert.Equal(t, status.BadMessageNotAvailable, code)
}

func TestRetransmitQueueEvictsOldestWhenFull(t *testing.T) {
	sub := New(1, [16]byte{}, 100, 1000, 1000)
	sub.MaxRetransmitQueueSize = 2
	sub.AddMonitoredItem(&MonitoredItem{ID: 1, QueueSize: 5, Mode: ModeReporting})

	var seqs []uint32
	for i := 0; i < 3; i++ {
		sub.Sample(1, []byte{byte(i)}, false)
		_, msg, _ := sub.Tick(int64(i), true)
		seqs = append(seqs, msg.SequenceNumber)
	}

	_, code := sub.Republish(seqs[0])
	assert.Equal(t, status.BadMessageNotAvailable, code)
	_, code = sub.Republish(seqs[2])
	assert.Equal(t, status.Good, code)
}

func TestSamplingModeDoesNotQueueUntilTriggered(t *testing.T) {
	sub := New(1, [16]byte{}, 100, 1000, 1000)
	sub.AddMonitoredItem(&MonitoredItem{ID: 1, QueueSize: 5, Mode: ModeSampling, Triggered: []uint32{2}})
	sub.AddMonitoredItem(&MonitoredItem{ID: 2, QueueSize: 5, Mode: ModeSampling})

	sub.Sample(1, []byte("trigger-value"), false)
	sub.ApplyTriggers(1, map[uint32][]byte{2: []byte("linked-value")})

	_, msg, _ := sub.Tick(0, true)
	require.Len(t, msg.Notifications, 1)
	assert.Equal(t, uint32(2), msg.Notifications[0].ItemID)
}

func TestSequenceNumbersStrictlyIncreaseAcrossTwoSubscriptions(t *testing.T) {
	a := New(1, [16]byte{}, 100, 1000, 1000)
	b := New(2, [16]byte{}, 100, 1000, 1000)
	a.AddMonitoredItem(&MonitoredItem{ID: 1, QueueSize: 5, Mode: ModeReporting})
	b.AddMonitoredItem(&MonitoredItem{ID: 1, QueueSize: 5, Mode: ModeReporting})

	var aSeqs, bSeqs []uint32
	for i := 0; i < 3; i++ {
		a.Sample(1, []byte{byte(i)}, false)
		b.Sample(1, []byte{byte(i)}, false)
		_, am, _ := a.Tick(int64(i), true)
		_, bm, _ := b.Tick(int64(i), true)
		aSeqs = append(aSeqs, am.SequenceNumber)
		bSeqs = append(bSeqs, bm.SequenceNumber)
	}

	for i := 1; i < len(aSeqs); i++ {
		assert.Greater(t, aSeqs[i], aSeqs[i-1])
		assert.Greater(t, bSeqs[i], bSeqs[i-1])
	}
}
