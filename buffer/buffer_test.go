package buffer

import (
	"testing"

	"github.com/flowmesh/flowmesh/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstPushReportsBuffered(t *testing.T) {
	b := New()
	assert.Equal(t, Open, b.Status())
	assert.Equal(t, Buffered, b.Push(packet.NewData("i64", []byte{1})))
}

func TestSecondPushWhileAlreadyReadyIsConsumed(t *testing.T) {
	b := New()
	require.Equal(t, Buffered, b.Push(packet.NewData("i64", []byte{1})))
	assert.Equal(t, Consumed, b.Push(packet.NewData("i64", []byte{2})))
}

func TestMonotonicIndex(t *testing.T) {
	b := New()
	b.Push(packet.NewData("i64", nil))
	b.Push(packet.NewData("i64", nil))
	p0, _ := b.Take()
	p1, _ := b.Take()
	assert.Equal(t, uint64(0), p0.Index)
	assert.Equal(t, uint64(1), p1.Index)
}

func TestDoneOnEmptyBufferClosesImmediately(t *testing.T) {
	b := New()
	result := b.Push(packet.NewDone())
	assert.Equal(t, Buffered, result, "Done on an empty, not-yet-ready buffer must wake the scheduler")
	assert.Equal(t, DoneClosed, b.Status())
}

func TestDoneWithPendingDataStaysDoneOpenUntilDrained(t *testing.T) {
	b := New()
	b.Push(packet.NewData("i64", nil))
	b.Push(packet.NewDone())
	assert.Equal(t, DoneOpen, b.Status())

	_, ok := b.Take()
	require.True(t, ok)
	assert.Equal(t, DoneClosed, b.Status())

	_, ok = b.Take()
	assert.False(t, ok)
}

func TestReadyReflectsClosedEmptyPort(t *testing.T) {
	b := New()
	assert.False(t, b.Ready())
	b.Push(packet.NewDone())
	assert.True(t, b.Ready())
	assert.True(t, b.IsClosed())
}
