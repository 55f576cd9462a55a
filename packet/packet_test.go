package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewData(t *testing.T) {
	p := NewData("i64", []byte{1, 2, 3})
	assert.True(t, p.IsData())
	assert.False(t, p.IsError())
	assert.False(t, p.IsDone())
	assert.Equal(t, "i64", p.TypeTag)
}

func TestNewError(t *testing.T) {
	p := NewError("panic", "boom")
	assert.True(t, p.IsError())
	assert.False(t, p.IsData())
	assert.Equal(t, "boom", p.ErrMsg)
}

func TestSignals(t *testing.T) {
	assert.True(t, NewDone().IsDone())
	assert.Equal(t, SignalOpenBracket, NewOpenBracket().Signal)
	assert.Equal(t, SignalCloseBracket, NewCloseBracket().Signal)
	assert.False(t, NewOpenBracket().IsDone())
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "Done", SignalDone.String())
	assert.Equal(t, "None", SignalNone.String())
}

func TestPacketString(t *testing.T) {
	assert.Contains(t, NewData("string", []byte("hi")).String(), "Data(")
	assert.Contains(t, NewError("x", "y").String(), "Error(")
	assert.Contains(t, NewDone().String(), "Signal(")
}
