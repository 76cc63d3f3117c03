package wrapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-payout-server/pkg/config/memory"
)

func TestUint64Config(t *testing.T) {
	ctx := context.Background()
	defaultValue := uint64(50)
	mock := memory.NewConfig(nil)
	wrapper := NewUint64Config(mock, defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)

	// Raw environment bytes are parsed
	mock.SetValue([]byte("250"))
	assert.EqualValues(t, 250, wrapper.Get(ctx))

	// Typed in memory values are used as-is
	mock.SetValue(uint64(7))
	assert.EqualValues(t, 7, wrapper.Get(ctx))

	// The last observed config value is returned on error
	mock.InduceErrors()
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.EqualValues(t, 7, val)

	// Unparseable values keep the last known value
	mock.StopInducingErrors()
	mock.SetValue([]byte("not a number"))
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.EqualValues(t, 7, val)

	// Unsupported source types
	mock.SetValue(1.5)
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)

	// The default value is returned when the override no longer has a value
	mock.ClearValue()
	assert.Equal(t, defaultValue, wrapper.Get(ctx))
}

func TestDurationConfig(t *testing.T) {
	ctx := context.Background()
	defaultValue := 30 * time.Second
	mock := memory.NewConfig(nil)
	wrapper := NewDurationConfig(mock, defaultValue)

	assert.Equal(t, defaultValue, wrapper.Get(ctx))

	mock.SetValue([]byte("1m30s"))
	assert.Equal(t, 90*time.Second, wrapper.Get(ctx))

	mock.SetValue([]byte("1000"))
	assert.Equal(t, time.Microsecond, wrapper.Get(ctx))

	mock.SetValue(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, wrapper.Get(ctx))

	mock.SetValue([]byte("soon"))
	val, err := wrapper.GetSafe(ctx)
	assert.Error(t, err)
	assert.Equal(t, 5*time.Millisecond, val)
}

func TestStringAndBoolConfig(t *testing.T) {
	ctx := context.Background()

	stringMock := memory.NewConfig(nil)
	stringWrapper := NewStringConfig(stringMock, "mainnet")
	assert.Equal(t, "mainnet", stringWrapper.Get(ctx))
	stringMock.SetValue([]byte("regtest"))
	assert.Equal(t, "regtest", stringWrapper.Get(ctx))
	stringMock.SetValue("testnet")
	assert.Equal(t, "testnet", stringWrapper.Get(ctx))

	boolMock := memory.NewConfig(nil)
	boolWrapper := NewBoolConfig(boolMock, true)
	assert.True(t, boolWrapper.Get(ctx))
	boolMock.SetValue([]byte("false"))
	assert.False(t, boolWrapper.Get(ctx))
	boolMock.SetValue(true)
	assert.True(t, boolWrapper.Get(ctx))
}
