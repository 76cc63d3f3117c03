package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-payout-server/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedEnvConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("PAYOUT_TEST_BATCH_SIZE", "25")
	t.Setenv("PAYOUT_TEST_TIMEOUT", "45s")

	assert.EqualValues(t, 25, NewUint64Config("payout_test_batch_size", 10).Get(ctx))
	assert.Equal(t, 45*time.Second, NewDurationConfig("PAYOUT_TEST_TIMEOUT", time.Second).Get(ctx))
	assert.Equal(t, "mainnet", NewStringConfig("PAYOUT_TEST_NETWORK", "mainnet").Get(ctx))
	assert.False(t, NewBoolConfig("PAYOUT_TEST_FLAG", false).Get(ctx))
}
