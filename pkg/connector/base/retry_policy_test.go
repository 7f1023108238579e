package base

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-typo/pkg/testutil"
)

func TestRetryPolicyBackoffSchedule(t *testing.T) {
	sleeper := &testutil.NoSleep{}
	policy := DefaultRetryPolicy().WithSleep(sleeper.Sleep)

	attempts := 0
	transient := errors.New("connection reset")
	err := policy.Execute(context.Background(), func() error {
		attempts++
		return transient
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 8, exhausted.Attempts)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 8, attempts)
	assert.Equal(t, []time.Duration{
		3 * time.Second,
		6 * time.Second,
		12 * time.Second,
		24 * time.Second,
		48 * time.Second,
		96 * time.Second,
		192 * time.Second,
	}, sleeper.Delays)
}

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	sleeper := &testutil.NoSleep{}
	policy := DefaultRetryPolicy().WithSleep(sleeper.Sleep)

	var retried []int
	policy.OnRetry = func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	}

	attempts := 0
	err := policy.Execute(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Len(t, sleeper.Delays, 2)
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	policy := DefaultRetryPolicy().WithSleep((&testutil.NoSleep{}).Sleep)
	fatal := errors.New("bad request")

	attempts := 0
	err := policy.ExecuteWithCondition(context.Background(), func() error {
		attempts++
		return fatal
	}, func(error) bool { return false })

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := NewRetryPolicy(3, time.Hour)
	err := policy.Execute(ctx, func() error { return errors.New("fail") })

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicyDelayCapAndJitter(t *testing.T) {
	policy := NewRetryPolicy(10, time.Second)
	policy.MaxDelay = 5 * time.Second
	assert.Equal(t, 5*time.Second, policy.GetDelay(6))

	jittered := policy.WithRandomization(0.5)
	for i := 0; i < 20; i++ {
		d := jittered.GetDelay(1)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}
