package queue

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}

// Policy controls how a job type is executed and retried.
type Policy struct {
	MaxAttempts int
	Timeout     time.Duration
	// Backoff returns the delay before the given retry (1 for the first retry).
	Backoff func(retry int) time.Duration
}

// ExponentialBackoff grows from initial up to maxInterval with the library's default jitter.
func ExponentialBackoff(initial, maxInterval time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = maxInterval
		b.MaxElapsedTime = 0
		b.Reset()

		d := b.NextBackOff()
		for i := 1; i < retry; i++ {
			d = b.NextBackOff()
		}
		return d
	}
}

// FixedSchedule returns delays[retry-1], repeating the last entry.
func FixedSchedule(delays ...time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		if len(delays) == 0 {
			return 0
		}
		if retry < 1 {
			retry = 1
		}
		if retry > len(delays) {
			return delays[len(delays)-1]
		}
		return delays[retry-1]
	}
}

// SendSMSPolicy covers two vendors at 30s each. Deployments size Timeout from
// their own vendor count.
var SendSMSPolicy = Policy{
	MaxAttempts: 3,
	Timeout:     75 * time.Second,
	Backoff:     ExponentialBackoff(10*time.Second, 5*time.Minute),
}

var RefreshTokensPolicy = Policy{
	MaxAttempts: 3,
	Timeout:     300 * time.Second,
	Backoff:     FixedSchedule(time.Minute, 5*time.Minute, 15*time.Minute),
}
