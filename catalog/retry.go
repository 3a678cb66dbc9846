package catalog

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrArchived signals that a scene sits in the provider's long-term
// archive: the download request triggered asynchronous staging and the
// data is not retrievable yet.
var ErrArchived = errors.New("scene is archived, retrieval has been triggered")

// Retrier re-runs a download while the provider keeps reporting the
// archived state. Staging latency is anywhere from minutes to hours, so
// exhausting the attempts is a normal, non-fatal outcome.
type Retrier struct {
	MaxAttempts int
	Wait        time.Duration

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

func NewRetrier(maxAttempts int, wait time.Duration) *Retrier {
	return &Retrier{
		MaxAttempts: maxAttempts,
		Wait:        wait,
		sleep:       time.Sleep,
	}
}

// Download runs fn until it succeeds or MaxAttempts is reached, sleeping
// Wait between attempts. It returns (false, nil) when attempts are
// exhausted on the archived condition; any other error from fn aborts
// immediately and is returned as-is for the caller to handle.
func (r *Retrier) Download(ctx context.Context, id string, fn func(context.Context) error) (bool, error) {
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			log.Infof("Download of product %s successful", id)
			return true, nil
		}
		if !errors.Is(err, ErrArchived) {
			return false, err
		}
		log.Infof("Product %s is not available for direct download (attempt %d/%d)", id, attempt, r.MaxAttempts)
		if attempt < r.MaxAttempts {
			log.Infof("Retrying product %s in %s", id, r.Wait)
			sleep(r.Wait)
		}
	}

	log.Warnf("Failed to download product %s after %d attempts", id, r.MaxAttempts)
	return false, nil
}
