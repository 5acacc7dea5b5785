package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/storekeephq/storekeep-go/internal/domain/analytics"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/performance"
)

// FetchCoordinator guarantees at most one in-flight provider fetch per
// (tenant, range) key. Concurrent requests for the same key share the
// single result; a request that stops waiting does not cancel the flight,
// which runs to completion on its own timeout-bound context.
type FetchCoordinator struct {
	group       singleflight.Group
	timeout     time.Duration
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewFetchCoordinator creates a coordinator whose flights are bounded by
// the given timeout.
func NewFetchCoordinator(timeout time.Duration, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *FetchCoordinator {
	return &FetchCoordinator{
		timeout:     timeout,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// FetchOnce runs fn under the key's flight, starting one if none is in
// progress. The flight's context is detached from any caller so a slow
// provider call is bounded by the configured timeout only.
func (c *FetchCoordinator) FetchOnce(tenantID string, rng analytics.DateRange, fn func(ctx context.Context) (*analytics.TrafficData, error)) (*analytics.TrafficData, error) {
	key := tenantID + "|" + rng.Key()

	v, err, shared := c.group.Do(key, func() (any, error) {
		marker := c.perfTracker.StartOperation("provider_fetch", tenantID)
		defer marker.Complete()
		marker.AddMetadata("range", rng.Key())

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		data, ferr := fn(ctx)
		if ferr != nil {
			marker.SetError(ferr)
			if errors.Is(ferr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: fetch exceeded %v", analytics.ErrProviderUnavailable, c.timeout)
			}
			return nil, ferr
		}
		return data, nil
	})

	if shared {
		c.logger.Analytics().Debug("Fetch coalesced onto in-flight request",
			"tenantId", tenantID, "range", rng.Key())
	}
	if err != nil {
		return nil, err
	}
	return v.(*analytics.TrafficData), nil
}
