// Package analytics defines the traffic analytics domain model shared by
// the cache, the provider adapters, and the application services.
package analytics

import "errors"

// Failure taxonomy for tenant-scoped analytics retrieval. An empty
// provider result is not an error; it maps to zero-valued TrafficData.
var (
	// ErrUnknownTenant means the tenant reference resolved to no record.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrProviderMisconfigured means the tenant exists but its analytics
	// provider configuration is absent, disabled, or rejected as invalid.
	ErrProviderMisconfigured = errors.New("analytics provider misconfigured")

	// ErrProviderUnavailable means the provider could not be reached or
	// answered with a transient failure (network error, timeout, 5xx).
	ErrProviderUnavailable = errors.New("analytics provider unavailable")
)
