// File: utils/constants.go
package utils

import "time"

// WebhookDedupePrefix is the prefix for Redis keys recording processed
// payment-gateway webhook event IDs.
const WebhookDedupePrefix = "webhook:event:"

// WebhookDedupeTTL is how long a processed webhook event ID is remembered.
const WebhookDedupeTTL = 24 * time.Hour

// SweepLockPrefix is the prefix for sweep leader-lock keys.
const SweepLockPrefix = "sweep:lock:"

// SweepLockTTL bounds how long a sweep instance may hold the leader lock.
const SweepLockTTL = 5 * time.Minute
