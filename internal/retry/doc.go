// Package retry classifies fetch failures and computes retry backoff.
//
// # Classification
//
// Classify maps a failure message and an optional HTTP status to exactly one
// Category. ClassifyError does the same for a Go error, looking at typed
// network errors in the chain before falling back to message matching:
//
//	cat := retry.ClassifyError(err, 0)
//	if cat.Retryable() { ... }
//
// # Policy
//
// Policy is the immutable per-run retry configuration. Backoff doubles
// from BaseDelay per attempt and is capped at MaxDelay:
//
//	p := retry.NewPolicy(3, time.Second, 30*time.Second)
//	p.Backoff(0) // 1s
//	p.Backoff(3) // 8s
package retry
