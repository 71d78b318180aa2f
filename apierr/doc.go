// Package apierr defines the error taxonomy shared by every provider client.
//
// Errors returned by an HTTP execution function are classified into two broad
// groups: retryable (timeouts, connection failures, HTTP 429, HTTP 5xx) and
// fatal (other 4xx, validation, authentication). The resilience package uses
// this classification to decide whether an attempt should be repeated.
//
// The central type is [Error], which carries the HTTP status (when one was
// received), an optional server-supplied Retry-After hint, and a transient
// flag for network-level failures that never produced a status at all.
//
// Classification helpers work through errors.As, so wrapped errors classify
// the same as bare ones:
//
//	if apierr.Retryable(err) {
//	    // schedule another attempt
//	}
package apierr
