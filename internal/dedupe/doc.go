// Package dedupe provides a time-bounded, size-bounded cache that remembers
// the result of a request so a retried request can be answered without
// repeating its side effects.
package dedupe
