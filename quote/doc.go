// Package quote defines the value types shared by the quote aggregation engine:
// validated conversion requests, per-provider outcomes, round results
// and the failure taxonomy.
//
// Provider failures are never Go errors. They travel as failed Outcome values
// with a Kind, so that a round can always report every provider's result.
// Only round-level failures (an invalid request, no enabled providers,
// or all providers failing) surface as *Error.
package quote
