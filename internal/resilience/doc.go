// Package resilience holds fault tolerance helpers for outbound calls.
//
// The circuitbreaker subpackage wraps every call to PostgreSQL, Stripe,
// S3 and the notification webhooks. An open breaker fails the call at once;
// the adapters translate that into entity.ErrDependencyUnavailable, which
// the HTTP layer answers with 503. Nothing is retried in-process except
// notification webhooks, which retry once inside the breaker.
package resilience
