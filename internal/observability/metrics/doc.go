// Package metrics declares the Prometheus collectors for the API.
//
// Collectors register on the default registry at init through promauto and
// are served by GET /metrics. Request metrics are recorded by the HTTP
// middleware; submission, payment, gateway, storage and database metrics
// by the code that performs the work, through the Record* helpers:
//
//	metrics.RecordEntrySubmitted(string(e.Category), string(e.Type()))
//
// Labels never carry user ids, entry ids or intent ids.
package metrics
