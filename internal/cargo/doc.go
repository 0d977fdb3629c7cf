// Package cargo provides an HTTP client for the cargo stowage backend.
//
// # Overview
//
// The backend owns all domain logic: placement search, waste identification,
// return planning and time simulation. This package only moves JSON across
// the wire and turns failures into typed errors the dashboard can render.
//
// The package is split into three files:
//
//   - client.go: Client, the API interface and request plumbing
//   - types.go: payloads mirroring the backend schema
//   - errors.go: RequestError, DecodeError and error-body parsing
//
// # Client Usage
//
//	client, err := cargo.NewClient("http://localhost:8000",
//		cargo.WithLogger(logger),
//		cargo.WithCollector(collector),
//	)
//	if err != nil {
//		return err
//	}
//	items, err := client.ListItems(ctx, "")
//
// # Request Handling
//
// Every request:
//   - is a single attempt; there are no retries
//   - has no client-side timeout; cancel ctx to abandon it
//   - carries Accept, User-Agent and a fresh X-Request-ID header
//   - is counted by the telemetry.Collector under its route template
//   - is logged at debug level
//
// # Error Handling
//
//   - *RequestError: non-2xx status, message taken from the JSON "detail"
//     field when present (plain string or a validation list), otherwise a
//     generic status message. Status is 0 for transport failures.
//   - *DecodeError: the body was not the JSON shape expected.
//
// IsNotFound is a shortcut for the 404 case used by item lookups.
//
// # Quantities
//
// Mass, volume and weight in responses decode into decimal.Decimal so the
// dashboard prints exactly what the server computed. Request payloads use
// float64 because the backend parses plain JSON numbers.
package cargo
