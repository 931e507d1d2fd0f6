// Package models defines the records warikan keeps between requests.
//
// The calculator itself is stateless: every result is recomputed from the
// input that produced it. The only thing persisted is a Share, a snapshot
// of one calculation input kept behind a short code so it can be opened
// again from a link until it expires.
//
// Payloads are stored as opaque JSON so storage backends never depend on
// the shape of the calculation input.
package models
