package types

// Event represents a structured, append-only record of a ledger state change.
// Attributes are stringly-typed so downstream sinks (logs, metrics, RPC) can
// consume them without schema coupling.
type Event struct {
	Type       string
	Attributes map[string]string
}
