package types

// ExchangeStatus is the health record kept for each configured venue. An
// entry exists for the lifetime of the process; the status tracker mutates
// it and hands out copies.
type ExchangeStatus struct {
	Name         string `json:"name"`
	Connected    bool   `json:"connected"`
	LastUpdateMS int64  `json:"last_update_ms"`
	QuoteCount   int    `json:"quote_count"`
	ErrorCount   int    `json:"error_count"`
	LastError    string `json:"last_error,omitempty"`
}
