package domain

import "time"

// SyncReport summarizes one reconciliation run.
type SyncReport struct {
	CustomersFetched  int `json:"customers_fetched"`
	OrdersFetched     int `json:"orders_fetched"`
	CustomersInserted int `json:"customers_inserted"`
	OrdersInserted    int `json:"orders_inserted"`
	OrdersLinked      int `json:"orders_linked"`
}

// Sync run states as published to the status store.
const (
	SyncStateRunning   = "running"
	SyncStateCompleted = "completed"
	SyncStateFailed    = "failed"
)

// SyncStatus is the per-store record of the most recent sync run. The UI
// polls it while a fire-and-forget run is in flight.
type SyncStatus struct {
	StoreID    string      `json:"store_id"`
	RunID      string      `json:"run_id"`
	State      string      `json:"state"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Error      string      `json:"error,omitempty"`
	Report     *SyncReport `json:"report,omitempty"`
}
