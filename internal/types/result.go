package types

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusSuccess MessageStatus = "success"
	StatusError   MessageStatus = "error"
	// StatusUnknown marks messages whose submission failed midway, they may
	// or may not have reached the chain.
	StatusUnknown MessageStatus = "unknown"
	// StatusSkipped marks messages that were never submitted.
	StatusSkipped MessageStatus = "skipped"
)

type MessageResult struct {
	Index   int           `json:"index"`
	Wallet  string        `json:"wallet"`
	Amount  string        `json:"amount"`
	Status  MessageStatus `json:"status"`
	Chunk   int           `json:"chunk"`
	TxHash  string        `json:"tx_hash,omitempty"`
	QueryID uint64        `json:"query_id,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Report summarises a single airdrop run.
type Report struct {
	RunID         uuid.UUID       `json:"run_id"`
	Network       string          `json:"network"`
	Wallet        string          `json:"wallet"`
	JettonWallet  string          `json:"jetton_wallet"`
	TONBalance    string          `json:"ton_balance"`
	JettonBalance *big.Int        `json:"jetton_balance"`
	Total         *big.Int        `json:"total"`
	DryRun        bool            `json:"dry_run"`
	Results       []MessageResult `json:"results"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Error         string          `json:"error,omitempty"`
}

// Count returns the number of results in the given status.
func (r *Report) Count(status MessageStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Succeeded reports whether every message was delivered. A dry run never
// submits anything and succeeds as long as it produced no error.
func (r *Report) Succeeded() bool {
	if r.Error != "" {
		return false
	}
	return r.DryRun || r.Count(StatusSuccess) == len(r.Results)
}
