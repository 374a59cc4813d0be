package model

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

type Run struct {
	UUID         uuid.UUID `db:"uuid"`
	Network      string    `db:"network"`
	Wallet       string    `db:"wallet"`
	JettonWallet string    `db:"jetton_wallet"`
	Total        *big.Int  `db:"total"`
	DryRun       bool      `db:"dry_run"`
	Status       string    `db:"status"`
	Error        string    `db:"error"`
	StartedAt    time.Time `db:"started_at"`
	FinishedAt   time.Time `db:"finished_at"`
}

type Transfer struct {
	RunUUID uuid.UUID `db:"run_uuid"`
	Index   int       `db:"idx"`
	Wallet  string    `db:"wallet"`
	Amount  *big.Int  `db:"amount"`
	Status  string    `db:"status"`
	Chunk   int       `db:"chunk"`
	TxHash  string    `db:"tx_hash"`
	QueryID uint64    `db:"query_id"`
	Error   string    `db:"error"`
}
