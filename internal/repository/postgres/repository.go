package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/openbuilders/jetton-airdrop/internal/repository/postgres/model"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	DuplicateKeyValue string = "23505"

	RunStatusSuccess = "success"
	RunStatusError   = "error"
	RunStatusDryRun  = "dry_run"
)

var (
	ErrDuplicateKeyValue = errors.New("duplicate key value")
)

// RunFromReport maps a report onto the audit rows.
func RunFromReport(report *types.Report) (model.Run, []model.Transfer) {
	status := RunStatusSuccess
	switch {
	case report.Error != "":
		status = RunStatusError
	case report.DryRun:
		status = RunStatusDryRun
	}

	run := model.Run{
		UUID:         report.RunID,
		Network:      report.Network,
		Wallet:       report.Wallet,
		JettonWallet: report.JettonWallet,
		Total:        report.Total,
		DryRun:       report.DryRun,
		Status:       status,
		Error:        report.Error,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
	}
	if run.Total == nil {
		run.Total = new(big.Int)
	}

	transfers := make([]model.Transfer, len(report.Results))
	for i, res := range report.Results {
		amount, ok := new(big.Int).SetString(res.Amount, 10)
		if !ok {
			amount = new(big.Int)
		}

		transfers[i] = model.Transfer{
			RunUUID: report.RunID,
			Index:   res.Index,
			Wallet:  res.Wallet,
			Amount:  amount,
			Status:  string(res.Status),
			Chunk:   res.Chunk,
			TxHash:  res.TxHash,
			QueryID: res.QueryID,
			Error:   res.Error,
		}
	}

	return run, transfers
}

// Record stores the run and all of its transfers in one transaction.
func (p *Postgres) Record(ctx context.Context, report *types.Report) error {
	run, transfers := RunFromReport(report)

	tx, err := p.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	runID := pgtype.UUID{Bytes: run.UUID, Valid: true}

	_, err = tx.Exec(ctx, `
		INSERT INTO airdrop_run (uuid, network, wallet, jetton_wallet, total,
			dry_run, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		runID, run.Network, run.Wallet, run.JettonWallet, numeric(run.Total),
		run.DryRun, run.Status, run.Error, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == DuplicateKeyValue {
			return ErrDuplicateKeyValue
		}
		return fmt.Errorf("couldn't persist run: %w", err)
	}

	fields := []string{"run_uuid", "idx", "wallet", "amount", "status",
		"chunk", "tx_hash", "query_id", "error"}
	rows := make([][]any, len(transfers))
	for i, tr := range transfers {
		rows[i] = []any{runID, int32(tr.Index), tr.Wallet, numeric(tr.Amount),
			tr.Status, int32(tr.Chunk), tr.TxHash, int64(tr.QueryID), tr.Error}
	}

	inserted, err := tx.CopyFrom(ctx, pgx.Identifier{"airdrop_transfer"}, fields,
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("couldn't persist transfers: %w", err)
	}

	if inserted != int64(len(rows)) {
		return fmt.Errorf("persist transfers: inserted %d of %d rows",
			inserted, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	p.log.Debug("Persisted run", "run", run.UUID, "transfers", inserted)

	return nil
}

// GetTransfers returns the audit rows of a run in message order.
func (p *Postgres) GetTransfers(ctx context.Context, runID [16]byte) ([]model.Transfer, error) {
	rows, err := p.pg.Query(ctx, `
		SELECT idx, wallet, amount::text, status, chunk, tx_hash, query_id, error
		FROM airdrop_transfer
		WHERE run_uuid = $1
		ORDER BY idx`,
		pgtype.UUID{Bytes: runID, Valid: true},
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		var (
			tr      model.Transfer
			amount  string
			queryID int64
		)

		err := rows.Scan(&tr.Index, &tr.Wallet, &amount, &tr.Status, &tr.Chunk,
			&tr.TxHash, &queryID, &tr.Error)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}

		tr.RunUUID = runID
		tr.QueryID = uint64(queryID)
		tr.Amount, _ = new(big.Int).SetString(amount, 10)

		transfers = append(transfers, tr)
	}

	return transfers, rows.Err()
}

func numeric(v *big.Int) pgtype.Numeric {
	if v == nil {
		v = new(big.Int)
	}
	return pgtype.Numeric{Int: v, Exp: 0, Valid: true}
}
