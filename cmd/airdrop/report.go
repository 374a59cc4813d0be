package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/openbuilders/jetton-airdrop/internal/env"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <run-id>",
		Short: "Print the recorded per-message results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), args[0])
		},
	}
}

func runReport(ctx context.Context, rawID string) error {
	runID, err := uuid.Parse(rawID)
	if err != nil {
		return errors.Wrap(errors.InvalidInput, "invalid run id", err)
	}

	postgresURL, err := env.MustGetString("POSTGRES_URL")
	if err != nil {
		return err
	}

	pg, err := postgres.Connect(ctx, postgresURL, dbPingTimeout)
	if err != nil {
		return errors.Wrap(errors.NetworkFailure, "couldn't connect to Postgres", err)
	}
	defer pg.Close()

	transfers, err := pg.GetTransfers(ctx, runID)
	if err != nil {
		return errors.Wrap(errors.NetworkFailure, "couldn't load transfers", err)
	}
	if len(transfers) == 0 {
		return errors.New(errors.InvalidInput, fmt.Sprintf("run %s not found", runID))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWALLET\tAMOUNT\tSTATUS\tCHUNK\tTX\tERROR")
	for _, tr := range transfers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			tr.Index, tr.Wallet, tr.Amount, tr.Status, tr.Chunk, tr.TxHash, tr.Error)
	}

	return tw.Flush()
}
