package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/airdrop"
	"github.com/openbuilders/jetton-airdrop/internal/batcher"
	"github.com/openbuilders/jetton-airdrop/internal/config"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/health"
	"github.com/openbuilders/jetton-airdrop/internal/helpers"
	"github.com/openbuilders/jetton-airdrop/internal/log"
	"github.com/openbuilders/jetton-airdrop/internal/metrics"
	"github.com/openbuilders/jetton-airdrop/internal/notifier"
	"github.com/openbuilders/jetton-airdrop/internal/queue"
	"github.com/openbuilders/jetton-airdrop/internal/repository/postgres"
	"github.com/openbuilders/jetton-airdrop/internal/sender"
	"github.com/openbuilders/jetton-airdrop/internal/state"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/spf13/cobra"
)

const (
	lockTTL           = 30 * time.Minute
	checkTimeout      = 3 * time.Second
	dbPingTimeout     = 1 * time.Second
	rabbitDialTimeout = 5 * time.Second
)

type sendOptions struct {
	file   string
	dryRun bool
}

func newSendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send jettons to every recipient of the winners file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runSend(cmd.Context(), opts); err != nil {
				return err
			}
			fmt.Println("succeed")
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "",
		"recipients file, overrides WINNERS_FILE")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"build and log the transfers without sending them")

	return cmd
}

func runSend(ctx context.Context, opts *sendOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Setup(cfg.LogLevel)

	if opts.file != "" {
		cfg.RecipientsFile = opts.file
	}

	slog.Info("Starting airdrop", "network", cfg.Network(),
		"wallet_version", cfg.WalletVersion, "dry_run", opts.dryRun)

	checker := health.NewChecker(&health.Config{CheckTimeout: checkTimeout})

	var store *state.Store
	if cfg.RedisURL != "" {
		slog.Info("Connecting to Redis...")

		redisClient, err := state.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(errors.NetworkFailure, "couldn't connect to Redis", err)
		}
		defer redisClient.Close()

		store = state.New(redisClient, &state.Config{LockTTL: lockTTL})
		checker.Register(health.ComponentRedis, store.Ping)
	}

	slog.Info("Connecting to lite servers...")

	api, err := sender.Connect(ctx, cfg.LightClientConfigURL())
	if err != nil {
		return errors.Wrap(errors.NetworkFailure, "couldn't connect to lite servers", err)
	}

	walletHash := helpers.TinyHash(cfg.Mnemonic)

	var queryIDs *sender.QueryIDGenerator
	batchSize := batcher.MaxMessagesV4
	if cfg.WalletVersion == config.WalletHighloadV3 {
		start, err := queryIDStart(ctx, store, walletHash)
		if err != nil {
			return err
		}
		queryIDs = sender.NewQueryIDGenerator(start)
		batchSize = batcher.MaxMessagesHighloadV3
	}

	w := sender.NewWallet(&sender.WalletConfig{
		Mnemonic:  cfg.Mnemonic,
		Version:   cfg.WalletVersion,
		IsTestnet: !cfg.IsMainnet,
	}, api, queryIDs)

	if err := w.Init(); err != nil {
		return errors.Wrap(errors.InvalidConfiguration, "couldn't derive wallet", err)
	}

	runner := airdrop.New(&airdrop.Config{
		Network:        cfg.Network(),
		JettonMaster:   cfg.JettonMaster,
		JettonWallet:   cfg.JettonWallet,
		RecipientsFile: cfg.RecipientsFile,
		StartID:        cfg.StartID,
		GasValue:       cfg.GasValue,
		ForwardAmount:  cfg.ForwardAmount,
		Comment:        cfg.Comment,
		BatchSize:      batchSize,
		Highload:       cfg.WalletVersion == config.WalletHighloadV3,
		CheckBalance:   cfg.CheckBalance,
		DryRun:         opts.dryRun,
		LockKey:        walletHash,
	}, w).WithHealthChecker(checker)

	if store != nil {
		runner.WithLocker(store)
	}

	if cfg.PostgresURL != "" {
		slog.Info("Connecting to Postgres...")

		pg, err := postgres.Connect(ctx, cfg.PostgresURL, dbPingTimeout)
		if err != nil {
			return errors.Wrap(errors.NetworkFailure, "couldn't connect to Postgres", err)
		}
		defer pg.Close()

		if err := pg.EnsureSchema(ctx); err != nil {
			return errors.Wrap(errors.NetworkFailure, "couldn't prepare audit schema", err)
		}

		checker.Register(health.ComponentDB, pg.Ping)
		runner.AddSink("audit", pg)
	}

	if cfg.RabbitURL != "" {
		slog.Info("Connecting to RabbitMQ...")

		rabbitConn, err := queue.Dial(&queue.Config{
			URL:            cfg.RabbitURL,
			ConnectTimeout: rabbitDialTimeout,
		})
		if err != nil {
			return errors.Wrap(errors.NetworkFailure, "couldn't connect to RabbitMQ", err)
		}
		defer rabbitConn.Close()

		checker.Register(health.ComponentRabbitMQ, func(ctx context.Context) error {
			if rabbitConn.IsClosed() {
				return fmt.Errorf("connection is closed")
			}
			return nil
		})

		publisher := queue.NewPublisher(rabbitConn, queue.QueueAirdropStatus)
		runner.AddSink("notifier", notifier.New(publisher))
	}

	if cfg.PushgatewayURL != "" {
		runner.AddSink("metrics", metrics.NewPusher(metrics.New(), cfg.PushgatewayURL))
	}

	if store != nil && queryIDs != nil {
		defer saveQueryID(store, walletHash, queryIDs)
	}

	report, err := runner.Run(ctx)
	if report != nil {
		slog.Info("Airdrop finished",
			"run", report.RunID,
			"success", report.Count(types.StatusSuccess),
			"error", report.Count(types.StatusError),
			"unknown", report.Count(types.StatusUnknown),
			"skipped", report.Count(types.StatusSkipped),
			"pending", report.Count(types.StatusPending),
		)
	}

	return err
}

// queryIDStart continues after the last query id stored for the wallet,
// falling back to a time derived position in the query id space.
func queryIDStart(ctx context.Context, store *state.Store, walletHash string) (*sender.HighloadQueryID, error) {
	fallback := sender.SeedQueryID(time.Now())
	if store == nil {
		slog.Warn("REDIS_URL is not set, highload query ids are seeded from the clock and not persisted",
			"query_id", fallback.GetQueryID())
		return fallback, nil
	}

	last, ok, err := store.LastQueryID(ctx, walletHash)
	if err != nil {
		return nil, errors.Wrap(errors.NetworkFailure, "couldn't load last query id", err)
	}
	if !ok {
		return fallback, nil
	}

	current, err := sender.FromQueryID(last)
	if err != nil {
		slog.Warn("Stored query id is malformed, starting over", "query_id", last, "error", err)
		return fallback, nil
	}

	next, err := current.GetNext()
	if err != nil {
		// the query id space is used up, start from the beginning
		return sender.NewHighloadQueryID(), nil
	}

	return next, nil
}

func saveQueryID(store *state.Store, walletHash string, queryIDs *sender.QueryIDGenerator) {
	last, ok := queryIDs.Last()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := store.SaveQueryID(ctx, walletHash, last); err != nil {
		slog.Error("couldn't save last query id", "query_id", last, "error", err)
	}
}
