// Package airdrop runs one airdrop end to end: balances, recipients,
// payloads, submission and reporting.
package airdrop

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/batcher"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/health"
	"github.com/openbuilders/jetton-airdrop/internal/payload"
	"github.com/openbuilders/jetton-airdrop/internal/recipients"
	"github.com/openbuilders/jetton-airdrop/internal/sender"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/google/uuid"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"golang.org/x/sync/errgroup"
)

// Wallet is the controlling wallet as seen by the runner.
type Wallet interface {
	sender.Transport
	Address() *address.Address
	TONBalance(ctx context.Context) (tlb.Coins, error)
	ResolveJettonWallet(ctx context.Context, master *address.Address) (*address.Address, error)
	JettonBalance(ctx context.Context, jettonWallet *address.Address) (*big.Int, error)
}

// Locker serialises runs of the same wallet.
type Locker interface {
	Lock(ctx context.Context, key string) (func(context.Context) error, error)
}

// ReportSink receives the report of every run that got as far as building
// its messages.
type ReportSink interface {
	Record(ctx context.Context, report *types.Report) error
}

type Config struct {
	Network      string
	JettonMaster *address.Address
	// JettonWallet skips the jetton wallet lookup when set.
	JettonWallet   *address.Address
	RecipientsFile string
	StartID        int

	GasValue      tlb.Coins
	ForwardAmount tlb.Coins
	Comment       string
	BatchSize     int
	// Highload adds the highload wallet's packing fee to the TON needed.
	Highload bool

	CheckBalance bool
	DryRun       bool

	// LockKey identifies the wallet for the run lock.
	LockKey     string
	SinkTimeout time.Duration
}

type Runner struct {
	config  *Config
	wallet  Wallet
	locker  Locker
	checker *health.Checker
	sinks   map[string]ReportSink
	log     *slog.Logger
}

func New(config *Config, wallet Wallet) *Runner {
	return &Runner{
		config: config,
		wallet: wallet,
		sinks:  make(map[string]ReportSink),
		log:    slog.With("component", "airdrop"),
	}
}

func (r *Runner) WithLocker(locker Locker) *Runner {
	r.locker = locker
	return r
}

func (r *Runner) WithHealthChecker(checker *health.Checker) *Runner {
	r.checker = checker
	return r
}

func (r *Runner) AddSink(name string, sink ReportSink) *Runner {
	r.sinks[name] = sink
	return r
}

// Run executes the airdrop. The report is returned even on failure once the
// messages were built, with per-message results filled in.
func (r *Runner) Run(ctx context.Context) (*types.Report, error) {
	report := &types.Report{
		RunID:     uuid.New(),
		Network:   r.config.Network,
		DryRun:    r.config.DryRun,
		StartedAt: time.Now(),
	}

	log := r.log.With("run", report.RunID)

	if r.locker != nil {
		release, err := r.locker.Lock(ctx, r.config.LockKey)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.Error("couldn't release run lock", "error", err)
			}
		}()
	}

	if r.checker != nil {
		status := r.checker.Check(ctx)
		if !status.Healthy {
			return nil, errors.New(errors.NetworkFailure,
				fmt.Sprintf("preflight check failed: %v", failedComponents(status)))
		}
	}

	batch, err := r.prepare(ctx, log, report)
	if err != nil {
		return nil, err
	}

	chunks := batcher.New(&batcher.Config{BatchSize: r.config.BatchSize}).
		Split(batch.Messages)

	if r.config.DryRun {
		log.Info("Dry run, nothing is sent", "messages", len(batch.Messages),
			"chunks", len(chunks))
		report.Results = pendingResults(batch.Messages)
	} else {
		report.Results, err = sender.New(r.wallet).Submit(ctx, chunks)
	}

	report.FinishedAt = time.Now()
	if err != nil {
		report.Error = err.Error()
	}

	r.record(ctx, log, report)

	return report, err
}

// prepare resolves the wallets, logs balances and builds the batch.
func (r *Runner) prepare(ctx context.Context, log *slog.Logger, report *types.Report) (*payload.Batch, error) {
	walletAddress := r.wallet.Address()
	if walletAddress == nil {
		return nil, errors.New(errors.InvalidConfiguration, "wallet is not initialized")
	}
	report.Wallet = walletAddress.String()

	log.Info("Wallet address", "address", report.Wallet)

	tonBalance, err := r.wallet.TONBalance(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.NetworkFailure, "couldn't get wallet balance", err)
	}
	report.TONBalance = tonBalance.String()

	jettonWallet := r.config.JettonWallet
	if jettonWallet == nil {
		jettonWallet, err = r.wallet.ResolveJettonWallet(ctx, r.config.JettonMaster)
		if err != nil {
			return nil, errors.Wrap(errors.NetworkFailure, "couldn't resolve jetton wallet", err)
		}
	}
	report.JettonWallet = jettonWallet.String()

	jettonBalance, err := r.wallet.JettonBalance(ctx, jettonWallet)
	if err != nil {
		return nil, errors.Wrap(errors.NetworkFailure, "couldn't get jetton balance", err)
	}
	report.JettonBalance = jettonBalance

	log.Info("Jetton balance", "jetton_wallet", report.JettonWallet,
		"balance", jettonBalance.String(), "ton_balance", report.TONBalance)

	list, err := recipients.Load(r.config.RecipientsFile)
	if err != nil {
		return nil, err
	}

	log.Info("Loaded recipients", "count", len(list), "start_id", r.config.StartID)

	builder, err := payload.New(&payload.Config{
		JettonWallet:    jettonWallet,
		ResponseAddress: walletAddress,
		GasValue:        r.config.GasValue,
		ForwardAmount:   r.config.ForwardAmount,
		Comment:         r.config.Comment,
	})
	if err != nil {
		return nil, err
	}

	batch, err := builder.Build(list)
	if err != nil {
		return nil, err
	}
	report.Total = batch.Total

	log.Info("Built transfers", "messages", len(batch.Messages), "total", batch.Total.String())

	if err := r.checkBalance(log, batch, tonBalance, jettonBalance); err != nil {
		return nil, err
	}

	return batch, nil
}

// checkBalance warns when the wallet can't cover the batch. It only fails
// when balance checks are enforced.
func (r *Runner) checkBalance(log *slog.Logger, batch *payload.Batch,
	tonBalance tlb.Coins, jettonBalance *big.Int) error {

	requiredTON := new(big.Int).Mul(r.config.GasValue.Nano(),
		big.NewInt(int64(len(batch.Messages))))
	if r.config.Highload {
		requiredTON.Add(requiredTON, sender.HighloadPackingFee(len(batch.Messages)))
	}

	var problems []string
	if jettonBalance.Cmp(batch.Total) < 0 {
		problems = append(problems, fmt.Sprintf(
			"jetton balance %s is lower than total %s", jettonBalance, batch.Total))
	}
	if tonBalance.Nano().Cmp(requiredTON) < 0 {
		problems = append(problems, fmt.Sprintf(
			"TON balance %s is lower than required %s",
			tonBalance.String(), tlb.FromNanoTON(requiredTON).String()))
	}

	if len(problems) == 0 {
		return nil
	}

	for _, p := range problems {
		log.Warn("Not enough balance", "problem", p)
	}

	if r.config.CheckBalance {
		return errors.New(errors.InsufficientBalance, problems[0])
	}
	return nil
}

// record hands the report to every sink concurrently. Sink failures are
// logged and never change the outcome of the run.
func (r *Runner) record(ctx context.Context, log *slog.Logger, report *types.Report) {
	if len(r.sinks) == 0 {
		return
	}

	// the run context may already be cancelled, reports still need to go out
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.sinkTimeout())
	defer cancel()

	var g errgroup.Group
	for name, sink := range r.sinks {
		name, sink := name, sink
		g.Go(func() error {
			if err := sink.Record(sinkCtx, report); err != nil {
				log.Error("couldn't record report", "sink", name, "error", err)
				return err
			}
			log.Debug("Recorded report", "sink", name)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) sinkTimeout() time.Duration {
	if r.config.SinkTimeout <= 0 {
		return 10 * time.Second
	}
	return r.config.SinkTimeout
}

func pendingResults(messages []types.TransferMessage) []types.MessageResult {
	results := make([]types.MessageResult, len(messages))
	for i, msg := range messages {
		results[i] = types.MessageResult{
			Index:  msg.Index,
			Wallet: msg.Recipient.String(),
			Amount: msg.Amount.String(),
			Status: types.StatusPending,
		}
	}
	return results
}

func failedComponents(status health.HealthStatus) []health.Component {
	var failed []health.Component
	for component, check := range status.Checks {
		if !check.Result {
			failed = append(failed, component)
		}
	}
	return failed
}
