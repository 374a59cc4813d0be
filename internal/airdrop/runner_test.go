package airdrop

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/batcher"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/health"
	"github.com/openbuilders/jetton-airdrop/internal/payload"
	"github.com/openbuilders/jetton-airdrop/internal/sender"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
)

func testAddress(seed string) *address.Address {
	hash := sha256.Sum256([]byte(seed))
	return address.NewAddress(0, 0, hash[:])
}

type fakeWallet struct {
	address       *address.Address
	jettonWallet  *address.Address
	tonBalance    tlb.Coins
	jettonBalance *big.Int
	balanceErr    error
	failAt        int

	resolved int
	sent     [][]types.TransferMessage
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		address:       testAddress("sender"),
		jettonWallet:  testAddress("jetton-wallet"),
		tonBalance:    tlb.MustFromTON("100"),
		jettonBalance: big.NewInt(1_000_000),
		failAt:        -1,
	}
}

func (w *fakeWallet) Address() *address.Address { return w.address }

func (w *fakeWallet) TONBalance(ctx context.Context) (tlb.Coins, error) {
	if w.balanceErr != nil {
		return tlb.Coins{}, w.balanceErr
	}
	return w.tonBalance, nil
}

func (w *fakeWallet) ResolveJettonWallet(ctx context.Context, master *address.Address) (*address.Address, error) {
	w.resolved++
	return w.jettonWallet, nil
}

func (w *fakeWallet) JettonBalance(ctx context.Context, jw *address.Address) (*big.Int, error) {
	return w.jettonBalance, nil
}

func (w *fakeWallet) Send(ctx context.Context, messages []types.TransferMessage) (*sender.Submission, error) {
	w.sent = append(w.sent, messages)
	if len(w.sent)-1 == w.failAt {
		return nil, fmt.Errorf("connection reset")
	}
	return &sender.Submission{Hash: fmt.Sprintf("tx-%d", len(w.sent)-1)}, nil
}

type fakeSink struct {
	mu      sync.Mutex
	reports []*types.Report
	err     error
}

func (s *fakeSink) Record(ctx context.Context, report *types.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.err
}

type fakeLocker struct {
	err      error
	key      string
	released bool
}

func (l *fakeLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.key = key
	return func(context.Context) error {
		l.released = true
		return nil
	}, nil
}

func writeRecipients(t *testing.T, amounts ...int64) string {
	t.Helper()

	list := make([]map[string]any, len(amounts))
	for i, amount := range amounts {
		list[i] = map[string]any{
			"wallet": testAddress(fmt.Sprintf("recipient-%d", i)).String(),
			"amount": amount,
		}
	}

	data, err := json.Marshal(list)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "winners.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func testConfig(file string) *Config {
	return &Config{
		Network:        "testnet",
		JettonMaster:   testAddress("jetton-master"),
		RecipientsFile: file,
		GasValue:       tlb.MustFromTON(payload.DefaultGasValue),
		ForwardAmount:  tlb.FromNanoTONU(1),
		Comment:        payload.DefaultComment,
		BatchSize:      batcher.MaxMessagesV4,
		LockKey:        "wallet",
	}
}

func TestRun_Success(t *testing.T) {
	w := newFakeWallet()
	sink := &fakeSink{}
	locker := &fakeLocker{}

	report, err := New(testConfig(writeRecipients(t, 1, 2, 3, 4, 5, 6)), w).
		WithLocker(locker).
		AddSink("audit", sink).
		Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Succeeded())
	assert.Equal(t, big.NewInt(21), report.Total)
	assert.Equal(t, 1, w.resolved)
	require.Len(t, w.sent, 2)
	assert.Len(t, w.sent[0], 4)
	assert.Len(t, w.sent[1], 2)

	for i, msg := range append(w.sent[0], w.sent[1]...) {
		assert.Equal(t, i, msg.Index)
		assert.True(t, payload.SameAddress(w.jettonWallet, msg.Destination))
	}

	require.Len(t, report.Results, 6)
	assert.Equal(t, "tx-1", report.Results[5].TxHash)

	assert.Equal(t, "wallet", locker.key)
	assert.True(t, locker.released)

	require.Len(t, sink.reports, 1)
	assert.Same(t, report, sink.reports[0])
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRun_ConfiguredJettonWallet(t *testing.T) {
	w := newFakeWallet()
	config := testConfig(writeRecipients(t, 10))
	config.JettonWallet = testAddress("configured")

	report, err := New(config, w).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, w.resolved)
	assert.Equal(t, config.JettonWallet.String(), report.JettonWallet)
	require.Len(t, w.sent, 1)
	assert.True(t, payload.SameAddress(config.JettonWallet, w.sent[0][0].Destination))
}

func TestRun_DryRun(t *testing.T) {
	w := newFakeWallet()
	sink := &fakeSink{}
	config := testConfig(writeRecipients(t, 100, 250))
	config.DryRun = true

	report, err := New(config, w).AddSink("audit", sink).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, w.sent)
	assert.True(t, report.DryRun)
	assert.True(t, report.Succeeded())
	assert.Equal(t, 2, report.Count(types.StatusPending))
	assert.Equal(t, big.NewInt(350), report.Total)
	assert.Len(t, sink.reports, 1)
}

func TestRun_ChunkFailure(t *testing.T) {
	w := newFakeWallet()
	w.failAt = 1
	sink := &fakeSink{}

	report, err := New(testConfig(writeRecipients(t, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)), w).
		AddSink("audit", sink).
		Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.NetworkFailure))

	require.NotNil(t, report)
	assert.False(t, report.Succeeded())
	assert.Equal(t, 4, report.Count(types.StatusSuccess))
	assert.Equal(t, 4, report.Count(types.StatusUnknown))
	assert.Equal(t, 2, report.Count(types.StatusSkipped))
	assert.NotEmpty(t, report.Error)

	assert.Len(t, w.sent, 2)
	assert.Len(t, sink.reports, 1)
}

func TestRun_InsufficientJettons(t *testing.T) {
	w := newFakeWallet()
	w.jettonBalance = big.NewInt(5)

	config := testConfig(writeRecipients(t, 3, 3))
	config.CheckBalance = true
	sink := &fakeSink{}

	report, err := New(config, w).AddSink("audit", sink).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsCode(err, errors.InsufficientBalance))
	assert.Empty(t, w.sent)
	assert.Empty(t, sink.reports)
}

func TestRun_InsufficientTONWarnsOnly(t *testing.T) {
	w := newFakeWallet()
	w.tonBalance = tlb.MustFromTON("0.01")

	report, err := New(testConfig(writeRecipients(t, 3, 3)), w).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Len(t, w.sent, 1)
}

func TestRun_BalanceError(t *testing.T) {
	w := newFakeWallet()
	w.balanceErr = fmt.Errorf("timeout")

	_, err := New(testConfig(writeRecipients(t, 1)), w).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.NetworkFailure))
	assert.Empty(t, w.sent)
}

func TestRun_InvalidRecipientAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winners.json")
	data := fmt.Sprintf(`[{"wallet": %q, "amount": 1}, {"wallet": "not-an-address", "amount": 2}]`,
		testAddress("ok").String())
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	w := newFakeWallet()
	_, err := New(testConfig(path), w).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidAddress))
	assert.Empty(t, w.sent)
}

func TestRun_MissingRecipientsFile(t *testing.T) {
	w := newFakeWallet()
	_, err := New(testConfig(filepath.Join(t.TempDir(), "missing.json")), w).
		Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidInput))
}

func TestRun_Locked(t *testing.T) {
	w := newFakeWallet()
	locker := &fakeLocker{err: errors.New(errors.Locked, "another run holds the lock")}

	_, err := New(testConfig(writeRecipients(t, 1)), w).WithLocker(locker).
		Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.Locked))
	assert.Empty(t, w.sent)
}

func TestRun_HealthCheckFailure(t *testing.T) {
	checker := health.NewChecker(&health.Config{CheckTimeout: time.Second})
	checker.Register(health.ComponentRedis, func(ctx context.Context) error {
		return fmt.Errorf("connection refused")
	})

	w := newFakeWallet()
	_, err := New(testConfig(writeRecipients(t, 1)), w).WithHealthChecker(checker).
		Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.NetworkFailure))
	assert.Contains(t, err.Error(), "redis")
	assert.Empty(t, w.sent)
}

func TestRun_SinkErrorDoesNotFailRun(t *testing.T) {
	w := newFakeWallet()
	broken := &fakeSink{err: fmt.Errorf("broker is down")}
	audit := &fakeSink{}

	report, err := New(testConfig(writeRecipients(t, 7)), w).
		AddSink("notifier", broken).
		AddSink("audit", audit).
		Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Len(t, broken.reports, 1)
	assert.Len(t, audit.reports, 1)
}

func TestRun_HighloadSingleSubmission(t *testing.T) {
	amounts := make([]int64, 300)
	for i := range amounts {
		amounts[i] = int64(i + 1)
	}

	w := newFakeWallet()
	config := testConfig(writeRecipients(t, amounts...))
	config.BatchSize = batcher.MaxMessagesHighloadV3
	config.Highload = true

	report, err := New(config, w).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Succeeded())

	require.Len(t, w.sent, 1)
	require.Len(t, w.sent[0], 300)
	for i, msg := range w.sent[0] {
		assert.Equal(t, i, msg.Index)
	}
	assert.Equal(t, big.NewInt(300*301/2), report.Total)
}

func TestRun_HighloadPackingFee(t *testing.T) {
	// exactly the attached gas, without the packing fee
	gasOnly := tlb.MustFromTON("0.18")

	for _, highload := range []bool{false, true} {
		t.Run(fmt.Sprintf("highload=%v", highload), func(t *testing.T) {
			w := newFakeWallet()
			w.tonBalance = gasOnly

			config := testConfig(writeRecipients(t, 1, 2, 3))
			config.CheckBalance = true
			config.Highload = highload

			_, err := New(config, w).Run(context.Background())
			if !highload {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.InsufficientBalance))
			assert.Empty(t, w.sent)
		})
	}
}
