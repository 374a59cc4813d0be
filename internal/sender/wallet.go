package sender

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/config"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/jetton"
	"github.com/xssnick/tonutils-go/ton/wallet"
)

// HighloadMessageTTL is the validity window of highload v3 external
// messages, in seconds.
const HighloadMessageTTL = 60 * 5

type WalletConfig struct {
	Mnemonic  string
	Version   config.WalletVersion
	IsTestnet bool
}

// ErrNotSubmitted marks send failures that happened before anything was
// broadcast.
var ErrNotSubmitted = errors.New("not submitted")

// Submission describes a successfully submitted external message.
type Submission struct {
	Hash    string
	QueryID uint64
}

type Wallet struct {
	config   *WalletConfig
	client   ton.APIClientWrapped
	queryIDs *QueryIDGenerator
	wallet   *wallet.Wallet
	log      *slog.Logger
}

// NewWallet creates a wallet handle, queryIDs is only used by highload
// wallets and may be nil otherwise.
func NewWallet(config *WalletConfig, client ton.APIClientWrapped,
	queryIDs *QueryIDGenerator) *Wallet {
	return &Wallet{
		config:   config,
		client:   client,
		queryIDs: queryIDs,
		log:      slog.With("component", "wallet"),
	}
}

// Init derives the key pair from the mnemonic and builds the wallet
// contract handle for the configured version.
func (w *Wallet) Init() error {
	words := strings.Fields(w.config.Mnemonic)

	version, err := w.versionConfig()
	if err != nil {
		return err
	}

	newWallet, err := wallet.FromSeed(w.client, words, version)
	if err != nil {
		return fmt.Errorf("couldn't create wallet from seed: %w", err)
	}

	w.wallet = newWallet
	return nil
}

func (w *Wallet) versionConfig() (wallet.VersionConfig, error) {
	if w.config.Version != config.WalletHighloadV3 {
		return wallet.V4R2, nil
	}

	if w.queryIDs == nil {
		return nil, fmt.Errorf("highload wallet requires a query id generator")
	}

	return wallet.ConfigHighloadV3{
		MessageTTL: HighloadMessageTTL,
		MessageBuilder: func(ctx context.Context, subWalletId uint32) (id uint32, createdAt int64, err error) {
			queryID, err := w.queryIDs.Next()
			if err != nil {
				return 0, 0, err
			}

			// Due to specific of externals emulation on liteserver,
			// we need to take something less than or equals to block time, as message creation time,
			// otherwise external message will be rejected, because time will be > than emulation time
			createdAt = time.Now().Unix() - 30

			return uint32(queryID), createdAt, nil
		},
	}, nil
}

func (w *Wallet) Address() *address.Address {
	if w.wallet == nil {
		return nil
	}
	return w.wallet.WalletAddress().Testnet(w.config.IsTestnet)
}

func (w *Wallet) TONBalance(ctx context.Context) (tlb.Coins, error) {
	block, err := w.client.CurrentMasterchainInfo(ctx)
	if err != nil {
		return tlb.Coins{}, fmt.Errorf("couldn't fetch master chain info: %w", err)
	}

	balance, err := w.wallet.GetBalance(ctx, block)
	if err != nil {
		return tlb.Coins{}, fmt.Errorf("GetBalance error: %w", err)
	}

	return balance, nil
}

// ResolveJettonWallet asks the jetton master for the jetton wallet owned by
// this wallet.
func (w *Wallet) ResolveJettonWallet(ctx context.Context, master *address.Address) (*address.Address, error) {
	client := jetton.NewJettonMasterClient(w.client, master)

	jettonWallet, err := client.GetJettonWallet(ctx, w.wallet.WalletAddress())
	if err != nil {
		return nil, fmt.Errorf("get jetton wallet address: %w", err)
	}

	return jettonWallet.Address(), nil
}

// JettonBalance runs get_wallet_data on a jetton wallet and returns its
// balance.
func (w *Wallet) JettonBalance(ctx context.Context, jettonWallet *address.Address) (*big.Int, error) {
	block, err := w.client.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't fetch master chain info: %w", err)
	}

	res, err := w.client.RunGetMethod(ctx, block, jettonWallet, "get_wallet_data")
	if err != nil {
		return nil, fmt.Errorf("run get_wallet_data: %w", err)
	}

	balance, err := res.Int(0)
	if err != nil {
		return nil, fmt.Errorf("parse jetton balance: %w", err)
	}

	return balance, nil
}

// Send signs and submits the messages in a single external message.
// Failures before the broadcast are wrapped with ErrNotSubmitted.
func (w *Wallet) Send(ctx context.Context, messages []types.TransferMessage) (*Submission, error) {
	if w.wallet == nil {
		return nil, fmt.Errorf("%w: wallet is not initialized", ErrNotSubmitted)
	}

	walletMessages := WalletMessages(messages)

	if w.config.Version == config.WalletHighloadV3 {
		return w.sendHighload(ctx, walletMessages)
	}

	w.log.Debug("sending transaction and waiting for confirmation...",
		"messages", len(walletMessages))

	txHash, err := w.wallet.SendManyWaitTxHash(ctx, walletMessages)
	if err != nil {
		return nil, fmt.Errorf("transfer error: %w", err)
	}

	w.log.Debug("transaction sent", "hash", hex.EncodeToString(txHash))

	return &Submission{Hash: hex.EncodeToString(txHash)}, nil
}

// WalletMessages maps transfer messages onto wallet actions, in order.
func WalletMessages(messages []types.TransferMessage) []*wallet.Message {
	walletMessages := make([]*wallet.Message, 0, len(messages))
	for _, msg := range messages {
		walletMessages = append(walletMessages, &wallet.Message{
			Mode: wallet.PayGasSeparately + wallet.IgnoreErrors, // pay fee separately, ignore action errors
			InternalMessage: &tlb.InternalMessage{
				IHRDisabled: true, // disable hyper routing (currently not works in ton)
				Bounce:      true, // the jetton wallet is deployed, bounce on failure
				DstAddr:     msg.Destination,
				Amount:      msg.Value,
				Body:        msg.Body,
			},
		})
	}
	return walletMessages
}

// sendHighload builds the external message first to learn its query id and
// then broadcasts it without waiting, the highload contract deduplicates by
// query id within the TTL.
func (w *Wallet) sendHighload(ctx context.Context, messages []*wallet.Message) (*Submission, error) {
	extMsg, err := w.wallet.BuildExternalMessageForMany(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: build wallet external msg error: %w", ErrNotSubmitted, err)
	}

	submission, err := w.highloadSubmission(extMsg)
	if err != nil {
		return nil, err
	}

	err = w.client.SendExternalMessage(ctx, extMsg)
	if err != nil {
		return nil, fmt.Errorf("send external message: %w", err)
	}

	return submission, nil
}

func (w *Wallet) highloadSubmission(extMsg *tlb.ExternalMessage) (*Submission, error) {
	info, err := GetHighLoadWalletMsgInfo(extMsg)
	if err != nil {
		return nil, fmt.Errorf("%w: get external message info error: %w", ErrNotSubmitted, err)
	}

	w.log.Debug("Message info", "uuid", info.UUID, "query_id", info.QueryID,
		"expires_at", info.ExpiredAt)

	return &Submission{
		Hash:    hex.EncodeToString(extMsg.Payload().Hash()),
		QueryID: info.QueryID,
	}, nil
}

// HighloadPackingFee is the TON a highload v3 wallet attaches on top of the
// messages' own value when it packs n messages into chained action lists of
// at most 253 entries. A single message is sent unpacked.
func HighloadPackingFee(n int) *big.Int {
	if n <= 1 {
		return new(big.Int)
	}
	return packFee(n)
}

func packFee(n int) *big.Int {
	const perPack = 253

	actions := n
	fee := new(big.Int)
	if n > perPack {
		fee.Add(fee, packFee(n-perPack))
		actions = perPack + 1
	}

	fee.Add(fee, new(big.Int).Mul(tlb.MustFromTON("0.007").Nano(), big.NewInt(int64(actions))))
	fee.Add(fee, tlb.MustFromTON("0.01").Nano())

	return fee
}
