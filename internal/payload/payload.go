// Package payload builds jetton transfer messages for an airdrop batch.
package payload

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	// OpJettonTransfer is the TEP-74 transfer operation tag.
	OpJettonTransfer uint64 = 0x0f8a7ea5
	// CommentTag prefixes a text comment in a forward payload.
	CommentTag uint64 = 0

	DefaultComment  = "airdrop"
	DefaultGasValue = "0.06"
)

type Config struct {
	// JettonWallet is the sender's jetton wallet, the destination of every
	// message.
	JettonWallet *address.Address
	// ResponseAddress receives the excess TON, normally the sender wallet.
	ResponseAddress *address.Address
	GasValue        tlb.Coins
	ForwardAmount   tlb.Coins
	Comment         string
	QueryID         uint64
}

type Builder struct {
	config *Config
	log    *slog.Logger
}

// Batch is the ordered list of messages built from a recipients list and
// the sum of the amounts they carry.
type Batch struct {
	Messages []types.TransferMessage
	Total    *big.Int
}

func New(config *Config) (*Builder, error) {
	if config.JettonWallet == nil {
		return nil, errors.New(errors.InvalidConfiguration,
			"jetton wallet address is not set")
	}
	if config.ResponseAddress == nil {
		return nil, errors.New(errors.InvalidConfiguration,
			"response address is not set")
	}

	return &Builder{
		config: config,
		log:    slog.With("component", "payload"),
	}, nil
}

// Build turns recipients into transfer messages, one per recipient and in
// the same order. All addresses are validated before any body is built, so
// a malformed entry aborts the batch without producing messages.
func (b *Builder) Build(recipients []types.Recipient) (*Batch, error) {
	destinations := make([]*address.Address, len(recipients))
	for i, r := range recipients {
		addr, err := ParseAddress(r.Wallet)
		if err != nil {
			return nil, errors.Wrap(errors.InvalidAddress,
				fmt.Sprintf("recipient #%d: invalid address %q", i, r.Wallet), err)
		}
		destinations[i] = addr
	}

	batch := &Batch{
		Messages: make([]types.TransferMessage, 0, len(recipients)),
		Total:    new(big.Int),
	}

	for i, r := range recipients {
		amount := r.Amount.BigInt()

		body, err := b.BuildTransferBody(amount, destinations[i])
		if err != nil {
			return nil, errors.Wrap(errors.InvalidAmount,
				fmt.Sprintf("recipient #%d: amount %s", i, amount), err)
		}

		b.log.Info("Sending", "amount", amount.String(), "to", r.Wallet)

		batch.Messages = append(batch.Messages, types.TransferMessage{
			Index:       i,
			Recipient:   destinations[i],
			Amount:      amount,
			Destination: b.config.JettonWallet,
			Value:       b.config.GasValue,
			Body:        body,
		})
		batch.Total.Add(batch.Total, amount)
	}

	return batch, nil
}

// BuildTransferBody serializes a jetton transfer of amount to dst with a
// text comment in the inline forward payload.
func (b *Builder) BuildTransferBody(amount *big.Int, dst *address.Address) (*cell.Cell, error) {
	if dst == nil {
		return nil, fmt.Errorf("nil destination")
	}

	builder := cell.BeginCell().
		MustStoreUInt(OpJettonTransfer, 32).
		MustStoreUInt(b.config.QueryID, 64)

	if err := builder.StoreBigCoins(amount); err != nil {
		return nil, fmt.Errorf("store amount: %w", err)
	}

	builder.
		MustStoreAddr(dst).
		MustStoreAddr(b.config.ResponseAddress).
		MustStoreBoolBit(false) // no custom payload

	if err := builder.StoreBigCoins(b.config.ForwardAmount.Nano()); err != nil {
		return nil, fmt.Errorf("store forward amount: %w", err)
	}

	builder.
		MustStoreBoolBit(false). // forward payload inline
		MustStoreUInt(CommentTag, 32)

	if err := builder.StoreStringSnake(b.config.Comment); err != nil {
		return nil, fmt.Errorf("store comment: %w", err)
	}

	return builder.EndCell(), nil
}
