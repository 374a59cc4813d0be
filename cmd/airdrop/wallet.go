package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/openbuilders/jetton-airdrop/internal/config"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/log"
	"github.com/openbuilders/jetton-airdrop/internal/sender"

	"github.com/spf13/cobra"
	"github.com/xssnick/tonutils-go/ton/wallet"
)

func newWalletCmd() *cobra.Command {
	var newSeed bool

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Print the wallet address and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if newSeed {
				return runNewSeed(cmd.Context())
			}
			return runWalletInfo(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&newSeed, "new-seed", false,
		"generate a fresh seed and print its wallet address")

	return cmd
}

// runNewSeed prints a new mnemonic and the address of the configured wallet
// version derived from it. Nothing is deployed.
func runNewSeed(ctx context.Context) error {
	cfg, err := config.LoadNetwork()
	if err != nil {
		return err
	}
	log.Setup(cfg.LogLevel)

	cfg.Mnemonic = strings.Join(wallet.NewSeed(), " ")

	w, err := openWallet(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Println("New seed:", cfg.Mnemonic)
	fmt.Printf("%s wallet address (%s): %s\n", cfg.WalletVersion, cfg.Network(), w.Address())

	return nil
}

func runWalletInfo(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Setup(cfg.LogLevel)

	w, err := openWallet(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%s wallet address (%s): %s\n", cfg.WalletVersion, cfg.Network(), w.Address())

	balance, err := w.TONBalance(ctx)
	if err != nil {
		return errors.Wrap(errors.NetworkFailure, "couldn't get wallet balance", err)
	}
	fmt.Println("TON balance:", balance.String())

	jettonWallet := cfg.JettonWallet
	if jettonWallet == nil {
		jettonWallet, err = w.ResolveJettonWallet(ctx, cfg.JettonMaster)
		if err != nil {
			return errors.Wrap(errors.NetworkFailure, "couldn't resolve jetton wallet", err)
		}
	}

	jettonBalance, err := w.JettonBalance(ctx, jettonWallet)
	if err != nil {
		return errors.Wrap(errors.NetworkFailure, "couldn't get jetton balance", err)
	}

	fmt.Println("Jetton wallet:", jettonWallet.String())
	fmt.Println("Jetton balance:", jettonBalance.String())

	return nil
}

// openWallet connects to the lite servers and derives the wallet. The query
// id generator is a placeholder, this wallet never sends.
func openWallet(ctx context.Context, cfg *config.Config) (*sender.Wallet, error) {
	api, err := sender.Connect(ctx, cfg.LightClientConfigURL())
	if err != nil {
		return nil, errors.Wrap(errors.NetworkFailure, "couldn't connect to lite servers", err)
	}

	w := sender.NewWallet(&sender.WalletConfig{
		Mnemonic:  cfg.Mnemonic,
		Version:   cfg.WalletVersion,
		IsTestnet: !cfg.IsMainnet,
	}, api, sender.NewQueryIDGenerator(sender.NewHighloadQueryID()))

	if err := w.Init(); err != nil {
		return nil, errors.Wrap(errors.InvalidConfiguration, "couldn't derive wallet", err)
	}

	return w, nil
}
