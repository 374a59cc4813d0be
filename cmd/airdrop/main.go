package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/openbuilders/jetton-airdrop/internal/config"
	"github.com/openbuilders/jetton-airdrop/internal/env"
	"github.com/openbuilders/jetton-airdrop/internal/log"

	"github.com/spf13/cobra"
)

func main() {
	config.LoadDotEnv(".env")
	log.Setup(env.GetString("LOG_LEVEL", "INFO"))

	// create the context and register signals that could cause its cancellation
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Println("Error: " + err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "airdrop",
		Short:         "Jetton airdrop from a single wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSendCmd(),
		newWalletCmd(),
		newReportCmd(),
	)

	return root
}
