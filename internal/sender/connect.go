package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
)

// Connect opens a lite client connection pool from a global config URL and
// returns an API client trusting the config's init block.
func Connect(ctx context.Context, configURL string) (ton.APIClientWrapped, error) {
	client := liteclient.NewConnectionPool()

	cfg, err := liteclient.GetConfigFromUrl(ctx, configURL)
	if err != nil {
		return nil, fmt.Errorf("get lite client config: %w", err)
	}

	err = client.AddConnectionsFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't add connection to lite client: %w", err)
	}

	slog.Debug("Connected to lite servers", "liteservers", len(cfg.Liteservers))

	api := ton.NewAPIClient(client, ton.ProofCheckPolicyFast).WithRetry()
	api.SetTrustedBlockFromConfig(cfg)

	return api, nil
}
