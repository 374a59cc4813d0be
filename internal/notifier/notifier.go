package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openbuilders/jetton-airdrop/internal/types"
)

const (
	PatternAirdropStatus = "airdrop-status"
)

type RunResultData struct {
	RunID        string                `json:"run_id"`
	Network      string                `json:"network"`
	Wallet       string                `json:"wallet"`
	JettonWallet string                `json:"jetton_wallet"`
	Total        string                `json:"total"`
	DryRun       bool                  `json:"dry_run"`
	Succeeded    bool                  `json:"succeeded"`
	Error        string                `json:"error,omitempty"`
	Results      []types.MessageResult `json:"results"`
}

type RunResultNotification struct {
	Pattern string        `json:"pattern"`
	Data    RunResultData `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, message []byte) error
}

// Notifier announces finished runs to downstream services.
type Notifier struct {
	publisher Publisher
	log       *slog.Logger
}

func New(publisher Publisher) *Notifier {
	return &Notifier{
		publisher: publisher,
		log:       slog.With("component", "notifier"),
	}
}

func NewNotification(report *types.Report) RunResultNotification {
	total := "0"
	if report.Total != nil {
		total = report.Total.String()
	}

	return RunResultNotification{
		Pattern: PatternAirdropStatus,
		Data: RunResultData{
			RunID:        report.RunID.String(),
			Network:      report.Network,
			Wallet:       report.Wallet,
			JettonWallet: report.JettonWallet,
			Total:        total,
			DryRun:       report.DryRun,
			Succeeded:    report.Succeeded(),
			Error:        report.Error,
			Results:      report.Results,
		},
	}
}

func (n *Notifier) Record(ctx context.Context, report *types.Report) error {
	payload := NewNotification(report)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	n.log.Debug("Sending notification", "run", payload.Data.RunID)

	if err := n.publisher.Publish(ctx, jsonData); err != nil {
		return fmt.Errorf("couldn't enqueue notification: %w", err)
	}

	return nil
}
