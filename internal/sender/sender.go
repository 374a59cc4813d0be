package sender

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/openbuilders/jetton-airdrop/internal/batcher"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/types"
)

// Transport signs and broadcasts one chunk of messages.
type Transport interface {
	Send(ctx context.Context, messages []types.TransferMessage) (*Submission, error)
}

type Sender struct {
	transport Transport
	log       *slog.Logger
}

func New(transport Transport) *Sender {
	return &Sender{
		transport: transport,
		log:       slog.With("component", "sender"),
	}
}

// Submit sends the chunks in order and returns one result per message, in
// message order. It stops at the first failing chunk: the messages of that
// chunk are reported as error when the transport failed before broadcasting
// and as unknown otherwise, the remaining chunks as skipped.
func (s *Sender) Submit(ctx context.Context, chunks []batcher.Chunk) ([]types.MessageResult, error) {
	var results []types.MessageResult
	var failure error

	for _, chunk := range chunks {
		if failure == nil {
			if err := ctx.Err(); err != nil {
				failure = errors.Wrap(errors.NetworkFailure, "submission interrupted", err)
			}
		}

		if failure != nil {
			results = append(results, chunkResults(chunk, types.StatusSkipped, nil, "")...)
			continue
		}

		s.log.Info("Submitting chunk", "chunk", chunk.Number, "messages", len(chunk.Messages))

		submission, err := s.transport.Send(ctx, chunk.Messages)
		if err != nil {
			s.log.Error("Chunk submission failed", "chunk", chunk.Number, "error", err)

			failure = errors.Wrap(errors.NetworkFailure,
				fmt.Sprintf("chunk %d submission failed", chunk.Number), err)
			status := types.StatusUnknown
			if stderrors.Is(err, ErrNotSubmitted) {
				status = types.StatusError
			}
			results = append(results, chunkResults(chunk, status, nil, err.Error())...)
			continue
		}

		s.log.Info("Chunk submitted", "chunk", chunk.Number, "hash", submission.Hash)

		results = append(results, chunkResults(chunk, types.StatusSuccess, submission, "")...)
	}

	return results, failure
}

func chunkResults(chunk batcher.Chunk, status types.MessageStatus,
	submission *Submission, errMsg string) []types.MessageResult {

	results := make([]types.MessageResult, len(chunk.Messages))
	for i, msg := range chunk.Messages {
		results[i] = types.MessageResult{
			Index:  msg.Index,
			Status: status,
			Chunk:  chunk.Number,
			Error:  errMsg,
		}

		if msg.Recipient != nil {
			results[i].Wallet = msg.Recipient.String()
		}
		if msg.Amount != nil {
			results[i].Amount = msg.Amount.String()
		}
		if submission != nil {
			results[i].TxHash = submission.Hash
			results[i].QueryID = submission.QueryID
		}
	}
	return results
}
