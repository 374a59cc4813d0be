package batcher

import (
	"log/slog"

	"github.com/openbuilders/jetton-airdrop/internal/types"
)

const (
	// MaxMessagesV4 is the number of actions a v4r2 wallet accepts in one
	// external message.
	MaxMessagesV4 = 4
	// MaxMessagesHighloadV3 is the number of messages tonutils-go accepts in
	// a single highload v3 external message, it chains the action lists of
	// 253 messages itself.
	MaxMessagesHighloadV3 = 254 * 254
)

type Config struct {
	BatchSize int
}

type Chunk struct {
	// Number is the zero based position of the chunk in the submission order.
	Number   int
	Messages []types.TransferMessage
}

type Batcher struct {
	config *Config
	log    *slog.Logger
}

func New(config *Config) *Batcher {
	if config.BatchSize <= 0 {
		config.BatchSize = MaxMessagesV4
	}

	return &Batcher{
		config: config,
		log:    slog.With("component", "batcher"),
	}
}

// Split cuts the messages into consecutive chunks of at most BatchSize
// messages. Concatenating the chunks yields the input in its original order.
func (b *Batcher) Split(messages []types.TransferMessage) []Chunk {
	chunks := make([]Chunk, 0, (len(messages)+b.config.BatchSize-1)/b.config.BatchSize)
	batch := make([]types.TransferMessage, 0, b.config.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}

		batchCopy := make([]types.TransferMessage, len(batch))
		copy(batchCopy, batch)

		chunks = append(chunks, Chunk{
			Number:   len(chunks),
			Messages: batchCopy,
		})

		batch = batch[:0]
	}

	for _, msg := range messages {
		batch = append(batch, msg)
		if len(batch) >= b.config.BatchSize {
			flush()
		}
	}
	flush()

	b.log.Debug(
		"Split messages into chunks",
		"messages", len(messages),
		"chunks", len(chunks),
		"max", b.config.BatchSize,
	)

	return chunks
}
