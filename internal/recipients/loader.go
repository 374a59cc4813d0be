package recipients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/types"
)

const DefaultFile = "winners.json"

// Load reads the whole recipients file and decodes it.
func Load(path string) ([]types.Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput,
			fmt.Sprintf("couldn't read recipients file %s", path), err)
	}

	recipients, err := Parse(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded recipients", "file", path, "count", len(recipients))

	return recipients, nil
}

// Parse decodes a JSON array of {"wallet": ..., "amount": ...} objects.
// Unknown fields are rejected so that typos like "ammount" don't silently
// turn into zero transfers.
func Parse(data []byte) ([]types.Recipient, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var recipients []types.Recipient
	if err := decoder.Decode(&recipients); err != nil {
		return nil, errors.Wrap(errors.InvalidInput,
			"recipients unmarshalling error", err)
	}

	if len(recipients) == 0 {
		return nil, errors.New(errors.InvalidInput, "recipients list is empty")
	}

	for i, r := range recipients {
		if r.Wallet == "" {
			return nil, errors.New(errors.InvalidInput,
				fmt.Sprintf("recipient #%d: wallet is missing", i))
		}
		if !r.Amount.IsSet() {
			return nil, errors.New(errors.InvalidInput,
				fmt.Sprintf("recipient #%d: amount is missing", i))
		}
	}

	return recipients, nil
}
