package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Recipient is a single entry of the recipients file.
type Recipient struct {
	Wallet string `json:"wallet"`
	Amount Amount `json:"amount"`
}

// Amount is a non-negative integer amount of jetton units. It is decoded
// from either a JSON number or a decimal string so that values above 2^53
// survive the round trip through JSON.
type Amount struct {
	v *big.Int
}

func NewAmount(v uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(v)}
}

// ParseAmount accepts integer literals, including exponent and trailing zero
// fraction forms such as "1e9" or "100.0".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Amount{}, fmt.Errorf("malformed amount %q", s)
	}
	if !r.IsInt() {
		return Amount{}, fmt.Errorf("fractional amount %q", s)
	}
	if r.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %q", s)
	}

	return Amount{v: new(big.Int).Set(r.Num())}, nil
}

// BigInt returns a copy of the amount, zero if unset.
func (a Amount) BigInt() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) IsSet() bool {
	return a.v != nil
}

func (a Amount) String() string {
	return a.BigInt().String()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return fmt.Errorf("amount is null")
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}

	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// TransferMessage is an internal message to the sender's jetton wallet
// carrying a jetton transfer body for one recipient.
type TransferMessage struct {
	// Index of the recipient in the input list.
	Index int
	// Recipient is the end recipient, embedded into Body.
	Recipient *address.Address
	Amount    *big.Int
	// Destination is always the jetton wallet contract.
	Destination *address.Address
	// Value is the TON attached to pay for the jetton transfer.
	Value tlb.Coins
	Body  *cell.Cell
}
