package payload

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// TransferPayload is the decoded form of a jetton transfer body.
type TransferPayload struct {
	QueryID             uint64
	Amount              *big.Int
	Destination         *address.Address
	ResponseDestination *address.Address
	HasCustomPayload    bool
	ForwardAmount       *big.Int
	// Comment is set when the forward payload is a text comment.
	Comment    string
	HasComment bool
}

// DecodeTransferBody parses a jetton transfer body. The forward payload may
// be stored inline or in a reference.
func DecodeTransferBody(body *cell.Cell) (*TransferPayload, error) {
	if body == nil {
		return nil, fmt.Errorf("nil body")
	}

	s := body.BeginParse()

	op, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("load op: %w", err)
	}
	if op != OpJettonTransfer {
		return nil, fmt.Errorf("unexpected op 0x%08x", op)
	}

	var p TransferPayload

	if p.QueryID, err = s.LoadUInt(64); err != nil {
		return nil, fmt.Errorf("load query id: %w", err)
	}
	if p.Amount, err = s.LoadBigCoins(); err != nil {
		return nil, fmt.Errorf("load amount: %w", err)
	}
	if p.Destination, err = s.LoadAddr(); err != nil {
		return nil, fmt.Errorf("load destination: %w", err)
	}
	if p.ResponseDestination, err = s.LoadAddr(); err != nil {
		return nil, fmt.Errorf("load response destination: %w", err)
	}
	if p.HasCustomPayload, err = s.LoadBoolBit(); err != nil {
		return nil, fmt.Errorf("load custom payload flag: %w", err)
	}
	if p.HasCustomPayload {
		if _, err = s.LoadRef(); err != nil {
			return nil, fmt.Errorf("load custom payload: %w", err)
		}
	}
	if p.ForwardAmount, err = s.LoadBigCoins(); err != nil {
		return nil, fmt.Errorf("load forward amount: %w", err)
	}

	inRef, err := s.LoadBoolBit()
	if err != nil {
		return nil, fmt.Errorf("load forward payload flag: %w", err)
	}

	forward := s
	if inRef {
		if forward, err = s.LoadRef(); err != nil {
			return nil, fmt.Errorf("load forward payload: %w", err)
		}
	}

	if forward.BitsLeft() < 32 {
		return &p, nil
	}

	tag, err := forward.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("load forward payload tag: %w", err)
	}
	if tag != CommentTag {
		return &p, nil
	}

	if p.Comment, err = forward.LoadStringSnake(); err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	p.HasComment = true

	return &p, nil
}
