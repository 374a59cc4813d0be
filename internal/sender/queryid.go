package sender

import (
	"errors"
	"sync"
	"time"
)

// Highload v3 query ids are 23 bit numbers made of a 13 bit shift and a
// 10 bit bit number.
const (
	BitNumberSize = 10
	MaxBitNumber  = 1022
	MaxShift      = 8191
)

var ErrQueryIDsExhausted = errors.New("overload: cannot generate more query_ids")

type HighloadQueryID struct {
	shift     uint64 // [0 .. 8191]
	bitnumber uint64 // [0 .. 1022]
}

func NewHighloadQueryID() *HighloadQueryID {
	return &HighloadQueryID{}
}

func (h *HighloadQueryID) GetNext() (*HighloadQueryID, error) {
	newBitnumber := h.bitnumber + 1
	newShift := h.shift

	if newShift == MaxShift && newBitnumber > MaxBitNumber-1 {
		return nil, ErrQueryIDsExhausted
	}

	if newBitnumber > MaxBitNumber {
		newBitnumber = 0
		newShift++
		if newShift > MaxShift {
			return nil, ErrQueryIDsExhausted
		}
	}

	return &HighloadQueryID{
		shift:     newShift,
		bitnumber: newBitnumber,
	}, nil
}

func (h *HighloadQueryID) HasNext() bool {
	return !(h.bitnumber >= MaxBitNumber-1 && h.shift == MaxShift)
}

func (h *HighloadQueryID) GetShift() uint64 {
	return h.shift
}

func (h *HighloadQueryID) GetBitNumber() uint64 {
	return h.bitnumber
}

func (h *HighloadQueryID) GetQueryID() uint64 {
	return (h.shift << BitNumberSize) + h.bitnumber
}

func FromQueryID(queryID uint64) (*HighloadQueryID, error) {
	shift := queryID >> BitNumberSize
	bitnumber := queryID & (1<<BitNumberSize - 1)
	if bitnumber > MaxBitNumber || shift > MaxShift {
		return nil, errors.New("invalid queryID format")
	}
	return &HighloadQueryID{
		shift:     shift,
		bitnumber: bitnumber,
	}, nil
}

// FromSeqno maps a sequence number onto the query id space, wrapping around
// once the space is used up.
func FromSeqno(seqno uint64) *HighloadQueryID {
	seqno %= (MaxShift + 1) * MaxBitNumber
	return &HighloadQueryID{
		shift:     seqno / MaxBitNumber,
		bitnumber: seqno % MaxBitNumber,
	}
}

// SeedQueryID picks a starting query id from the clock when no previous
// one is known. Nanosecond resolution keeps runs started close together
// apart.
func SeedQueryID(now time.Time) *HighloadQueryID {
	return FromSeqno(uint64(now.UnixNano()))
}

func FromShiftAndBitNumber(shift, bitnumber uint64) (*HighloadQueryID, error) {
	if shift > MaxShift {
		return nil, errors.New("invalid shift: must be in [0, 8191]")
	}
	if bitnumber > MaxBitNumber {
		return nil, errors.New("invalid bitnumber: must be in [0, 1022]")
	}
	return &HighloadQueryID{
		shift:     shift,
		bitnumber: bitnumber,
	}, nil
}

// QueryIDGenerator hands out consecutive query ids to the highload wallet
// message builder.
type QueryIDGenerator struct {
	mu      sync.Mutex
	current *HighloadQueryID
	last    *HighloadQueryID
}

func NewQueryIDGenerator(start *HighloadQueryID) *QueryIDGenerator {
	return &QueryIDGenerator{current: start}
}

// Next returns the current query id and advances the generator.
func (g *QueryIDGenerator) Next() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.current.HasNext() {
		return 0, ErrQueryIDsExhausted
	}

	next, err := g.current.GetNext()
	if err != nil {
		return 0, err
	}

	g.last = g.current
	g.current = next

	return g.last.GetQueryID(), nil
}

// Last returns the most recently issued query id.
func (g *QueryIDGenerator) Last() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last == nil {
		return 0, false
	}
	return g.last.GetQueryID(), true
}
