package payload

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"testing"

	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
)

func testAddress(seed string) *address.Address {
	hash := sha256.Sum256([]byte(seed))
	return address.NewAddress(0, 0, hash[:])
}

func testBuilder(t *testing.T) (*Builder, *address.Address, *address.Address) {
	t.Helper()

	contract := testAddress("jetton-wallet")
	sender := testAddress("sender")

	b, err := New(&Config{
		JettonWallet:    contract,
		ResponseAddress: sender,
		GasValue:        tlb.MustFromTON(DefaultGasValue),
		ForwardAmount:   tlb.FromNanoTONU(1),
		Comment:         DefaultComment,
	})
	require.NoError(t, err)

	return b, contract, sender
}

func TestNew_RequiresAddresses(t *testing.T) {
	_, err := New(&Config{ResponseAddress: testAddress("sender")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidConfiguration))

	_, err = New(&Config{JettonWallet: testAddress("jetton-wallet")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidConfiguration))
}

func TestBuild_TwoRecipientsScenario(t *testing.T) {
	b, contract, sender := testBuilder(t)

	first := testAddress("first")
	second := testAddress("second")

	batch, err := b.Build([]types.Recipient{
		{Wallet: first.String(), Amount: types.NewAmount(100)},
		{Wallet: second.String(), Amount: types.NewAmount(250)},
	})
	require.NoError(t, err)
	require.Len(t, batch.Messages, 2)
	assert.Equal(t, "350", batch.Total.String())

	expected := []struct {
		recipient *address.Address
		amount    int64
	}{
		{first, 100},
		{second, 250},
	}

	for i, msg := range batch.Messages {
		assert.Equal(t, i, msg.Index)
		assert.True(t, SameAddress(contract, msg.Destination),
			"message %d must go to the jetton wallet", i)
		assert.Equal(t, tlb.MustFromTON("0.06").Nano().String(), msg.Value.Nano().String())

		p, err := DecodeTransferBody(msg.Body)
		require.NoError(t, err)

		assert.Equal(t, uint64(0), p.QueryID)
		assert.Equal(t, big.NewInt(expected[i].amount).String(), p.Amount.String())
		assert.True(t, SameAddress(expected[i].recipient, p.Destination))
		assert.True(t, SameAddress(sender, p.ResponseDestination))
		assert.False(t, p.HasCustomPayload)
		assert.Equal(t, "1", p.ForwardAmount.String())
		assert.True(t, p.HasComment)
		assert.Equal(t, "airdrop", p.Comment)
	}
}

func TestBuild_PreservesOrderAndCount(t *testing.T) {
	b, contract, _ := testBuilder(t)

	var recipients []types.Recipient
	sum := new(big.Int)
	for i := 0; i < 57; i++ {
		amount := uint64(i*i + 1)
		recipients = append(recipients, types.Recipient{
			Wallet: testAddress(fmt.Sprintf("recipient-%d", i)).String(),
			Amount: types.NewAmount(amount),
		})
		sum.Add(sum, new(big.Int).SetUint64(amount))
	}

	batch, err := b.Build(recipients)
	require.NoError(t, err)
	require.Len(t, batch.Messages, len(recipients))
	assert.Equal(t, sum.String(), batch.Total.String())

	for i, msg := range batch.Messages {
		assert.Equal(t, i, msg.Index)
		assert.True(t, SameAddress(contract, msg.Destination))
		assert.Equal(t, recipients[i].Amount.String(), msg.Amount.String())
		assert.True(t, SameAddress(testAddress(fmt.Sprintf("recipient-%d", i)), msg.Recipient))
	}
}

func TestBuild_GasValueIndependentOfAmount(t *testing.T) {
	b, _, _ := testBuilder(t)

	huge, err := types.ParseAmount("1000000000000000000000000")
	require.NoError(t, err)

	batch, err := b.Build([]types.Recipient{
		{Wallet: testAddress("a").String(), Amount: types.NewAmount(1)},
		{Wallet: testAddress("b").String(), Amount: huge},
	})
	require.NoError(t, err)

	for _, msg := range batch.Messages {
		assert.Equal(t, "60000000", msg.Value.Nano().String())
	}
}

func TestBuild_MaxCoinAmount(t *testing.T) {
	b, _, _ := testBuilder(t)

	maxCoins := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 120), big.NewInt(1))
	amount, err := types.ParseAmount(maxCoins.String())
	require.NoError(t, err)

	batch, err := b.Build([]types.Recipient{
		{Wallet: testAddress("whale").String(), Amount: amount},
	})
	require.NoError(t, err)

	p, err := DecodeTransferBody(batch.Messages[0].Body)
	require.NoError(t, err)
	assert.Equal(t, maxCoins.String(), p.Amount.String())
}

func TestBuild_AmountTooBig(t *testing.T) {
	b, _, _ := testBuilder(t)

	tooBig, err := types.ParseAmount(new(big.Int).Lsh(big.NewInt(1), 120).String())
	require.NoError(t, err)

	batch, err := b.Build([]types.Recipient{
		{Wallet: testAddress("a").String(), Amount: types.NewAmount(5)},
		{Wallet: testAddress("b").String(), Amount: tooBig},
	})
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.True(t, errors.IsCode(err, errors.InvalidAmount))
}

func TestBuild_MalformedAddressAborts(t *testing.T) {
	b, _, _ := testBuilder(t)

	batch, err := b.Build([]types.Recipient{
		{Wallet: testAddress("a").String(), Amount: types.NewAmount(5)},
		{Wallet: "EQAAA-definitely-not-an-address", Amount: types.NewAmount(7)},
		{Wallet: testAddress("c").String(), Amount: types.NewAmount(9)},
	})
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.True(t, errors.IsCode(err, errors.InvalidAddress))
	assert.Contains(t, err.Error(), "recipient #1")
}

func TestBuild_RawAddress(t *testing.T) {
	b, _, _ := testBuilder(t)

	dst := testAddress("raw")
	raw := fmt.Sprintf("0:%x", dst.Data())

	batch, err := b.Build([]types.Recipient{
		{Wallet: raw, Amount: types.NewAmount(42)},
	})
	require.NoError(t, err)

	p, err := DecodeTransferBody(batch.Messages[0].Body)
	require.NoError(t, err)
	assert.True(t, SameAddress(dst, p.Destination))
}

func TestBuild_Empty(t *testing.T) {
	b, _, _ := testBuilder(t)

	batch, err := b.Build(nil)
	require.NoError(t, err)
	assert.Empty(t, batch.Messages)
	assert.Equal(t, "0", batch.Total.String())
}

func TestDecodeTransferBody_WrongOp(t *testing.T) {
	b, _, _ := testBuilder(t)

	body, err := b.BuildTransferBody(big.NewInt(1), testAddress("a"))
	require.NoError(t, err)

	s := body.BeginParse()
	_, err = s.LoadUInt(32)
	require.NoError(t, err)

	// the body without its op tag no longer starts with the transfer op
	rest, err := s.ToCell()
	require.NoError(t, err)

	_, err = DecodeTransferBody(rest)
	require.Error(t, err)
}
