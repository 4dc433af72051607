package transaction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, name := range []string{"deposit", "withdrawal", "dispute", "resolve", "chargeback"} {
		kind, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, Kind(name), kind)
	}

	_, err := ParseKind("transfer")
	require.Error(t, err)
}

func TestKindIsDisputable(t *testing.T) {
	assert.True(t, KindDeposit.IsDisputable())
	assert.True(t, KindWithdrawal.IsDisputable())
	assert.False(t, KindDispute.IsDisputable())
	assert.False(t, KindResolve.IsDisputable())
	assert.False(t, KindChargeback.IsDisputable())
}

func TestValidate(t *testing.T) {
	one := decimal.NewFromInt(1)

	require.NoError(t, Deposit(1, 1, one).Validate())
	require.NoError(t, Withdrawal(1, 2, one).Validate())
	require.NoError(t, Dispute(1, 1).Validate())
	require.NoError(t, Resolve(1, 1).Validate())
	require.NoError(t, Chargeback(1, 1).Validate())

	missing := Transaction{Kind: KindDeposit, Client: 1, ID: 1}
	assert.EqualError(t, missing.Validate(), "deposit transactions must contain an amount")

	negative := Withdrawal(1, 1, decimal.NewFromInt(-2))
	assert.EqualError(t, negative.Validate(), "withdrawal transactions must contain a positive amount")

	abundant := Dispute(1, 1)
	abundant.Amount = decimal.NewNullDecimal(one)
	assert.EqualError(t, abundant.Validate(), "dispute transactions cannot contain an amount")
}

func TestSigned(t *testing.T) {
	amount := decimal.RequireFromString("2.5")

	assert.True(t, Deposit(1, 1, amount).Signed().Equal(amount))
	assert.True(t, Withdrawal(1, 2, amount).Signed().Equal(amount.Neg()))
	assert.True(t, Dispute(1, 1).Signed().IsZero())
}
