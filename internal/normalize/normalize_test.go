package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"degiro-returns/internal/trade"
)

func row(idx int, regDate, regHour, valueDate, product, isin, desc, currRate, varCur, varAmt, cashCur, cashAmt, orderID string) trade.RawRow {
	return trade.RawRow{
		RowIndex:  idx,
		RegDate:   regDate,
		RegHour:   regHour,
		ValueDate: valueDate,
		Product:   product,
		ISIN:      isin,
		Desc:      desc,
		CurrRate:  currRate,
		VarCur:    varCur,
		Var:       varAmt,
		CashCur:   cashCur,
		Cash:      cashAmt,
		OrderID:   orderID,
	}
}

func TestNormalize_MergesOrderAndAttachesCommission(t *testing.T) {
	raws := []trade.RawRow{
		row(2, "01/03/2024", "10:00", "01/03/2024", "ACME CORP", "US0000000001", "Compra 5 @ 10,00 EUR", "", "EUR", "-50,00", "EUR", "-50,00", "ord-1"),
		row(3, "01/03/2024", "10:00", "01/03/2024", "ACME CORP", "US0000000001", "Compra 5 @ 10,50 EUR", "", "EUR", "-52,50", "EUR", "-52,50", "ord-1"),
		row(4, "01/03/2024", "10:01", "01/03/2024", "ACME CORP", "US0000000001", "Costes de transaccion DEGIRO", "", "EUR", "-2,00", "EUR", "-2,00", "ord-1"),
	}

	result, err := Normalize(zap.NewNop(), raws)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	tr := result.Trades[0]
	assert.Equal(t, 10.0, tr.Number)
	assert.True(t, tr.Var.Equal(decimal.RequireFromString("-102.50")))
	require.NotNil(t, tr.Commission)
	assert.True(t, tr.Commission.Equal(decimal.RequireFromString("-2.00")))
	assert.True(t, tr.CurrRate.Equal(decimal.RequireFromString("1")))
	assert.False(t, tr.Unintended)
}

func TestNormalize_OrphanRowMergesIntoMother(t *testing.T) {
	raws := []trade.RawRow{
		row(2, "01/03/2024", "10:00", "01/03/2024", "ACME CORP", "US0000000001", "Compra 10 @ 10,00 EUR", "", "EUR", "-100,00", "EUR", "-100,00", "ord-1"),
		row(3, "", "", "", "", "", " (continuacion)", "", "", "", "", "", ""),
	}

	result, err := Normalize(zap.NewNop(), raws)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Contains(t, result.Trades[0].Description, "continuacion")
}

func TestNormalize_UnintendedFillHasNoOrderID(t *testing.T) {
	raws := []trade.RawRow{
		row(2, "01/03/2024", "10:00", "01/03/2024", "STOCK SPLIT CO", "US0000000002", "ESCISION: Compra 20 @ 0,00 EUR", "", "EUR", "0,00", "EUR", "0,00", ""),
	}

	result, err := Normalize(zap.NewNop(), raws)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Unintended)
	assert.Nil(t, result.Trades[0].Commission)
}

func TestNormalize_EmptyDatasetIsAnError(t *testing.T) {
	_, err := Normalize(zap.NewNop(), nil)
	assert.ErrorIs(t, err, trade.ErrEmptyDataset)
}

