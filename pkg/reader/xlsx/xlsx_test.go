package xlsx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/logging"
	"github.com/ArionMiles/spendview/pkg/reader/table"
)

// writeWorkbook saves rows to a fresh workbook and returns its path.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "operations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func header() []any {
	out := make([]any, len(table.Header))
	for i, h := range table.Header {
		out[i] = h
	}
	return out
}

func TestReader_Transactions(t *testing.T) {
	path := writeWorkbook(t, "Отчет по операциям", [][]any{
		header(),
		{"31.12.2021 16:44:00", "31.12.2021", "*7197", "OK", -160.89, "RUB", -160.89, "RUB", nil, "Супермаркеты", 5411, "Колхоз", 3, 0, 160.89},
		{"30.12.2021 17:50:30", "30.12.2021", "", "OK", 5046, "RUB", 5046, "RUB", 70, "Пополнения", nil, "Пополнение через Альфа-Банк", 0, 0, 5046},
	})

	r, err := New(Config{Path: path}, logging.Discard())
	require.NoError(t, err)

	txns, err := r.Transactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "31.12.2021 16:44:00", txns[0].OperationDate)
	assert.Equal(t, -160.89, txns[0].OperationAmount)
	assert.Equal(t, "*7197", txns[0].CardNumber)
	assert.Nil(t, txns[0].Cashback)
	require.NotNil(t, txns[0].MCC)
	assert.Equal(t, 5411.0, *txns[0].MCC)

	assert.Equal(t, 5046.0, txns[1].PaymentAmount)
	require.NotNil(t, txns[1].Cashback)
	assert.Equal(t, 70.0, *txns[1].Cashback)
}

func TestReader_DateSerials(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		header(),
		{time.Date(2021, 12, 31, 16, 44, 0, 0, time.UTC), time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), "*7197", "OK", -1, "RUB", -1, "RUB", nil, "Супермаркеты", nil, "Колхоз", 0, 0, 1},
	})

	r, err := New(Config{Path: path, Sheet: "Sheet1"}, logging.Discard())
	require.NoError(t, err)

	txns, err := r.Transactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "31.12.2021 16:44:00", txns[0].OperationDate)
	assert.Equal(t, "31.12.2021", txns[0].PaymentDate)
}

func TestReader_Errors(t *testing.T) {
	_, err := New(Config{}, logging.Discard())
	require.Error(t, err)

	r, err := New(Config{Path: filepath.Join(t.TempDir(), "missing.xlsx")}, logging.Discard())
	require.NoError(t, err)
	_, err = r.Transactions(context.Background())
	assert.ErrorIs(t, err, api.ErrSourceNotFound)

	path := writeWorkbook(t, "Sheet1", [][]any{{"Дата операции", "Описание"}})
	r, err = New(Config{Path: path}, logging.Discard())
	require.NoError(t, err)
	_, err = r.Transactions(context.Background())
	assert.ErrorIs(t, err, api.ErrMissingColumn)
}
