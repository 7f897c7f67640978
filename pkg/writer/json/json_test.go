package json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendview/pkg/api"
	"github.com/ArionMiles/spendview/pkg/logging"
)

func TestWriter_WriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := New(Config{Dir: dir}, logging.Discard())

	report := []api.Transaction{{
		OperationDate:   "01.10.2021 12:00:00",
		OperationAmount: -100,
		PaymentAmount:   -100,
		Category:        "Супермаркеты",
		Description:     "Продукты & напитки",
	}}
	require.NoError(t, w.WriteReport(context.Background(), "", report))

	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"Категория": "Супермаркеты"`, "cyrillic must not be escaped")
	assert.Contains(t, text, "Продукты & напитки", "html characters must not be escaped")
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \""), "four space indent: %q", text[:min(len(text), 20)])

	var decoded []api.Transaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report, decoded)
}

func TestWriter_EmptyReportKeepsShape(t *testing.T) {
	w := New(Config{Dir: t.TempDir()}, logging.Discard())
	require.NoError(t, w.WriteReport(context.Background(), "empty.json", []api.Transaction{}))

	data, err := os.ReadFile(w.Path("empty.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWriter_Overwrites(t *testing.T) {
	w := New(Config{Dir: t.TempDir()}, logging.Discard())
	ctx := context.Background()

	require.NoError(t, w.WriteReport(ctx, "r.json", map[string]int{"a": 1, "b": 2}))
	require.NoError(t, w.WriteReport(ctx, "r.json", map[string]int{"c": 3}))

	data, err := os.ReadFile(w.Path("r.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"c": 3}`, string(data))
}

func TestWriter_Path(t *testing.T) {
	w := New(Config{Dir: "data"}, nil)
	assert.Equal(t, filepath.Join("data", DefaultFileName), w.Path(""))
	assert.Equal(t, filepath.Join("data", "x.json"), w.Path("x.json"))

	abs := filepath.Join(t.TempDir(), "abs.json")
	assert.Equal(t, abs, w.Path(abs))
}

func TestWriter_CanceledContext(t *testing.T) {
	w := New(Config{Dir: t.TempDir()}, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.WriteReport(ctx, "", []int{}), context.Canceled)
}
