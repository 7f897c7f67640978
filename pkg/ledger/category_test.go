package ledger

import (
	"bytes"
	"testing"

	"github.com/ArionMiles/spendview/pkg/api"
)

func categoryFixture() []api.Transaction {
	return []api.Transaction{
		txn("01.09.2021 12:00:00", "*1", -100, -100, "Супермаркеты", "inside, early"),
		txn("24.08.2021 23:59:59", "*1", -100, -100, "Супермаркеты", "before start"),
		txn("25.08.2021 00:00:00", "*1", -100, -100, "Супермаркеты", "on start"),
		txn("25.11.2021 00:00:00", "*1", -100, -100, "Супермаркеты", "on end"),
		txn("25.11.2021 10:00:00", "*1", -100, -100, "Супермаркеты", "after end"),
		txn("10.10.2021 10:00:00", "*1", 300, 300, "Супермаркеты", "refund"),
		txn("10.10.2021 11:00:00", "*1", -50, -50, "супермаркеты", "wrong case"),
		txn("10.10.2021 12:00:00", "*1", -70, -70, "Аптеки", "other category"),
	}
}

func TestSpendingByCategory(t *testing.T) {
	got, err := SpendingByCategory(categoryFixture(), "Супермаркеты", date(2021, 11, 25, 0, 0, 0))
	if err != nil {
		t.Fatalf("SpendingByCategory: %v", err)
	}

	want := []string{"inside, early", "on start", "on end"}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Description != w {
			t.Errorf("row %d: got %q, want %q", i, got[i].Description, w)
		}
		if got[i].Category != "Супермаркеты" {
			t.Errorf("row %d: category %q", i, got[i].Category)
		}
	}
}

func TestSpendingByCategory_ClampedWindow(t *testing.T) {
	txns := []api.Transaction{
		txn("28.02.2021 00:00:00", "*1", -1, -1, "A", "last day of february"),
		txn("27.02.2021 23:59:59", "*1", -1, -1, "A", "too early"),
	}
	got, err := SpendingByCategory(txns, "A", date(2021, 5, 31, 0, 0, 0))
	if err != nil {
		t.Fatalf("SpendingByCategory: %v", err)
	}
	if len(got) != 1 || got[0].Description != "last day of february" {
		t.Errorf("got %+v, want only the February 28 record", got)
	}
}

func TestSpendingByCategory_Idempotent(t *testing.T) {
	end := date(2021, 11, 25, 0, 0, 0)
	first, err := SpendingByCategory(categoryFixture(), "Супермаркеты", end)
	if err != nil {
		t.Fatalf("SpendingByCategory: %v", err)
	}
	second, err := SpendingByCategory(categoryFixture(), "Супермаркеты", end)
	if err != nil {
		t.Fatalf("SpendingByCategory: %v", err)
	}

	a, err := api.MarshalIndent(first, "    ")
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	b, err := api.MarshalIndent(second, "    ")
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("outputs differ:\n%s\n%s", a, b)
	}
}

func TestSpendingByCategory_Empty(t *testing.T) {
	for name, txns := range map[string][]api.Transaction{
		"no input":   nil,
		"no matches": categoryFixture(),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := SpendingByCategory(txns, "Рестораны", date(2021, 11, 25, 0, 0, 0))
			if err != nil {
				t.Fatalf("SpendingByCategory: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("got %#v, want empty non-nil slice", got)
			}
			out, err := api.MarshalIndent(got, "    ")
			if err != nil {
				t.Fatalf("MarshalIndent: %v", err)
			}
			if string(out) != "[]" {
				t.Errorf("serialized: got %s, want []", out)
			}
		})
	}
}

func TestSpendingByCategory_BadRecordDate(t *testing.T) {
	txns := append(categoryFixture(), txn("not a date", "*1", -1, -1, "Супермаркеты", ""))
	if _, err := SpendingByCategory(txns, "Супермаркеты", date(2021, 11, 25, 0, 0, 0)); err == nil {
		t.Fatal("expected an error for an unparsable operation date")
	}
}
