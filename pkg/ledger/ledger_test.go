package ledger

import (
	"github.com/ArionMiles/spendview/pkg/api"
)

// txn builds a transaction with the fields the engine reads.
func txn(opDate, card string, opAmount, payAmount float64, category, description string) api.Transaction {
	return api.Transaction{
		OperationDate:   opDate,
		CardNumber:      card,
		OperationAmount: opAmount,
		PaymentAmount:   payAmount,
		Category:        category,
		Description:     description,
	}
}

// fixture is a small December 2021 statement with two cards.
func fixture() []api.Transaction {
	return []api.Transaction{
		txn("31.12.2021 16:44:00", "*7197", -160.89, -160.89, "Супермаркеты", "Колхоз"),
		txn("31.12.2021 16:42:04", "*7197", -64.00, -64.00, "Супермаркеты", "Колхоз"),
		txn("30.12.2021 17:50:30", "", 5046.00, 5046.00, "Пополнения", "Пополнение через Альфа-Банк"),
		txn("30.12.2021 14:48:25", "*5091", -1411.40, -1411.40, "Ж/д билеты", "РЖД"),
		txn("29.12.2021 22:32:24", "*5091", -421.00, -421.00, "Переводы", "Константин Л."),
		txn("30.11.2021 09:00:00", "*7197", -999.99, -999.99, "Супермаркеты", "Магнит"),
	}
}
