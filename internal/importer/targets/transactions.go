package targets

import "github.com/belisarialeskovac-maker/opsdash/internal/importer"

func init() {
	registerDeposits()
	registerWithdrawals()
}

// PaymentMethods lists the accepted payment column values.
var PaymentMethods = []string{"Cash", "Bank Transfer", "Cheque"}

func registerDeposits() {
	importer.Register(importer.Target{
		Key:       "deposits",
		Label:     "Deposits",
		Table:     "deposits",
		KeyFields: []string{"shopid", "date", "amount", "payment"},
		Columns:   transactionColumns("deposit_date"),
	})
}

func registerWithdrawals() {
	importer.Register(importer.Target{
		Key:       "withdrawals",
		Label:     "Withdrawals",
		Table:     "withdrawals",
		KeyFields: []string{"shopid", "date", "amount", "payment"},
		Columns:   transactionColumns("withdrawal_date"),
	})
}

// transactionColumns builds the shared deposit/withdrawal column set.
// The two targets differ only in the table and date column they land in.
func transactionColumns(dateColumn string) []importer.FieldSpec {
	return []importer.FieldSpec{
		{Name: "shopid", DBColumn: "shop_id", Type: importer.FieldText, Required: true, Reference: importer.RefShop},
		{Name: "agent", Type: importer.FieldText, Required: true, Reference: importer.RefAgent},
		{Name: "date", DBColumn: dateColumn, Type: importer.FieldDate, Required: true},
		{Name: "amount", Type: importer.FieldNumeric, Required: true, Positive: true},
		{Name: "payment", Type: importer.FieldEnum, Required: true, EnumValues: PaymentMethods},
	}
}
