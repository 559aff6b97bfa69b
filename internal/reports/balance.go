// Package reports folds ledger record snapshots into account balances,
// profit figures and rolling time series.
package reports

import "backoffice/internal/core"

// DefaultHouseLabel is the self label that marks the house's own spending.
const DefaultHouseLabel = "zaad"

// MethodTotals is the income and expense of one settlement channel.
type MethodTotals struct {
	Income  core.Money
	Expense core.Money
}

// Balance returns income minus expense for the channel.
func (t MethodTotals) Balance() core.Money {
	return t.Income.Sub(t.Expense)
}

// Balances is the result of one pass over a record snapshot.
type Balances struct {
	Bank    MethodTotals
	Cash    MethodTotals
	Tasdeed MethodTotals
	Swiper  MethodTotals

	IncomeCount  int
	ExpenseCount int

	Profit           core.Money
	ZaadExpenseTotal core.Money
}

// TotalIncome sums income across the four settlement channels.
func (b Balances) TotalIncome() core.Money {
	return b.Bank.Income.Add(b.Cash.Income).Add(b.Tasdeed.Income).Add(b.Swiper.Income)
}

// TotalExpense sums expense across the four settlement channels.
func (b Balances) TotalExpense() core.Money {
	return b.Bank.Expense.Add(b.Cash.Expense).Add(b.Tasdeed.Expense).Add(b.Swiper.Expense)
}

func (b Balances) TotalBalance() core.Money {
	return b.TotalIncome().Sub(b.TotalExpense())
}

// BankBalance rolls swiper settlement into the bank figure.
func (b Balances) BankBalance() core.Money {
	return b.Bank.Balance().Add(b.Swiper.Balance())
}

func (b Balances) NetProfit() core.Money {
	return b.Profit.Sub(b.ZaadExpenseTotal)
}

// Aggregate folds records into Balances in a single pass. Unpublished
// records are skipped. houseLabel selects the self entries that count as
// the house's own expense; an empty label uses DefaultHouseLabel.
func Aggregate(records []core.LedgerRecord, houseLabel string) Balances {
	if houseLabel == "" {
		houseLabel = DefaultHouseLabel
	}
	var b Balances
	for _, r := range records {
		if !r.Published {
			continue
		}
		switch r.Type {
		case core.Income:
			b.IncomeCount++
			if t := b.channel(r.Method); t != nil {
				t.Income = t.Income.Add(r.Amount)
			}
		case core.Expense:
			b.ExpenseCount++
			if t := b.channel(r.Method); t != nil {
				t.Expense = t.Expense.Add(r.Amount)
			}
			if r.ServiceFee.IsPositive() {
				b.Profit = b.Profit.Add(r.ServiceFee)
			}
			if r.Counterparty.IsSelf(houseLabel) {
				b.ZaadExpenseTotal = b.ZaadExpenseTotal.Add(r.Amount)
			}
		}
	}
	return b
}

// channel returns the accumulator for a settlement method, or nil for
// methods that carry no per-channel balance.
func (b *Balances) channel(m core.Method) *MethodTotals {
	switch m {
	case core.MethodBank:
		return &b.Bank
	case core.MethodCash:
		return &b.Cash
	case core.MethodTasdeed:
		return &b.Tasdeed
	case core.MethodSwiper:
		return &b.Swiper
	case core.MethodServiceFee, core.MethodLiability:
		return nil
	}
	return nil
}
