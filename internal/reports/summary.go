package reports

import (
	"time"

	"backoffice/internal/core"
	"backoffice/internal/timebucket"
)

// AccountsSummary is the dashboard payload. JSON names are consumed by
// existing clients and must not change.
type AccountsSummary struct {
	ExpenseCount       int        `json:"expenseCount"`
	IncomeCount        int        `json:"incomeCount"`
	TotalIncomeAmount  core.Money `json:"totalIncomeAmount"`
	TotalExpenseAmount core.Money `json:"totalExpenseAmount"`
	TotalBalance       core.Money `json:"totalBalance"`
	BankBalance        core.Money `json:"bankBalance"`
	CashBalance        core.Money `json:"cashBalance"`
	TasdeedBalance     core.Money `json:"tasdeedBalance"`

	BankIncome     core.Money `json:"BankIncome"`
	CashIncome     core.Money `json:"CashIncome"`
	TasdeedIncome  core.Money `json:"TasdeedIncome"`
	SwiperIncome   core.Money `json:"SwiperIncome"`
	BankExpense    core.Money `json:"BankExpense"`
	CashExpense    core.Money `json:"CashExpense"`
	TasdeedExpense core.Money `json:"TasdeedExpense"`
	SwiperExpense  core.Money `json:"SwiperExpense"`

	DaysOfWeekInitials     []string     `json:"daysOfWeekInitials"`
	ExpensesLast7DaysTotal []core.Money `json:"expensesLast7DaysTotal"`
	ProfitLast7DaysTotal   []core.Money `json:"profitLast7DaysTotal"`
	Last12Months           []string     `json:"last12Months"`
	MonthNames             []string     `json:"monthNames"`
	Last12MonthsExpenses   []core.Money `json:"last12MonthsExpenses"`
	Last12MonthsProfit     []core.Money `json:"last12MonthsProfit"`

	Profit           core.Money `json:"profit"`
	ZaadExpenseTotal core.Money `json:"zaadExpenseTotal"`
	NetProfit        core.Money `json:"netProfit"`
}

// BuildAccounts combines the window balances with the 7-day and 12-month
// series computed from the rolling snapshot. Both windows use the same now.
func BuildAccounts(window, rolling []core.LedgerRecord, now time.Time, loc *time.Location, houseLabel string) AccountsSummary {
	b := Aggregate(window, houseLabel)
	days := timebucket.LastSevenDays(now, loc)
	months := timebucket.LastTwelveMonths(now, loc)
	week := Rolling(rolling, days)
	year := Rolling(rolling, months)

	monthNames := make([]string, len(months))
	for i, m := range months {
		monthNames[i] = m.Start.Month().String()
	}

	return AccountsSummary{
		ExpenseCount:       b.ExpenseCount,
		IncomeCount:        b.IncomeCount,
		TotalIncomeAmount:  b.TotalIncome(),
		TotalExpenseAmount: b.TotalExpense(),
		TotalBalance:       b.TotalBalance(),
		BankBalance:        b.BankBalance(),
		CashBalance:        b.Cash.Balance(),
		TasdeedBalance:     b.Tasdeed.Balance(),

		BankIncome:     b.Bank.Income,
		CashIncome:     b.Cash.Income,
		TasdeedIncome:  b.Tasdeed.Income,
		SwiperIncome:   b.Swiper.Income,
		BankExpense:    b.Bank.Expense,
		CashExpense:    b.Cash.Expense,
		TasdeedExpense: b.Tasdeed.Expense,
		SwiperExpense:  b.Swiper.Expense,

		DaysOfWeekInitials:     week.Labels,
		ExpensesLast7DaysTotal: week.ExpenseTotals,
		ProfitLast7DaysTotal:   week.ProfitTotals,
		Last12Months:           year.Labels,
		MonthNames:             monthNames,
		Last12MonthsExpenses:   year.ExpenseTotals,
		Last12MonthsProfit:     year.ProfitTotals,

		Profit:           b.Profit,
		ZaadExpenseTotal: b.ZaadExpenseTotal,
		NetProfit:        b.NetProfit(),
	}
}

// RollingWindow returns the span that BuildAccounts needs from the rolling
// snapshot: the start of the 12-month window up to the end of today.
func RollingWindow(now time.Time, loc *time.Location) Window {
	from, _ := timebucket.Span(timebucket.LastTwelveMonths(now, loc))
	_, to := timebucket.Span(timebucket.LastSevenDays(now, loc))
	return Window{From: from, To: to}
}
