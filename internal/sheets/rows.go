package sheets

import (
	"strconv"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/documents"
	"backoffice/internal/reports"
)

const stampLayout = "2006-01-02 15:04"

// AccountsRows lays out the accounts summary as label/value rows followed by
// the 7-day and 12-month series.
func AccountsRows(period string, s reports.AccountsSummary, generated time.Time) [][]string {
	rows := [][]string{
		{"Period", period},
		{"Generated", generated.Format(stampLayout)},
		{},
		{"Method", "Income", "Expense", "Balance"},
		{"Bank", s.BankIncome.String(), s.BankExpense.String(), s.BankBalance.String()},
		{"Cash", s.CashIncome.String(), s.CashExpense.String(), s.CashBalance.String()},
		{"Tasdeed", s.TasdeedIncome.String(), s.TasdeedExpense.String(), s.TasdeedBalance.String()},
		{"Swiper", s.SwiperIncome.String(), s.SwiperExpense.String(), ""},
		{"Total", s.TotalIncomeAmount.String(), s.TotalExpenseAmount.String(), s.TotalBalance.String()},
		{},
		{"Income records", strconv.Itoa(s.IncomeCount)},
		{"Expense records", strconv.Itoa(s.ExpenseCount)},
		{"Profit", s.Profit.String()},
		{"House expenses", s.ZaadExpenseTotal.String()},
		{"Net profit", s.NetProfit.String()},
		{},
	}
	rows = append(rows, seriesRows("Day", s.DaysOfWeekInitials, s.ExpensesLast7DaysTotal, s.ProfitLast7DaysTotal)...)
	rows = append(rows, []string{})
	rows = append(rows, seriesRows("Month", s.Last12Months, s.Last12MonthsExpenses, s.Last12MonthsProfit)...)
	return rows
}

func seriesRows(unit string, labels []string, expenses, profit []core.Money) [][]string {
	rows := [][]string{{unit, "Expenses", "Profit"}}
	for i, l := range labels {
		rows = append(rows, []string{l, moneyAt(expenses, i), moneyAt(profit, i)})
	}
	return rows
}

func moneyAt(m []core.Money, i int) string {
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i].String()
}

// QueueRows lays out the document queue, most urgent first, under a header.
func QueueRows(items []documents.QueueItem, generated time.Time) [][]string {
	rows := [][]string{
		{"Generated", generated.Format(stampLayout)},
		{"Entity", "Kind", "Document", "Expiry", "Days left", "Status"},
	}
	for _, it := range items {
		days := ""
		if it.DaysLeft != nil {
			days = strconv.Itoa(*it.DaysLeft)
		}
		rows = append(rows, []string{
			it.EntityName,
			string(it.Document.EntityKind),
			it.Document.Name,
			it.Document.ExpiryDate.String(),
			days,
			it.Label,
		})
	}
	return rows
}
