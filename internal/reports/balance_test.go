package reports

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/core"
)

func rec(typ core.RecordType, method core.Method, cents int64) core.LedgerRecord {
	return core.LedgerRecord{Type: typ, Method: method, Amount: core.Cents(cents), Published: true}
}

func TestAggregateScenario(t *testing.T) {
	expense := rec(core.Expense, core.MethodCash, 20000)
	expense.ServiceFee = core.Cents(5000)
	records := []core.LedgerRecord{
		rec(core.Income, core.MethodBank, 100000),
		expense,
	}

	b := Aggregate(records, "")

	assert.Equal(t, core.Cents(100000), b.Bank.Income)
	assert.Equal(t, core.Cents(20000), b.Cash.Expense)
	assert.Equal(t, core.Cents(5000), b.Profit)
	assert.Equal(t, core.Cents(-20000), b.Cash.Balance())
	assert.Equal(t, core.Cents(100000), b.BankBalance())
	assert.Equal(t, core.Cents(80000), b.TotalBalance())
	assert.Equal(t, 1, b.IncomeCount)
	assert.Equal(t, 1, b.ExpenseCount)
}

func TestAggregateSwiperRollsIntoBank(t *testing.T) {
	b := Aggregate([]core.LedgerRecord{
		rec(core.Income, core.MethodBank, 1000),
		rec(core.Expense, core.MethodBank, 300),
		rec(core.Income, core.MethodSwiper, 500),
		rec(core.Expense, core.MethodSwiper, 100),
		rec(core.Income, core.MethodTasdeed, 700),
	}, "")

	assert.Equal(t, core.Cents(1100), b.BankBalance())
	assert.Equal(t, core.Cents(700), b.Tasdeed.Balance())
	assert.True(t, b.Cash.Balance().IsZero())
}

func TestAggregateSkipsUnpublished(t *testing.T) {
	hidden := rec(core.Income, core.MethodBank, 999)
	hidden.Published = false
	b := Aggregate([]core.LedgerRecord{hidden, rec(core.Income, core.MethodCash, 10)}, "")

	assert.Equal(t, 1, b.IncomeCount)
	assert.True(t, b.Bank.Income.IsZero())
	assert.Equal(t, core.Cents(10), b.TotalIncome())
}

func TestAggregateNonSettlementMethods(t *testing.T) {
	fee := rec(core.Expense, core.MethodServiceFee, 400)
	fee.ServiceFee = core.Cents(400)
	b := Aggregate([]core.LedgerRecord{
		fee,
		rec(core.Income, core.MethodLiability, 900),
	}, "")

	assert.Equal(t, 1, b.ExpenseCount)
	assert.Equal(t, 1, b.IncomeCount)
	assert.True(t, b.TotalIncome().IsZero())
	assert.True(t, b.TotalExpense().IsZero())
	assert.Equal(t, core.Cents(400), b.Profit)
}

func TestAggregateHouseExpense(t *testing.T) {
	house := rec(core.Expense, core.MethodCash, 3000)
	house.Counterparty = core.Counterparty{Kind: core.CounterpartySelf, Label: "ZAAD"}
	other := rec(core.Expense, core.MethodCash, 1000)
	other.Counterparty = core.Counterparty{Kind: core.CounterpartySelf, Label: "owner"}
	withFee := rec(core.Expense, core.MethodBank, 8000)
	withFee.ServiceFee = core.Cents(2000)

	b := Aggregate([]core.LedgerRecord{house, other, withFee}, "zaad")

	assert.Equal(t, core.Cents(3000), b.ZaadExpenseTotal)
	assert.Equal(t, core.Cents(2000), b.Profit)
	assert.Equal(t, core.Cents(-1000), b.NetProfit())

	custom := Aggregate([]core.LedgerRecord{house, other}, "owner")
	assert.Equal(t, core.Cents(1000), custom.ZaadExpenseTotal)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Balances{}, Aggregate(nil, ""))
}

func randomRecords(r *rand.Rand, n int) []core.LedgerRecord {
	types := []core.RecordType{core.Income, core.Expense}
	out := make([]core.LedgerRecord, n)
	for i := range out {
		rec := core.LedgerRecord{
			Type:      types[r.Intn(2)],
			Method:    core.Methods[r.Intn(len(core.Methods))],
			Amount:    core.Cents(r.Int63n(1_000_000)),
			Published: r.Intn(10) > 0,
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.Int63n(int64(365 * 24 * time.Hour)))),
		}
		if r.Intn(3) == 0 {
			rec.ServiceFee = core.Cents(r.Int63n(10_000))
		}
		if r.Intn(4) == 0 {
			rec.Counterparty = core.Counterparty{Kind: core.CounterpartySelf, Label: "zaad"}
		}
		out[i] = rec
	}
	return out
}

func TestAggregateProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		records := randomRecords(r, r.Intn(60))
		b := Aggregate(records, "zaad")

		incomeSum := b.Bank.Income.Add(b.Cash.Income).Add(b.Tasdeed.Income).Add(b.Swiper.Income)
		expenseSum := b.Bank.Expense.Add(b.Cash.Expense).Add(b.Tasdeed.Expense).Add(b.Swiper.Expense)
		assert.Equal(t, incomeSum, b.TotalIncome())
		assert.Equal(t, expenseSum, b.TotalExpense())
		assert.Equal(t, b.TotalIncome().Sub(b.TotalExpense()), b.TotalBalance())
		assert.Equal(t, b.Profit.Sub(b.ZaadExpenseTotal), b.NetProfit())

		assert.Equal(t, b, Aggregate(records, "zaad"), "aggregation must be deterministic")
	}
}
