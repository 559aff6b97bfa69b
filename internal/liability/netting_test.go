package liability

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core"
)

func liab(typ core.RecordType, kind core.CounterpartyKind, id string, cents int64) core.LedgerRecord {
	return core.LedgerRecord{
		Type:         typ,
		Method:       core.MethodLiability,
		Amount:       core.Cents(cents),
		Counterparty: core.Counterparty{Kind: kind, ID: id, Name: "name-" + id},
		Published:    true,
	}
}

func TestNetCreditCounterparty(t *testing.T) {
	s := Net([]core.LedgerRecord{
		liab(core.Income, core.CounterpartyCompany, "x", 50000),
		liab(core.Expense, core.CounterpartyCompany, "x", 120000),
	})

	require.Len(t, s.Clients, 1)
	p := s.Clients[0]
	assert.Equal(t, core.Cents(-70000), p.NetAmount)
	assert.Equal(t, core.Cents(70000), p.DisplayAmount())
	require.Len(t, s.Under0BalanceCompanies, 1)
	assert.Empty(t, s.Over0BalanceCompanies)
	assert.Equal(t, core.Cents(-70000), s.TotalToGetCompanies)
	assert.True(t, s.TotalToGiveCompanies.IsZero())
}

func TestNetPartitionsByClass(t *testing.T) {
	statusFlagged := liab(core.Income, core.CounterpartyEmployee, "e2", 300)
	statusFlagged.Method = core.MethodCash
	statusFlagged.Status = core.StatusLiability

	s := Net([]core.LedgerRecord{
		liab(core.Income, core.CounterpartyCompany, "c1", 1000),
		liab(core.Expense, core.CounterpartyCompany, "c2", 400),
		liab(core.Income, core.CounterpartyEmployee, "e1", 200),
		liab(core.Expense, core.CounterpartyEmployee, "e1", 500),
		statusFlagged,
		liab(core.Income, core.CounterpartyCompany, "c3", 100),
		liab(core.Expense, core.CounterpartyCompany, "c3", 100),
	})

	require.Len(t, s.Clients, 5)
	assert.Equal(t, []string{"c1", "c2", "e1", "e2", "c3"}, ids(s.Clients))
	assert.Equal(t, []string{"c1"}, ids(s.Over0BalanceCompanies))
	assert.Equal(t, []string{"c2"}, ids(s.Under0BalanceCompanies))
	assert.Equal(t, []string{"e2"}, ids(s.Over0BalanceEmployees))
	assert.Equal(t, []string{"e1"}, ids(s.Under0BalanceEmployees))

	assert.Equal(t, core.Cents(1000), s.TotalToGiveCompanies)
	assert.Equal(t, core.Cents(-400), s.TotalToGetCompanies)
	assert.Equal(t, core.Cents(300), s.TotalToGiveEmployees)
	assert.Equal(t, core.Cents(-300), s.TotalToGetEmployees)
}

func TestNetDropsRecordsWithoutCompanyOrEmployee(t *testing.T) {
	self := liab(core.Income, core.CounterpartySelf, "", 100)
	self.Counterparty = core.Counterparty{Kind: core.CounterpartySelf, Label: "zaad"}
	s := Net([]core.LedgerRecord{
		liab(core.Income, core.CounterpartyIndividual, "i1", 100),
		self,
		liab(core.Income, core.CounterpartyNone, "", 100),
		liab(core.Income, core.CounterpartyCompany, "c1", 100),
	})
	assert.Equal(t, 3, s.Dropped)
	assert.Len(t, s.Clients, 1)
}

func TestNetIgnoresNonLiabilityAndUnpublished(t *testing.T) {
	plain := liab(core.Income, core.CounterpartyCompany, "c1", 100)
	plain.Method = core.MethodBank
	hidden := liab(core.Income, core.CounterpartyCompany, "c1", 100)
	hidden.Published = false

	s := Net([]core.LedgerRecord{plain, hidden})
	assert.Empty(t, s.Clients)
	assert.Zero(t, s.Dropped)
}

func TestNetTotalMatchesIncomeMinusExpense(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	kinds := []core.CounterpartyKind{core.CounterpartyCompany, core.CounterpartyEmployee}
	for round := 0; round < 100; round++ {
		var records []core.LedgerRecord
		var income, expense core.Money
		n := r.Intn(40)
		for i := 0; i < n; i++ {
			typ := core.Income
			if r.Intn(2) == 0 {
				typ = core.Expense
			}
			rec := liab(typ, kinds[r.Intn(2)], string(rune('a'+r.Intn(5))), r.Int63n(100000))
			records = append(records, rec)
			if typ == core.Income {
				income = income.Add(rec.Amount)
			} else {
				expense = expense.Add(rec.Amount)
			}
		}
		s := Net(records)
		assert.Equal(t, income.Sub(expense), s.Total())
		assert.Equal(t, s.TotalToGiveCompanies.Add(s.TotalToGetCompanies).Add(s.TotalToGiveEmployees).Add(s.TotalToGetEmployees), s.Total())
	}
}

func TestSummaryJSON(t *testing.T) {
	b, err := json.Marshal(Net([]core.LedgerRecord{liab(core.Income, core.CounterpartyEmployee, "e1", 250)}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	for _, name := range []string{
		"clients", "totalToGiveCompanies", "totalToGetCompanies", "totalToGiveEmployees", "totalToGetEmployees",
		"over0balanceCompanies", "under0balanceCompanies", "over0balanceEmployees", "under0balanceEmployees",
	} {
		assert.Contains(t, got, name)
	}
	assert.NotContains(t, got, "Dropped")

	clients := got["clients"].([]any)
	first := clients[0].(map[string]any)
	assert.Equal(t, map[string]any{"name": "name-e1", "id": "e1", "type": "employee"}, first["client"])
	assert.Equal(t, 2.5, first["netAmount"])
}

func ids(ps []Position) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Client.ID
	}
	return out
}
