// Package liability nets liability-flagged ledger records per counterparty.
//
// A positive net means the counterparty owes the house (a debit); a
// negative net means the house owes the counterparty (a credit). Credits
// keep their sign in every total and are only flipped for display.
package liability

import "backoffice/internal/core"

// Client identifies a netted counterparty.
type Client struct {
	Name string                `json:"name"`
	ID   string                `json:"id"`
	Type core.CounterpartyKind `json:"type"`
}

// Position is the net liability of one counterparty.
type Position struct {
	Client    Client     `json:"client"`
	NetAmount core.Money `json:"netAmount"`

	income  core.Money
	expense core.Money
}

// DisplayAmount is the figure shown to users: debits as is, credits negated.
func (p Position) DisplayAmount() core.Money {
	return p.NetAmount.Abs()
}

func (p Position) Income() core.Money  { return p.income }
func (p Position) Expense() core.Money { return p.expense }

// Summary is the liabilities payload. JSON names are consumed by existing
// clients and must not change.
type Summary struct {
	Clients []Position `json:"clients"`

	TotalToGiveCompanies core.Money `json:"totalToGiveCompanies"`
	TotalToGetCompanies  core.Money `json:"totalToGetCompanies"`
	TotalToGiveEmployees core.Money `json:"totalToGiveEmployees"`
	TotalToGetEmployees  core.Money `json:"totalToGetEmployees"`

	Over0BalanceCompanies  []Position `json:"over0balanceCompanies"`
	Under0BalanceCompanies []Position `json:"under0balanceCompanies"`
	Over0BalanceEmployees  []Position `json:"over0balanceEmployees"`
	Under0BalanceEmployees []Position `json:"under0balanceEmployees"`

	// Dropped counts liability records that had no company or employee
	// counterparty and were left out of grouping.
	Dropped int `json:"-"`
}

type clientKey struct {
	kind core.CounterpartyKind
	id   string
}

// Net groups liability records by company or employee counterparty and
// computes income minus expense for each. Records that are unpublished or
// not liabilities are ignored. Liability records without a company or
// employee counterparty are counted in Dropped and otherwise ignored.
// Positions keep first-seen order.
func Net(records []core.LedgerRecord) Summary {
	s := Summary{
		Clients:                []Position{},
		Over0BalanceCompanies:  []Position{},
		Under0BalanceCompanies: []Position{},
		Over0BalanceEmployees:  []Position{},
		Under0BalanceEmployees: []Position{},
	}
	index := make(map[clientKey]int)

	for _, r := range records {
		if !r.Published || !r.IsLiability() {
			continue
		}
		cp := r.Counterparty
		switch cp.Kind {
		case core.CounterpartyCompany, core.CounterpartyEmployee:
		default:
			s.Dropped++
			continue
		}
		if cp.ID == "" {
			s.Dropped++
			continue
		}

		key := clientKey{kind: cp.Kind, id: cp.ID}
		i, ok := index[key]
		if !ok {
			i = len(s.Clients)
			index[key] = i
			s.Clients = append(s.Clients, Position{Client: Client{Name: cp.Name, ID: cp.ID, Type: cp.Kind}})
		}
		p := &s.Clients[i]
		if p.Client.Name == "" {
			p.Client.Name = cp.Name
		}
		switch r.Type {
		case core.Income:
			p.income = p.income.Add(r.Amount)
		case core.Expense:
			p.expense = p.expense.Add(r.Amount)
		}
	}

	for i := range s.Clients {
		p := &s.Clients[i]
		p.NetAmount = p.income.Sub(p.expense)
		s.place(*p)
	}
	return s
}

func (s *Summary) place(p Position) {
	switch {
	case p.NetAmount.IsPositive():
		if p.Client.Type == core.CounterpartyCompany {
			s.Over0BalanceCompanies = append(s.Over0BalanceCompanies, p)
			s.TotalToGiveCompanies = s.TotalToGiveCompanies.Add(p.NetAmount)
		} else {
			s.Over0BalanceEmployees = append(s.Over0BalanceEmployees, p)
			s.TotalToGiveEmployees = s.TotalToGiveEmployees.Add(p.NetAmount)
		}
	case p.NetAmount.IsNegative():
		if p.Client.Type == core.CounterpartyCompany {
			s.Under0BalanceCompanies = append(s.Under0BalanceCompanies, p)
			s.TotalToGetCompanies = s.TotalToGetCompanies.Add(p.NetAmount)
		} else {
			s.Under0BalanceEmployees = append(s.Under0BalanceEmployees, p)
			s.TotalToGetEmployees = s.TotalToGetEmployees.Add(p.NetAmount)
		}
	}
}

// Total returns the sum of every counterparty's net amount.
func (s Summary) Total() core.Money {
	var total core.Money
	for _, p := range s.Clients {
		total = total.Add(p.NetAmount)
	}
	return total
}
