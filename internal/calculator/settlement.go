package calculator

import "github.com/shopspring/decimal"

// Settle works out who pays whom when paidBy advanced the whole total.
//
// Each person's balance is what they paid minus their rounded share; positive
// balances are owed money, negative ones owe it. Debtors are walked in input
// order and each one pays creditors, also in input order, until their debt is
// gone. The result depends on input order and is not guaranteed to use the
// fewest transfers.
//
// Without a payer there is nothing to settle and nil is returned.
func Settle(shares []PersonShare, paidBy string, total decimal.Decimal) []Settlement {
	if paidBy == "" {
		return nil
	}

	// Remaining balance per share index, scoped to this call.
	balances := make([]decimal.Decimal, len(shares))
	for i, s := range shares {
		paid := decimal.Zero
		if s.PersonID == paidBy {
			paid = total
		}
		balances[i] = paid.Sub(s.RoundedAmount)
	}

	var settlements []Settlement
	for i, debtor := range shares {
		debt := balances[i].Neg()
		if !debt.IsPositive() {
			continue
		}
		for j, creditor := range shares {
			if !debt.IsPositive() {
				break
			}
			credit := balances[j]
			if !credit.IsPositive() {
				continue
			}
			amount := decimal.Min(debt, credit)
			balances[j] = credit.Sub(amount)
			debt = debt.Sub(amount)
			settlements = append(settlements, Settlement{
				From:   debtor.PersonID,
				To:     creditor.PersonID,
				Amount: amount,
			})
		}
		balances[i] = debt.Neg()
	}
	return settlements
}

// NetBalances replays settlements against the initial balances and returns
// what is left for each person, keyed by person ID. A fully settled result
// leaves every balance at zero.
func NetBalances(shares []PersonShare, settlements []Settlement, paidBy string, total decimal.Decimal) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(shares))
	for _, s := range shares {
		paid := decimal.Zero
		if s.PersonID == paidBy {
			paid = total
		}
		balances[s.PersonID] = paid.Sub(s.RoundedAmount)
	}
	for _, st := range settlements {
		balances[st.From] = balances[st.From].Add(st.Amount)
		balances[st.To] = balances[st.To].Sub(st.Amount)
	}
	return balances
}
