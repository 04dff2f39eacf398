package ledger

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tripsplit/internal/id"
	"github.com/cleared-dev/tripsplit/internal/model"
)

// Ledger owns the participants and expenses of one trip. It is not safe for
// concurrent use; callers serialize mutations.
type Ledger struct {
	participants []model.Participant
	expenses     []model.Expense

	participantIDs id.Sequence
	expenseIDs     id.Sequence
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// FromState builds a ledger from previously persisted records. Records are
// taken as-is: dangling references are kept and surface later as expenses
// the balance calculator refuses to apply. Referenced participant ids are
// never handed out again, so a newcomer cannot adopt a stale expense.
func FromState(participants []model.Participant, expenses []model.Expense) *Ledger {
	l := &Ledger{
		participants: slices.Clone(participants),
		expenses:     make([]model.Expense, 0, len(expenses)),
	}
	for _, p := range participants {
		l.participantIDs.Observe(p.ID)
	}
	for _, e := range expenses {
		l.expenses = append(l.expenses, e.Clone())
		l.expenseIDs.Observe(e.ID)
		l.participantIDs.Observe(e.PaidByID)
		for _, pid := range e.SharedByIDs {
			l.participantIDs.Observe(pid)
		}
	}
	return l
}

// Participants returns a copy of all participants in insertion order.
func (l *Ledger) Participants() []model.Participant {
	return slices.Clone(l.participants)
}

// Expenses returns a copy of all expenses in insertion order.
func (l *Ledger) Expenses() []model.Expense {
	out := make([]model.Expense, len(l.expenses))
	for i, e := range l.expenses {
		out[i] = e.Clone()
	}
	return out
}

// Participant returns the participant with the given id.
func (l *Ledger) Participant(participantID int) (model.Participant, bool) {
	i := slices.IndexFunc(l.participants, func(p model.Participant) bool { return p.ID == participantID })
	if i < 0 {
		return model.Participant{}, false
	}
	return l.participants[i], true
}

// Expense returns the expense with the given id.
func (l *Ledger) Expense(expenseID int) (model.Expense, bool) {
	i := slices.IndexFunc(l.expenses, func(e model.Expense) bool { return e.ID == expenseID })
	if i < 0 {
		return model.Expense{}, false
	}
	return l.expenses[i].Clone(), true
}

// Currencies returns the distinct currency codes used by expenses, in order
// of first use.
func (l *Ledger) Currencies() []string {
	var out []string
	for _, e := range l.expenses {
		if !slices.Contains(out, e.Currency) {
			out = append(out, e.Currency)
		}
	}
	return out
}

// AddParticipant adds a participant with a fresh id. Any name is accepted;
// rejecting empty names is left to the caller.
func (l *Ledger) AddParticipant(name string) model.Participant {
	p := model.Participant{ID: l.participantIDs.Next(), Name: name}
	l.participants = append(l.participants, p)
	return p
}

// RemoveParticipant deletes a participant and cascades into expenses: the
// participant is dropped from every sharer set, then expenses left with no
// sharers or paid by the participant are deleted. It returns the deleted
// expenses, or ErrUnknownParticipant.
func (l *Ledger) RemoveParticipant(participantID int) ([]model.Expense, error) {
	i := slices.IndexFunc(l.participants, func(p model.Participant) bool { return p.ID == participantID })
	if i < 0 {
		return nil, ErrUnknownParticipant
	}
	l.participants = slices.Delete(l.participants, i, i+1)

	var deleted []model.Expense
	kept := l.expenses[:0]
	for _, e := range l.expenses {
		e.SharedByIDs = slices.DeleteFunc(e.SharedByIDs, func(sid int) bool { return sid == participantID })
		if len(e.SharedByIDs) == 0 || e.PaidByID == participantID {
			deleted = append(deleted, e)
			continue
		}
		kept = append(kept, e)
	}
	clear(l.expenses[len(kept):])
	l.expenses = kept
	return deleted, nil
}

// AddExpenseParams holds the input for AddExpense.
type AddExpenseParams struct {
	Description string
	Amount      decimal.Decimal
	Currency    string
	PaidByID    int
	SharedByIDs []int
}

// AddExpense validates params and appends a new expense with a fresh id.
// Duplicate sharer ids are collapsed and the currency code is upper-cased.
// Rejections match ErrInvalidExpense.
func (l *Ledger) AddExpense(params AddExpenseParams) (model.Expense, error) {
	params.Currency = strings.ToUpper(strings.TrimSpace(params.Currency))
	params.SharedByIDs = dedupe(params.SharedByIDs)

	if verrs := validateExpense(params, l.hasParticipant); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return model.Expense{}, errors.Join(errs...)
	}

	e := model.Expense{
		ID:          l.expenseIDs.Next(),
		Description: params.Description,
		Amount:      params.Amount,
		Currency:    params.Currency,
		PaidByID:    params.PaidByID,
		SharedByIDs: params.SharedByIDs,
	}
	l.expenses = append(l.expenses, e)
	return e.Clone(), nil
}

// RemoveExpense deletes an expense. It reports whether anything was removed.
func (l *Ledger) RemoveExpense(expenseID int) bool {
	n := len(l.expenses)
	l.expenses = slices.DeleteFunc(l.expenses, func(e model.Expense) bool { return e.ID == expenseID })
	return len(l.expenses) != n
}

func (l *Ledger) hasParticipant(participantID int) bool {
	_, ok := l.Participant(participantID)
	return ok
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
