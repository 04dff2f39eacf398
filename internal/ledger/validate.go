package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidExpense is matched (via errors.Is) by every expense rejected at
// the ledger boundary.
var ErrInvalidExpense = errors.New("invalid expense")

// ErrUnknownParticipant is returned when an operation names a participant
// that is not in the ledger.
var ErrUnknownParticipant = errors.New("unknown participant")

// ValidationError describes a single reason an expense was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid expense: %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return ErrInvalidExpense }

// validateExpense checks params against the live participant set. It reports
// every violation, not just the first.
func validateExpense(params AddExpenseParams, live func(int) bool) []ValidationError {
	var errs []ValidationError

	if !params.Amount.IsPositive() {
		errs = append(errs, ValidationError{Field: "amount", Reason: fmt.Sprintf("must be positive, got %s", params.Amount)})
	}
	if params.Currency == "" {
		errs = append(errs, ValidationError{Field: "currency", Reason: "is required"})
	}
	if !live(params.PaidByID) {
		errs = append(errs, ValidationError{Field: "paid_by_id", Reason: fmt.Sprintf("participant %d does not exist", params.PaidByID)})
	}
	if len(params.SharedByIDs) == 0 {
		errs = append(errs, ValidationError{Field: "shared_by_ids", Reason: "at least one sharer is required"})
	}
	for _, sid := range params.SharedByIDs {
		if !live(sid) {
			errs = append(errs, ValidationError{Field: "shared_by_ids", Reason: fmt.Sprintf("participant %d does not exist", sid)})
		}
	}
	return errs
}
