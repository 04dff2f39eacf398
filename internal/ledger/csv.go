package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tripsplit/internal/id"
	"github.com/cleared-dev/tripsplit/internal/model"
)

// ParticipantsHeader is the CSV header for participants.csv.
const ParticipantsHeader = "id,name"

// ExpensesHeader is the CSV header for expenses.csv.
const ExpensesHeader = "id,description,amount,currency,paid_by_id,shared_by_ids"

const (
	numParticipantFields = 2
	colParticipantID     = 0
	colParticipantName   = 1

	numExpenseFields = 6
	colExpenseID     = 0
	colDesc          = 1
	colAmount        = 2
	colCurrency      = 3
	colPaidBy        = 4
	colSharedBy      = 5
)

// ReadParticipants reads participants.csv.
func ReadParticipants(r io.Reader) ([]model.Participant, error) {
	records, err := readRecords(r, numParticipantFields)
	if err != nil {
		return nil, fmt.Errorf("reading participants CSV: %w", err)
	}

	var participants []model.Participant
	for i, rec := range records {
		p, err := UnmarshalParticipant(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

// WriteParticipants writes participants.csv (including header).
func WriteParticipants(w io.Writer, participants []model.Participant) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ParticipantsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, p := range participants {
		if err := cw.Write(MarshalParticipant(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalParticipant converts a Participant to a CSV row.
func MarshalParticipant(p model.Participant) []string {
	row := make([]string, numParticipantFields)
	row[colParticipantID] = strconv.Itoa(p.ID)
	row[colParticipantName] = p.Name
	return row
}

// UnmarshalParticipant converts a CSV row to a Participant.
func UnmarshalParticipant(record []string) (model.Participant, error) {
	if len(record) != numParticipantFields {
		return model.Participant{}, fmt.Errorf("expected %d fields, got %d", numParticipantFields, len(record))
	}
	pid, err := strconv.Atoi(record[colParticipantID])
	if err != nil {
		return model.Participant{}, fmt.Errorf("parsing id %q: %w", record[colParticipantID], err)
	}
	return model.Participant{ID: pid, Name: record[colParticipantName]}, nil
}

// ReadExpenses reads expenses.csv. References are not checked here.
func ReadExpenses(r io.Reader) ([]model.Expense, error) {
	records, err := readRecords(r, numExpenseFields)
	if err != nil {
		return nil, fmt.Errorf("reading expenses CSV: %w", err)
	}

	var expenses []model.Expense
	for i, rec := range records {
		e, err := UnmarshalExpense(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// WriteExpenses writes expenses.csv (including header).
func WriteExpenses(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ExpensesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range expenses {
		if err := cw.Write(MarshalExpense(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalExpense converts an Expense to a CSV row. Amounts keep every digit.
func MarshalExpense(e model.Expense) []string {
	row := make([]string, numExpenseFields)
	row[colExpenseID] = strconv.Itoa(e.ID)
	row[colDesc] = e.Description
	row[colAmount] = e.Amount.String()
	row[colCurrency] = e.Currency
	row[colPaidBy] = strconv.Itoa(e.PaidByID)
	row[colSharedBy] = id.FormatList(e.SharedByIDs)
	return row
}

// UnmarshalExpense converts a CSV row to an Expense.
func UnmarshalExpense(record []string) (model.Expense, error) {
	if len(record) != numExpenseFields {
		return model.Expense{}, fmt.Errorf("expected %d fields, got %d", numExpenseFields, len(record))
	}

	eid, err := strconv.Atoi(record[colExpenseID])
	if err != nil {
		return model.Expense{}, fmt.Errorf("parsing id %q: %w", record[colExpenseID], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Expense{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	paidBy, err := strconv.Atoi(record[colPaidBy])
	if err != nil {
		return model.Expense{}, fmt.Errorf("parsing paid_by_id %q: %w", record[colPaidBy], err)
	}

	sharedBy, err := id.ParseList(record[colSharedBy])
	if err != nil {
		return model.Expense{}, fmt.Errorf("parsing shared_by_ids: %w", err)
	}

	return model.Expense{
		ID:          eid,
		Description: record[colDesc],
		Amount:      amount,
		Currency:    record[colCurrency],
		PaidByID:    paidBy,
		SharedByIDs: sharedBy,
	}, nil
}

// readRecords reads all rows and drops the header.
func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
