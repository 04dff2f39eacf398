package model

// Participant is a member of the trip who can pay for or share expenses.
type Participant struct {
	ID   int
	Name string
}
