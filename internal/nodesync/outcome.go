package nodesync

import "fmt"

// Outcome is the result code NodeSync stores for a validation attempt.
type Outcome int8

const (
	InSync            Outcome = 0
	Repaired          Outcome = 1
	PartiallyInSync   Outcome = 2
	PartiallyRepaired Outcome = 3
	Uncompleted       Outcome = 4
	Failed            Outcome = 5
)

var outcomeLabels = map[Outcome]string{
	InSync:            "fully in sync",
	Repaired:          "fully repaired",
	PartiallyInSync:   "partially in sync",
	PartiallyRepaired: "partially repaired",
	Uncompleted:       "validation uncompleted",
	Failed:            "failed",
}

// Outcomes lists the known outcomes in code order.
var Outcomes = []Outcome{InSync, Repaired, PartiallyInSync, PartiallyRepaired, Uncompleted, Failed}

// Valid reports whether o is one of the known outcome codes.
func (o Outcome) Valid() bool {
	_, ok := outcomeLabels[o]
	return ok
}

// String returns the bare description, or "invalid" for unknown codes.
func (o Outcome) String() string {
	if s, ok := outcomeLabels[o]; ok {
		return s
	}
	return "invalid"
}

// Label renders the code with its description, e.g. "0 (fully in sync)".
// Codes written by newer servers render as "invalid outcome code (N)".
func (o Outcome) Label() string {
	if s, ok := outcomeLabels[o]; ok {
		return fmt.Sprintf("%d (%s)", o, s)
	}
	return fmt.Sprintf("invalid outcome code (%d)", o)
}
