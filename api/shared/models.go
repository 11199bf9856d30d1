/* models.go
 * This file contains the structs and enumerations that are shared between sub packages
 * Authors: Zachary Bower
 */

package shared

import "fmt"

type User struct {
	UserID   string
	Username string
}

// Outcome is the closed set of results the participants of a match can claim.
// Any other input must be rejected by the transport layer before it reaches the engine.
type Outcome int

const (
	OutcomeAWins Outcome = iota
	OutcomeBWins
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAWins:
		return "a_wins"
	case OutcomeBWins:
		return "b_wins"
	case OutcomeDraw:
		return "draw"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// RankingKind selects one of the two independent ranking counters
type RankingKind string

const (
	RankingCasual     RankingKind = "casual"
	RankingTournament RankingKind = "tournament"
)

func (k RankingKind) Valid() bool {
	return k == RankingCasual || k == RankingTournament
}
