/* confirm.go
 * Contains the result confirmation engine. Each participant reports their claimed outcome
 * independently; a match only resolves once both claims are present and agree. Resolution is
 * commutative over report order and is the single place where scores are mutated.
 * Authors: Zachary Bower
 */

package engine

import "gamenight-bot/api/shared"

// ReportStatus describes what a call to ReportOutcome did
type ReportStatus int

const (
	// ReportAwaitingOpponent means the claim was stored and the other participant has not reported yet
	ReportAwaitingOpponent ReportStatus = iota
	// ReportDisagreement means both participants have reported conflicting outcomes; both must resubmit
	ReportDisagreement
	// ReportResolved means both claims agree and the match was finalized
	ReportResolved
)

// ReportResult is returned from ReportOutcome so the caller can persist and
// notify after the state mutation has committed.
type ReportResult struct {
	Status     ReportStatus
	Match      *Match
	Tournament bool
	Winner     string // winning player ID, empty on a draw
	Draw       bool
	// Transition is non-nil when finalizing this pairing completed the round
	// and the tournament advanced or finished.
	Transition *RoundTransition
}

// ReportOutcome records playerID's claimed outcome for the given open match.
// It fails with ErrUnknownMatch if the ID does not reference an open match and
// with ErrNotAParticipant if the player is not one of the two participants.
// A repeated call from the same player overwrites their previous claim, so two
// players that disagreed can converge by resubmitting.
func (s *State) ReportOutcome(matchID, playerID string, outcome shared.Outcome) (*ReportResult, error) {
	m, isTournament, err := s.findOpenMatch(matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasPlayer(playerID) {
		return nil, ErrNotAParticipant
	}

	m.Reports[playerID] = outcome

	other, reported := m.Reports[m.Opponent(playerID)]
	if !reported {
		return &ReportResult{Status: ReportAwaitingOpponent, Match: m, Tournament: isTournament}, nil
	}
	if other != outcome {
		// Not an error: a normal protocol state that only prompts re-reporting
		return &ReportResult{Status: ReportDisagreement, Match: m, Tournament: isTournament}, nil
	}
	return s.finalize(m, isTournament, outcome), nil
}

// finalize commits an agreed outcome. Casual matches leave the active set;
// tournament pairings update scores and opponent history, then the round
// completion check runs from this single mutation point.
func (s *State) finalize(m *Match, isTournament bool, outcome shared.Outcome) *ReportResult {
	m.Resolved = true
	m.Result = outcome
	delete(s.cancels, m.ID)

	res := &ReportResult{
		Status:     ReportResolved,
		Match:      m,
		Tournament: isTournament,
		Draw:       outcome == shared.OutcomeDraw,
	}
	res.Winner, _ = m.Winner()

	if !isTournament {
		delete(s.casual, m.ID)
		return res
	}

	t := s.tournament
	switch outcome {
	case shared.OutcomeAWins:
		t.Scores[m.PlayerA] += 1.0
	case shared.OutcomeBWins:
		t.Scores[m.PlayerB] += 1.0
	case shared.OutcomeDraw:
		t.Scores[m.PlayerA] += 0.5
		t.Scores[m.PlayerB] += 0.5
	}
	t.markPlayed(m.PlayerA, m.PlayerB)

	res.Transition = s.maybeAdvanceRound()
	return res
}
