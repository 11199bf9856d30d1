/* snapshot.go
 * Contains the read-only view structs returned for display: the waiting queue, active casual
 * matches and the tournament standings. Ranking counters live in the store and are merged in
 * by the api facade.
 * Authors: Zachary Bower
 */

package engine

import (
	"sort"
	"time"
)

// MatchView is a display copy of an open match
type MatchView struct {
	ID        string    `json:"id"`
	PlayerA   string    `json:"player_a"`
	PlayerB   string    `json:"player_b,omitempty"`
	Round     int       `json:"round,omitempty"`
	Bye       bool      `json:"bye,omitempty"`
	Reported  []string  `json:"reported,omitempty"` // participants whose claim is in
	CreatedAt time.Time `json:"created_at"`
}

// StandingRow is one line of the tournament standings
type StandingRow struct {
	PlayerID string  `json:"player_id"`
	Score    float64 `json:"score"`
	HadBye   bool    `json:"had_bye"`
	Withdrawn bool   `json:"withdrawn,omitempty"`
}

// TournamentView is a display copy of the tournament state
type TournamentView struct {
	Phase        string        `json:"phase"`
	Players      []string      `json:"players"` // signup order
	Round        int           `json:"round"`
	RoundsTarget int           `json:"rounds_target"`
	Standings    []StandingRow `json:"standings"`
	OpenPairings []MatchView   `json:"open_pairings,omitempty"`
	Champion     string        `json:"champion,omitempty"`
}

// Snapshot is the full display state of the engine
type Snapshot struct {
	Queue         []string        `json:"queue"`
	CasualMatches []MatchView     `json:"casual_matches"`
	Tournament    *TournamentView `json:"tournament,omitempty"`
}

// Snapshot builds a deterministic, read-only copy of the current state
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{Queue: s.QueueSnapshot()}

	var casual []*Match
	for _, m := range s.casual {
		casual = append(casual, m)
	}
	sortMatches(casual)
	for _, m := range casual {
		snap.CasualMatches = append(snap.CasualMatches, matchView(m))
	}

	if t := s.tournament; t != nil {
		view := &TournamentView{
			Phase:        t.Phase.String(),
			Players:      append([]string(nil), t.Players...),
			Round:        t.Round,
			RoundsTarget: t.RoundsTarget,
			Champion:     t.Champion,
		}
		if t.Phase == PhaseInProgress {
			for _, row := range s.standings() {
				view.Standings = append(view.Standings, StandingRow{
					PlayerID: row,
					Score:    t.Scores[row],
					HadBye:   t.Byes[row],
				})
			}
			// Withdrawn players keep their score entries for historical display
			var former []string
			for p := range t.Scores {
				if !t.enrolled(p) {
					former = append(former, p)
				}
			}
			sort.Strings(former)
			for _, p := range former {
				view.Standings = append(view.Standings, StandingRow{
					PlayerID:  p,
					Score:     t.Scores[p],
					HadBye:    t.Byes[p],
					Withdrawn: true,
				})
			}
			for _, m := range t.Pairings[t.Round] {
				if !m.Resolved {
					view.OpenPairings = append(view.OpenPairings, matchView(m))
				}
			}
		}
		snap.Tournament = view
	}
	return snap
}

func matchView(m *Match) MatchView {
	view := MatchView{
		ID:        m.ID,
		PlayerA:   m.PlayerA,
		PlayerB:   m.PlayerB,
		Round:     m.Round,
		Bye:       m.Bye,
		CreatedAt: m.CreatedAt,
	}
	for _, p := range []string{m.PlayerA, m.PlayerB} {
		if _, ok := m.Reports[p]; ok {
			view.Reported = append(view.Reported, p)
		}
	}
	return view
}
