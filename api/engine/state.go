/* state.go
 * Contains the State struct that owns all in-memory engine data: the waiting queue, the active
 * casual match set, the tournament and pending cancellation requests. State assumes serialized
 * access; the api facade wraps every entry point in a mutex.
 * Authors: Zachary Bower
 */

package engine

import "sort"

// State is the injectable application state object. A fresh State is created per
// process (or per test) and every engine operation is a method on it.
type State struct {
	clock      Clock
	queue      []string
	casual     map[string]*Match
	tournament *Tournament
	cancels    map[string]*CancelRequest
}

// NewState creates an empty State. A nil clock falls back to the system clock.
func NewState(clock Clock) *State {
	if clock == nil {
		clock = SystemClock{}
	}
	return &State{
		clock:   clock,
		casual:  make(map[string]*Match),
		cancels: make(map[string]*CancelRequest),
	}
}

// Tournament returns the current tournament state, or nil if none exists.
// Callers must treat the returned value as read-only.
func (s *State) Tournament() *Tournament {
	return s.tournament
}

// RestoreTournament rehydrates tournament state loaded from persistence.
// A nil argument leaves the engine with no tournament.
func (s *State) RestoreTournament(t *Tournament) {
	s.tournament = t
}

// findOpenMatch looks up an unresolved match by ID in the casual set and, if a
// tournament round is running, among the current round's pairings.
// Resolved matches are no longer part of the active set, so reporting against
// them fails with ErrUnknownMatch.
func (s *State) findOpenMatch(matchID string) (*Match, bool, error) {
	if m, ok := s.casual[matchID]; ok {
		return m, false, nil
	}
	if t := s.tournament; t != nil && t.Phase == PhaseInProgress {
		for _, m := range t.Pairings[t.Round] {
			if m.ID == matchID && !m.Resolved {
				return m, true, nil
			}
		}
	}
	return nil, false, ErrUnknownMatch
}

// MatchesForPlayer returns every open match the given player participates in:
// active casual matches plus their unresolved pairing in the current round.
// Used by the transport to resolve "report my match" without an explicit ID.
func (s *State) MatchesForPlayer(playerID string) []*Match {
	var matches []*Match
	for _, m := range s.casual {
		if m.HasPlayer(playerID) {
			matches = append(matches, m)
		}
	}
	if t := s.tournament; t != nil && t.Phase == PhaseInProgress {
		for _, m := range t.Pairings[t.Round] {
			if !m.Resolved && m.HasPlayer(playerID) {
				matches = append(matches, m)
			}
		}
	}
	sortMatches(matches)
	return matches
}

// sortMatches orders matches by creation time, then ID, so listings are deterministic
func sortMatches(matches []*Match) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
