/* swiss.go
 * Contains the Swiss tournament engine: signup, round generation, bye assignment, withdrawal
 * and the round completion check. Pairing is a greedy single pass down the score-sorted player
 * list with rematch avoidance; it does not search for a globally optimal pairing.
 * Authors: Zachary Bower
 */

package engine

import (
	"fmt"
	"sort"

	"gamenight-bot/api/shared"
)

// RoundTransition describes a round advance or a tournament finish. It is
// produced from exactly one mutation point so auto-advance cannot run twice
// for the same round.
type RoundTransition struct {
	Finished bool
	Champion string
	Round    int      // the newly generated round, 0 when Finished
	Pairings []*Match // open pairings of the new round, byes excluded
	Bye      string   // player awarded the automatic win this round, if any
}

// WithdrawResult reports the effects of a mid-tournament withdrawal
type WithdrawResult struct {
	PlayerID   string
	Walkovers  []*Match // current-round pairings resolved as automatic wins for the opponent
	Transition *RoundTransition
}

// ComputeRounds maps the player count to the number of Swiss rounds.
// This is the step function used by the source family; see DESIGN.md for the
// rejected ceil(log2 n)-1 alternative.
func ComputeRounds(playerCount int) int {
	switch {
	case playerCount <= 8:
		return 3
	case playerCount <= 16:
		return 4
	case playerCount <= 32:
		return 5
	default:
		return 6
	}
}

// OpenSignup creates a fresh tournament in the forming phase so players can
// enroll. Fails with ErrTournamentInProgress while a tournament is running.
func (s *State) OpenSignup() error {
	if t := s.tournament; t != nil && t.Phase == PhaseInProgress {
		return ErrTournamentInProgress
	}
	s.tournament = newTournament()
	return nil
}

// Enroll adds a player to the forming tournament. Idempotent: enrolling twice
// reports false the second time.
func (s *State) Enroll(playerID string) (bool, error) {
	t := s.tournament
	if t == nil || t.Phase != PhaseForming {
		return false, ErrTournamentNotActive
	}
	if t.enrolled(playerID) {
		return false, nil
	}
	t.Players = append(t.Players, playerID)
	return true, nil
}

// Unenroll removes a player from the forming tournament and discards their decklist
func (s *State) Unenroll(playerID string) (bool, error) {
	t := s.tournament
	if t == nil || t.Phase != PhaseForming {
		return false, ErrTournamentNotActive
	}
	for i, p := range t.Players {
		if p == playerID {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			delete(t.Decklists, playerID)
			return true, nil
		}
	}
	return false, nil
}

// SubmitDecklist stores a player's decklist text verbatim. The text is not
// validated; checking list legality is the organizer's job.
func (s *State) SubmitDecklist(playerID, list string) error {
	t := s.tournament
	if t == nil || t.Phase == PhaseFinished {
		return ErrTournamentNotActive
	}
	if !t.enrolled(playerID) {
		return ErrNotEnrolled
	}
	t.Decklists[playerID] = list
	return nil
}

// Decklists returns the stored decklists keyed by player ID
func (s *State) Decklists() (map[string]string, error) {
	if s.tournament == nil {
		return nil, ErrTournamentNotActive
	}
	return s.tournament.Decklists, nil
}

// Begin closes signup and generates round 1. roundsOverride > 0 replaces the
// computed rounds target; the target is then fixed for the whole tournament.
func (s *State) Begin(roundsOverride int) (*RoundTransition, error) {
	t := s.tournament
	if t == nil || t.Phase != PhaseForming {
		return nil, ErrTournamentNotActive
	}
	return s.begin(t.Players, roundsOverride)
}

// StartTournament creates and immediately starts a tournament from an explicit
// player list, skipping the signup phase. Duplicate IDs are dropped. Fails with
// ErrTournamentInProgress while another tournament is running and with
// ErrInsufficientPlayers for fewer than two distinct players.
func (s *State) StartTournament(playerIDs []string, roundsOverride int) (*RoundTransition, error) {
	if t := s.tournament; t != nil && t.Phase == PhaseInProgress {
		return nil, ErrTournamentInProgress
	}
	var players []string
	seen := make(map[string]bool)
	for _, p := range playerIDs {
		if !seen[p] {
			seen[p] = true
			players = append(players, p)
		}
	}
	if len(players) < 2 {
		return nil, ErrInsufficientPlayers
	}
	s.tournament = newTournament()
	s.tournament.Players = players
	return s.begin(players, roundsOverride)
}

func newTournament() *Tournament {
	return &Tournament{
		Phase:     PhaseForming,
		Decklists: make(map[string]string),
		Scores:    make(map[string]float64),
		Played:    make(map[string]map[string]bool),
		Byes:      make(map[string]bool),
		Pairings:  make(map[int][]*Match),
	}
}

func (s *State) begin(players []string, roundsOverride int) (*RoundTransition, error) {
	t := s.tournament
	if len(players) < 2 {
		// Signup state is kept so more players can still enroll
		return nil, ErrInsufficientPlayers
	}
	for _, p := range players {
		t.Scores[p] = 0
	}
	t.RoundsTarget = roundsOverride
	if t.RoundsTarget <= 0 {
		t.RoundsTarget = ComputeRounds(len(players))
	}
	t.Phase = PhaseInProgress
	return s.generateRound(), nil
}

// OverrideRoundsTarget replaces the rounds target mid-tournament. The target
// never drops below the round already being played.
func (s *State) OverrideRoundsTarget(rounds int) error {
	t := s.tournament
	if t == nil || t.Phase != PhaseInProgress {
		return ErrTournamentNotActive
	}
	if rounds < 1 {
		return fmt.Errorf("rounds target must be at least 1, got %d", rounds)
	}
	if rounds < t.Round {
		rounds = t.Round
	}
	t.RoundsTarget = rounds
	return nil
}

// AdvanceRoundIfReady is the operator-facing progression trigger. It returns
// nil without error when the current round still has unresolved pairings.
func (s *State) AdvanceRoundIfReady() (*RoundTransition, error) {
	t := s.tournament
	if t == nil || t.Phase != PhaseInProgress {
		return nil, ErrTournamentNotActive
	}
	return s.maybeAdvanceRound(), nil
}

// Withdraw removes a player from the running tournament. Every unresolved
// current-round pairing involving them resolves as an automatic win for the
// opponent, which counts toward round completion. The withdrawn player's score
// entry persists for historical display and they are barred from future byes
// and pairings.
func (s *State) Withdraw(playerID string) (*WithdrawResult, error) {
	t := s.tournament
	if t == nil || t.Phase != PhaseInProgress {
		return nil, ErrTournamentNotActive
	}
	if !t.enrolled(playerID) {
		return nil, ErrNotEnrolled
	}
	for i, p := range t.Players {
		if p == playerID {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			break
		}
	}
	t.Byes[playerID] = true

	res := &WithdrawResult{PlayerID: playerID}
	for _, m := range t.Pairings[t.Round] {
		if m.Resolved || !m.HasPlayer(playerID) {
			continue
		}
		opponent := m.Opponent(playerID)
		m.Resolved = true
		m.Walkover = true
		if opponent == m.PlayerA {
			m.Result = shared.OutcomeAWins
		} else {
			m.Result = shared.OutcomeBWins
		}
		t.Scores[opponent] += 1.0
		t.markPlayed(m.PlayerA, m.PlayerB)
		delete(s.cancels, m.ID)
		res.Walkovers = append(res.Walkovers, m)
	}

	res.Transition = s.maybeAdvanceRound()
	return res, nil
}

// CancelTournament discards all tournament state without declaring a champion.
// Distinct from a normal finish: no championship counter is incremented.
func (s *State) CancelTournament() error {
	if s.tournament == nil {
		return ErrTournamentNotActive
	}
	for _, m := range s.tournament.Pairings[s.tournament.Round] {
		delete(s.cancels, m.ID)
	}
	s.tournament = nil
	return nil
}

// maybeAdvanceRound is the single authoritative round transition. It only acts
// when the tournament is in progress, a round has been generated and every
// pairing of that round (byes are pre-resolved) has a finalized result, so
// back-to-back finalization events cannot double-generate a round. A generated
// round that is complete at creation (a lone bye when only one active player
// remains) advances again immediately; no later report event exists to finish
// such a round.
func (s *State) maybeAdvanceRound() *RoundTransition {
	t := s.tournament
	if t == nil || t.Phase != PhaseInProgress || t.Round == 0 || !s.roundComplete() {
		return nil
	}
	for {
		if t.Round >= t.RoundsTarget {
			t.Phase = PhaseFinished
			t.Champion = s.champion()
			return &RoundTransition{Finished: true, Champion: t.Champion}
		}
		transition := s.generateRound()
		if !s.roundComplete() {
			return transition
		}
	}
}

// roundComplete reports whether every pairing of the current round is resolved
func (s *State) roundComplete() bool {
	for _, m := range s.tournament.Pairings[s.tournament.Round] {
		if !m.Resolved {
			return false
		}
	}
	return true
}

// generateRound sorts the enrolled players by score (descending, player ID
// ascending as tie-break), pulls out a bye when the count is odd and pairs the
// rest consecutively down the list, skipping ahead past already-played
// opponents where possible.
func (s *State) generateRound() *RoundTransition {
	t := s.tournament
	t.Round++
	transition := &RoundTransition{Round: t.Round}

	unpaired := s.standings()
	if len(unpaired)%2 == 1 {
		bye := t.selectBye(unpaired)
		unpaired = removePlayer(unpaired, bye)
		t.Scores[bye] += 1.0
		t.Byes[bye] = true
		byeMatch := &Match{
			ID:        newMatchID("t"),
			PlayerA:   bye,
			Round:     t.Round,
			Bye:       true,
			Reports:   make(map[string]shared.Outcome),
			Resolved:  true,
			Result:    shared.OutcomeAWins,
			CreatedAt: s.clock.Now(),
		}
		t.Pairings[t.Round] = append(t.Pairings[t.Round], byeMatch)
		transition.Bye = bye
	}

	for len(unpaired) > 0 {
		a := unpaired[0]
		unpaired = unpaired[1:]
		pick := 0
		for i, candidate := range unpaired {
			if !t.Played[a][candidate] {
				pick = i
				break
			}
		}
		b := unpaired[pick]
		unpaired = append(unpaired[:pick], unpaired[pick+1:]...)
		m := &Match{
			ID:        newMatchID("t"),
			PlayerA:   a,
			PlayerB:   b,
			Round:     t.Round,
			Reports:   make(map[string]shared.Outcome),
			CreatedAt: s.clock.Now(),
		}
		t.Pairings[t.Round] = append(t.Pairings[t.Round], m)
		transition.Pairings = append(transition.Pairings, m)
	}
	return transition
}

// standings returns the enrolled players sorted by score descending with
// player ID ascending as the tie-break. No randomness: an identical snapshot
// always produces the same order.
func (s *State) standings() []string {
	t := s.tournament
	ranked := make([]string, len(t.Players))
	copy(ranked, t.Players)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if t.Scores[a] != t.Scores[b] {
			return t.Scores[a] > t.Scores[b]
		}
		return a < b
	})
	return ranked
}

// selectBye picks the lowest-scoring player who has not yet received a bye
// (lowest ID on ties). When every candidate already had one, the single
// lowest-scoring player receives a second bye anyway: guaranteed progress is
// preferred over strict fairness.
func (t *Tournament) selectBye(ranked []string) string {
	candidates := make([]string, len(ranked))
	copy(candidates, ranked)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if t.Scores[a] != t.Scores[b] {
			return t.Scores[a] < t.Scores[b]
		}
		return a < b
	})
	for _, c := range candidates {
		if !t.Byes[c] {
			return c
		}
	}
	return candidates[0]
}

// champion returns the first maximum-score player in deterministic standings
// order. Withdrawn players keep score entries but cannot win; if everyone
// withdrew, the best historical score wins.
func (s *State) champion() string {
	t := s.tournament
	if ranked := s.standings(); len(ranked) > 0 {
		return ranked[0]
	}
	var best string
	for p := range t.Scores {
		if best == "" || t.Scores[p] > t.Scores[best] || (t.Scores[p] == t.Scores[best] && p < best) {
			best = p
		}
	}
	return best
}

func removePlayer(players []string, playerID string) []string {
	for i, p := range players {
		if p == playerID {
			return append(players[:i], players[i+1:]...)
		}
	}
	return players
}
