/* models.go
 * Contains the match and tournament entities, validation errors and the Clock interface used by the engine.
 * The engine is a pure in-memory library; transports and persistence live in the bot, web and store packages.
 * Authors: Zachary Bower
 */

package engine

import (
	"errors"
	"time"

	"gamenight-bot/api/shared"

	"github.com/google/uuid"
)

// Validation errors returned at the engine's call boundary. No state is mutated
// when one of these is returned.
var (
	ErrUnknownMatch          = errors.New("unknown match")
	ErrNotAParticipant       = errors.New("player is not a participant in this match")
	ErrTournamentNotActive   = errors.New("no tournament is active")
	ErrTournamentInProgress  = errors.New("a tournament is already in progress")
	ErrInsufficientPlayers   = errors.New("at least 2 players are required to start a tournament")
	ErrNotEnrolled           = errors.New("player is not enrolled in the tournament")
	ErrNoPendingCancellation = errors.New("no pending cancellation request for this match")
	ErrCancellationPending   = errors.New("a cancellation request is already pending for this match")
)

// Clock provides the current time. Injected so tests can control timestamps
// and the cancellation expiry window.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Match represents one scheduled game between two players and its reporting state.
// A casual queue match has Round == 0; a tournament pairing carries its round number.
// A bye is a synthetic pre-resolved pairing with only PlayerA set.
type Match struct {
	ID        string
	PlayerA   string
	PlayerB   string // empty for a bye
	Round     int    // 0 for casual queue matches
	Bye       bool
	Walkover  bool // opponent withdrew mid-round
	Voided    bool // removed by mutual cancellation, no score effect
	Reports   map[string]shared.Outcome
	Resolved  bool
	Result    shared.Outcome // only meaningful once Resolved and not Voided
	CreatedAt time.Time
}

// HasPlayer reports whether the given player is one of the two participants
func (m *Match) HasPlayer(playerID string) bool {
	return playerID == m.PlayerA || (m.PlayerB != "" && playerID == m.PlayerB)
}

// Opponent returns the other participant's ID, or an empty string for a bye
func (m *Match) Opponent(playerID string) string {
	if playerID == m.PlayerA {
		return m.PlayerB
	}
	return m.PlayerA
}

// Winner returns the winning player's ID. ok is false for a draw or a voided match.
func (m *Match) Winner() (string, bool) {
	if !m.Resolved || m.Voided {
		return "", false
	}
	switch m.Result {
	case shared.OutcomeAWins:
		return m.PlayerA, true
	case shared.OutcomeBWins:
		return m.PlayerB, true
	}
	return "", false
}

// Loser returns the losing player's ID. ok is false for a draw, a voided match or a bye.
func (m *Match) Loser() (string, bool) {
	winner, ok := m.Winner()
	if !ok || m.Bye {
		return "", false
	}
	return m.Opponent(winner), true
}

// newMatchID generates a unique, stable match identifier.
// Prefix "m" is used for casual queue matches and "t" for tournament pairings.
func newMatchID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// TournamentPhase is the state machine for a tournament instance
type TournamentPhase int

const (
	PhaseForming TournamentPhase = iota
	PhaseInProgress
	PhaseFinished
)

func (p TournamentPhase) String() string {
	switch p {
	case PhaseForming:
		return "forming"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Tournament holds the state of the single active tournament.
// Score entries for withdrawn players persist for historical display, so the
// keys of Scores can be a superset of Players.
type Tournament struct {
	Phase        TournamentPhase
	Players      []string // signup order, display only; pairing uses score order
	Decklists    map[string]string
	Scores       map[string]float64
	Played       map[string]map[string]bool
	Byes         map[string]bool
	Round        int // 0 until the first round is generated
	RoundsTarget int
	Pairings     map[int][]*Match
	Champion     string
}

func (t *Tournament) enrolled(playerID string) bool {
	for _, p := range t.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

func (t *Tournament) markPlayed(a, b string) {
	if t.Played[a] == nil {
		t.Played[a] = make(map[string]bool)
	}
	if t.Played[b] == nil {
		t.Played[b] = make(map[string]bool)
	}
	t.Played[a][b] = true
	t.Played[b][a] = true
}
