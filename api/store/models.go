/* models.go
 * This file contains the structs and conversion helpers that relate to DB documents. Three
 * independent documents are persisted: ranking counters (one per kind), the active tournament
 * state and the append-only casual match history.
 * Authors: Zachary Bower
 */

package store

import (
	"sort"
	"strconv"
	"time"

	"gamenight-bot/api/engine"
	"gamenight-bot/api/shared"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RankingDoc is the stored form of one ranking counter map.
// LastReset carries a YYYY-MM-DD stamp so a retriggered reset check within the
// same day is a no-op.
type RankingDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Kind      string             `bson:"kind"`
	Counts    map[string]int     `bson:"counts"`
	LastReset string             `bson:"last_reset,omitempty"`
}

// RankingEntry is one display row of a ranking, ordered by wins descending
type RankingEntry struct {
	PlayerID string
	Wins     int
}

// HistoryEntry is one resolved casual match in the append-only log
type HistoryEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	MatchID    string             `bson:"match_id"`
	PlayerA    string             `bson:"player_a"`
	PlayerB    string             `bson:"player_b"`
	Winner     string             `bson:"winner,omitempty"`
	Loser      string             `bson:"loser,omitempty"`
	Draw       bool               `bson:"draw,omitempty"`
	ReportedAt time.Time          `bson:"reported_at"`
}

// TournamentDoc is the stored form of the active tournament. Pairing rounds are
// keyed by the decimal round number because BSON map keys must be strings.
type TournamentDoc struct {
	ID           string                  `bson:"_id"`
	Phase        int                     `bson:"phase"`
	Players      []string                `bson:"players"`
	Decklists    map[string]string       `bson:"decklists,omitempty"`
	Scores       map[string]float64      `bson:"scores"`
	Played       map[string][]string     `bson:"played,omitempty"`
	Byes         []string                `bson:"byes,omitempty"`
	Round        int                     `bson:"round"`
	RoundsTarget int                     `bson:"rounds_target"`
	Pairings     map[string][]PairingDoc `bson:"pairings,omitempty"`
	Champion     string                  `bson:"champion,omitempty"`
	UpdatedAt    time.Time               `bson:"updated_at"`
}

// PairingDoc is the stored form of one tournament pairing
type PairingDoc struct {
	MatchID   string         `bson:"match_id"`
	PlayerA   string         `bson:"player_a"`
	PlayerB   string         `bson:"player_b,omitempty"`
	Round     int            `bson:"round"`
	Bye       bool           `bson:"bye,omitempty"`
	Walkover  bool           `bson:"walkover,omitempty"`
	Voided    bool           `bson:"voided,omitempty"`
	Reports   map[string]int `bson:"reports,omitempty"`
	Resolved  bool           `bson:"resolved"`
	Result    int            `bson:"result,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

// activeTournamentID is the _id of the single tournament_state document
const activeTournamentID = "active"

// FromEngineTournament converts engine state into its stored form
func FromEngineTournament(t *engine.Tournament, now time.Time) TournamentDoc {
	doc := TournamentDoc{
		ID:           activeTournamentID,
		Phase:        int(t.Phase),
		Players:      append([]string(nil), t.Players...),
		Decklists:    t.Decklists,
		Scores:       t.Scores,
		Round:        t.Round,
		RoundsTarget: t.RoundsTarget,
		Champion:     t.Champion,
		UpdatedAt:    now,
	}
	if len(t.Played) > 0 {
		doc.Played = make(map[string][]string, len(t.Played))
		for player, opponents := range t.Played {
			var faced []string
			for opponent := range opponents {
				faced = append(faced, opponent)
			}
			sort.Strings(faced)
			doc.Played[player] = faced
		}
	}
	for player := range t.Byes {
		doc.Byes = append(doc.Byes, player)
	}
	sort.Strings(doc.Byes)
	if len(t.Pairings) > 0 {
		doc.Pairings = make(map[string][]PairingDoc, len(t.Pairings))
		for round, pairings := range t.Pairings {
			key := strconv.Itoa(round)
			for _, m := range pairings {
				doc.Pairings[key] = append(doc.Pairings[key], fromEngineMatch(m))
			}
		}
	}
	return doc
}

// ToEngine converts a stored tournament back into engine state
func (d TournamentDoc) ToEngine() *engine.Tournament {
	t := &engine.Tournament{
		Phase:        engine.TournamentPhase(d.Phase),
		Players:      append([]string(nil), d.Players...),
		Decklists:    d.Decklists,
		Scores:       d.Scores,
		Played:       make(map[string]map[string]bool),
		Byes:         make(map[string]bool),
		Round:        d.Round,
		RoundsTarget: d.RoundsTarget,
		Pairings:     make(map[int][]*engine.Match),
		Champion:     d.Champion,
	}
	if t.Decklists == nil {
		t.Decklists = make(map[string]string)
	}
	if t.Scores == nil {
		t.Scores = make(map[string]float64)
	}
	for player, faced := range d.Played {
		t.Played[player] = make(map[string]bool, len(faced))
		for _, opponent := range faced {
			t.Played[player][opponent] = true
		}
	}
	for _, player := range d.Byes {
		t.Byes[player] = true
	}
	for key, pairings := range d.Pairings {
		round, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		for _, p := range pairings {
			t.Pairings[round] = append(t.Pairings[round], p.toEngine())
		}
	}
	return t
}

func fromEngineMatch(m *engine.Match) PairingDoc {
	doc := PairingDoc{
		MatchID:   m.ID,
		PlayerA:   m.PlayerA,
		PlayerB:   m.PlayerB,
		Round:     m.Round,
		Bye:       m.Bye,
		Walkover:  m.Walkover,
		Voided:    m.Voided,
		Resolved:  m.Resolved,
		Result:    int(m.Result),
		CreatedAt: m.CreatedAt,
	}
	if len(m.Reports) > 0 {
		doc.Reports = make(map[string]int, len(m.Reports))
		for player, outcome := range m.Reports {
			doc.Reports[player] = int(outcome)
		}
	}
	return doc
}

func (p PairingDoc) toEngine() *engine.Match {
	m := &engine.Match{
		ID:        p.MatchID,
		PlayerA:   p.PlayerA,
		PlayerB:   p.PlayerB,
		Round:     p.Round,
		Bye:       p.Bye,
		Walkover:  p.Walkover,
		Voided:    p.Voided,
		Reports:   make(map[string]shared.Outcome),
		Resolved:  p.Resolved,
		Result:    shared.Outcome(p.Result),
		CreatedAt: p.CreatedAt,
	}
	for player, outcome := range p.Reports {
		m.Reports[player] = shared.Outcome(outcome)
	}
	return m
}
