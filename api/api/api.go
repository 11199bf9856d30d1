/* api.go
 * This file contains the public methods for interacting with this package. For consistent results,
 * functions should only be called from this file, not the engine or store sub packages. The API
 * serializes all access to the engine behind a mutex, persists committed state best-effort after
 * each mutation and sends player notifications only after the mutation has committed.
 * Authors: Zachary Bower
 */

package api

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"gamenight-bot/api/engine"
	"gamenight-bot/api/shared"
	"gamenight-bot/api/store"
)

// Notifier delivers fire-and-forget messages to players. Implementations must
// never block the caller for long; failures are logged, not returned, because a
// notification failure must not roll back a committed mutation.
type Notifier interface {
	Notify(playerIDs []string, message string)
}

// API provides methods for interacting with the game night coordinator data layer
type API struct {
	mu       sync.Mutex
	State    *engine.State
	Store    store.Interface
	Notifier Notifier
	Clock    engine.Clock
}

// NewAPI creates a new API instance backed by MongoDB and rehydrates persisted
// tournament state. A missing or unreadable tournament document falls back to
// empty state rather than failing startup.
func NewAPI(dbName string, mongoURI string, notifier Notifier) (*API, error) {
	if dbName == "" {
		return nil, fmt.Errorf("dbName is required")
	}
	s, err := store.NewStore(dbName, mongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	a := &API{
		State:    engine.NewState(nil),
		Store:    s,
		Notifier: notifier,
		Clock:    engine.SystemClock{},
	}
	a.LoadPersisted()
	return a, nil
}

// LoadPersisted rehydrates tournament state from the store. Called once at
// startup; safe to call on an empty database.
func (a *API) LoadPersisted() {
	doc, err := a.Store.LoadTournament()
	if err != nil {
		log.Println("could not load persisted tournament state, starting empty:", err)
		return
	}
	if doc == nil {
		return
	}
	a.mu.Lock()
	a.State.RestoreTournament(doc.ToEngine())
	a.mu.Unlock()
}

// Enqueue adds a player to the waiting queue and immediately pairs off the
// head of the queue. Returns whether the player was newly added and the views
// of any matches created by this enqueue.
func (a *API) Enqueue(playerID string) (bool, []engine.MatchView) {
	a.mu.Lock()
	added, created := a.State.Enqueue(playerID)
	a.mu.Unlock()

	var views []engine.MatchView
	for _, m := range created {
		views = append(views, engine.MatchView{ID: m.ID, PlayerA: m.PlayerA, PlayerB: m.PlayerB, CreatedAt: m.CreatedAt})
		a.notify([]string{m.PlayerA, m.PlayerB},
			fmt.Sprintf("You have been paired for match %s: <@%s> vs <@%s>. Report the result with win, loss or draw when you finish.", m.ID, m.PlayerA, m.PlayerB))
	}
	return added, views
}

// DequeueFromQueue removes a queued player and reports whether removal happened
func (a *API) DequeueFromQueue(playerID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.State.Dequeue(playerID)
}

// OpenMatchesFor lists the open matches a player participates in, so the
// transport can resolve outcome reports that do not name a match ID.
func (a *API) OpenMatchesFor(playerID string) []engine.MatchView {
	a.mu.Lock()
	defer a.mu.Unlock()
	var views []engine.MatchView
	for _, m := range a.State.MatchesForPlayer(playerID) {
		views = append(views, engine.MatchView{ID: m.ID, PlayerA: m.PlayerA, PlayerB: m.PlayerB, Round: m.Round, CreatedAt: m.CreatedAt})
	}
	return views
}

// ReportOutcome records a participant's claimed outcome for an open match and
// commits the result once both claims agree. Ranking counters, the casual
// history log and tournament state are persisted before anyone is notified.
func (a *API) ReportOutcome(matchID, playerID string, outcome shared.Outcome) (*engine.ReportResult, error) {
	a.mu.Lock()
	res, err := a.State.ReportOutcome(matchID, playerID, outcome)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}

	if res.Status == engine.ReportResolved {
		if res.Tournament {
			a.persistTournamentLocked()
			if res.Transition != nil && res.Transition.Finished {
				a.incrementRanking(shared.RankingTournament, res.Transition.Champion, 1)
			}
		} else {
			if res.Winner != "" {
				a.incrementRanking(shared.RankingCasual, res.Winner, 1)
			}
			a.appendHistory(res.Match)
		}
	}
	a.mu.Unlock()

	a.notifyReport(res)
	return res, nil
}

// RequestCancellation files a cancellation request and notifies the opponent
func (a *API) RequestCancellation(matchID, requesterID string) (*engine.CancelRequest, error) {
	a.mu.Lock()
	req, err := a.State.RequestCancellation(matchID, requesterID)
	var opponent string
	if err == nil {
		for _, m := range a.State.MatchesForPlayer(requesterID) {
			if m.ID == matchID {
				opponent = m.Opponent(requesterID)
			}
		}
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if opponent != "" {
		a.notify([]string{opponent},
			fmt.Sprintf("<@%s> asked to cancel match %s. Reply with accept or decline within %s.", requesterID, matchID, engine.CancelWindow))
	}
	return req, nil
}

// RespondCancellation resolves a pending cancellation request. Accepting
// removes the match with no score effect; declining leaves it fully open.
func (a *API) RespondCancellation(matchID, responderID string, accept bool) (*engine.CancelResolution, error) {
	a.mu.Lock()
	res, err := a.State.RespondCancellation(matchID, responderID, accept)
	if err == nil && res.Accepted && res.Tournament {
		a.persistTournamentLocked()
		if res.Transition != nil && res.Transition.Finished {
			a.incrementRanking(shared.RankingTournament, res.Transition.Champion, 1)
		}
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	participants := []string{res.Match.PlayerA, res.Match.PlayerB}
	if res.Accepted {
		a.notify(participants, fmt.Sprintf("Match %s has been cancelled by mutual agreement. No result was recorded.", matchID))
		a.notifyTransition(res.Transition)
	} else {
		a.notify(participants, fmt.Sprintf("The cancellation request for match %s was declined. The match stays open.", matchID))
	}
	return res, nil
}

// PendingCancellationFor returns the request the player may respond to, if any
func (a *API) PendingCancellationFor(playerID string) *engine.CancelRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.State.PendingCancellationFor(playerID)
}

// ExpireCancellations drops timed-out cancellation requests and notifies the
// affected matches' participants that reporting continues normally. Driven by
// the scheduler, not by a blocking wait inside the engine.
func (a *API) ExpireCancellations() {
	type expiredNotice struct {
		matchID    string
		recipients []string
	}

	a.mu.Lock()
	expired := a.State.ExpireCancellations()
	var notices []expiredNotice
	if len(expired) > 0 {
		snap := a.State.Snapshot()
		for _, matchID := range expired {
			for _, m := range snap.CasualMatches {
				if m.ID == matchID {
					notices = append(notices, expiredNotice{matchID, []string{m.PlayerA, m.PlayerB}})
				}
			}
			if snap.Tournament != nil {
				for _, m := range snap.Tournament.OpenPairings {
					if m.ID == matchID {
						notices = append(notices, expiredNotice{matchID, []string{m.PlayerA, m.PlayerB}})
					}
				}
			}
		}
	}
	a.mu.Unlock()

	for _, n := range notices {
		a.notify(n.recipients, fmt.Sprintf("The cancellation request for match %s expired. The match stays open, report the result as usual.", n.matchID))
	}
}

// OpenTournamentSignup creates a fresh tournament in the signup phase
func (a *API) OpenTournamentSignup() error {
	a.mu.Lock()
	err := a.State.OpenSignup()
	if err == nil {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	return err
}

// EnrollInTournament adds a player to the forming tournament
func (a *API) EnrollInTournament(playerID string) (bool, error) {
	a.mu.Lock()
	added, err := a.State.Enroll(playerID)
	if err == nil && added {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	return added, err
}

// UnenrollFromTournament removes a player from the forming tournament
func (a *API) UnenrollFromTournament(playerID string) (bool, error) {
	a.mu.Lock()
	removed, err := a.State.Unenroll(playerID)
	if err == nil && removed {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	return removed, err
}

// SubmitDecklist stores a player's decklist text verbatim
func (a *API) SubmitDecklist(playerID, list string) error {
	a.mu.Lock()
	err := a.State.SubmitDecklist(playerID, list)
	if err == nil {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	return err
}

// ExportDecklists renders every stored decklist as one text block for the organizer
func (a *API) ExportDecklists() (string, error) {
	a.mu.Lock()
	lists, err := a.State.Decklists()
	a.mu.Unlock()
	if err != nil {
		return "", err
	}

	players := make([]string, 0, len(lists))
	for p := range lists {
		players = append(players, p)
	}
	sort.Strings(players)

	var b strings.Builder
	for _, p := range players {
		b.WriteString(fmt.Sprintf("Player: <@%s> (ID: %s)\n", p, p))
		b.WriteString(lists[p])
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 40))
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "No decklists have been submitted.\n", nil
	}
	return b.String(), nil
}

// BeginTournament closes signup and generates round 1
func (a *API) BeginTournament(roundsOverride int) (*engine.RoundTransition, error) {
	a.mu.Lock()
	transition, err := a.State.Begin(roundsOverride)
	if err == nil {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	a.notifyTransition(transition)
	return transition, nil
}

// StartTournament starts a tournament from an explicit player list, skipping signup
func (a *API) StartTournament(playerIDs []string, roundsOverride int) (*engine.RoundTransition, error) {
	a.mu.Lock()
	transition, err := a.State.StartTournament(playerIDs, roundsOverride)
	if err == nil {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	a.notifyTransition(transition)
	return transition, nil
}

// AdvanceRoundIfReady is the operator-forced progression trigger. It returns a
// nil transition when the current round still has unresolved pairings.
func (a *API) AdvanceRoundIfReady() (*engine.RoundTransition, error) {
	a.mu.Lock()
	transition, err := a.State.AdvanceRoundIfReady()
	if err == nil && transition != nil {
		a.persistTournamentLocked()
		if transition.Finished {
			a.incrementRanking(shared.RankingTournament, transition.Champion, 1)
		}
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	a.notifyTransition(transition)
	return transition, nil
}

// SetRoundsTarget overrides the computed rounds target for the running tournament
func (a *API) SetRoundsTarget(rounds int) error {
	a.mu.Lock()
	err := a.State.OverrideRoundsTarget(rounds)
	if err == nil {
		a.persistTournamentLocked()
	}
	a.mu.Unlock()
	return err
}

// WithdrawFromTournament removes a player mid-tournament, awarding automatic
// wins to their current-round opponents
func (a *API) WithdrawFromTournament(playerID string) (*engine.WithdrawResult, error) {
	a.mu.Lock()
	res, err := a.State.Withdraw(playerID)
	if err == nil {
		a.persistTournamentLocked()
		if res.Transition != nil && res.Transition.Finished {
			a.incrementRanking(shared.RankingTournament, res.Transition.Champion, 1)
		}
	}
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, m := range res.Walkovers {
		winner, _ := m.Winner()
		a.notify([]string{winner},
			fmt.Sprintf("<@%s> withdrew from the tournament. You win match %s automatically.", playerID, m.ID))
	}
	a.notifyTransition(res.Transition)
	return res, nil
}

// CancelTournament discards the tournament without declaring a champion
func (a *API) CancelTournament() error {
	a.mu.Lock()
	err := a.State.CancelTournament()
	if err == nil {
		if clearErr := a.Store.ClearTournament(); clearErr != nil {
			log.Println("tournament clear failed, continuing in memory:", clearErr)
		}
	}
	a.mu.Unlock()
	return err
}

// GetSnapshot returns the full display state: queue, active matches, tournament
// standings, both rankings and the recent casual history
func (a *API) GetSnapshot() Snapshot {
	a.mu.Lock()
	engineSnap := a.State.Snapshot()
	a.mu.Unlock()

	snap := Snapshot{Engine: engineSnap}
	var err error
	if snap.CasualRanking, err = a.Store.FetchRanking(shared.RankingCasual); err != nil {
		log.Println("could not fetch casual ranking:", err)
	}
	if snap.ChampionshipRanking, err = a.Store.FetchRanking(shared.RankingTournament); err != nil {
		log.Println("could not fetch championship ranking:", err)
	}
	if snap.RecentMatches, err = a.Store.FetchRecentHistory(recentHistoryLimit); err != nil {
		log.Println("could not fetch match history:", err)
	}
	return snap
}

// GetRanking returns one ordered ranking for display
func (a *API) GetRanking(kind shared.RankingKind) ([]store.RankingEntry, error) {
	return a.Store.FetchRanking(kind)
}

// GetRecentHistory returns the latest resolved casual matches, newest first
func (a *API) GetRecentHistory(limit int) ([]store.HistoryEntry, error) {
	return a.Store.FetchRecentHistory(limit)
}

// ResetRankings zeroes one ranking counter map, stamping today's date. Returns
// false when the counter was already reset today.
func (a *API) ResetRankings(kind shared.RankingKind) (bool, error) {
	day := a.Clock.Now().Format("2006-01-02")
	return a.Store.ResetRanking(kind, day)
}

// ResetCasualIfDue implements the monthly reset policy: on the first day of
// the calendar month the casual ranking is zeroed. The stamped reset date in
// the store makes a retriggered check within the same day a no-op.
func (a *API) ResetCasualIfDue() (bool, error) {
	now := a.Clock.Now()
	if now.Day() != 1 {
		return false, nil
	}
	return a.Store.ResetRanking(shared.RankingCasual, now.Format("2006-01-02"))
}

// PersistTournament flushes the current tournament state to the store. Used by
// the periodic flush job in addition to the per-mutation write-through.
func (a *API) PersistTournament() {
	a.mu.Lock()
	a.persistTournamentLocked()
	a.mu.Unlock()
}

// persistTournamentLocked writes the tournament document best-effort. Storage
// errors are logged and the in-memory mutation stands; gameplay is never
// blocked on the database. Callers must hold a.mu.
func (a *API) persistTournamentLocked() {
	t := a.State.Tournament()
	if t == nil {
		if err := a.Store.ClearTournament(); err != nil {
			log.Println("tournament clear failed, continuing in memory:", err)
		}
		return
	}
	doc := store.FromEngineTournament(t, a.Clock.Now())
	if err := a.Store.SaveTournament(doc); err != nil {
		log.Println("tournament save failed, continuing in memory:", err)
	}
}

func (a *API) incrementRanking(kind shared.RankingKind, playerID string, amount int) {
	if playerID == "" {
		return
	}
	if err := a.Store.IncrementRanking(kind, playerID, amount); err != nil {
		log.Println("ranking increment failed, continuing in memory:", err)
	}
}

func (a *API) appendHistory(m *engine.Match) {
	entry := store.HistoryEntry{
		MatchID:    m.ID,
		PlayerA:    m.PlayerA,
		PlayerB:    m.PlayerB,
		Draw:       m.Result == shared.OutcomeDraw,
		ReportedAt: a.Clock.Now(),
	}
	entry.Winner, _ = m.Winner()
	entry.Loser, _ = m.Loser()
	if err := a.Store.AppendMatchHistory(entry); err != nil {
		log.Println("history append failed, continuing in memory:", err)
	}
}

// notifyReport sends the per-status messages for a report call
func (a *API) notifyReport(res *engine.ReportResult) {
	m := res.Match
	participants := []string{m.PlayerA, m.PlayerB}
	switch res.Status {
	case engine.ReportAwaitingOpponent:
		// only the reporter gets feedback; the transport already tells them,
		// so nothing to fan out here
	case engine.ReportDisagreement:
		a.notify(participants, fmt.Sprintf("The reported results for match %s do not agree. Talk it over and both resubmit the same outcome.", m.ID))
	case engine.ReportResolved:
		if res.Draw {
			a.notify(participants, fmt.Sprintf("Result confirmed for match %s: a draw.", m.ID))
		} else {
			a.notify(participants, fmt.Sprintf("Result confirmed for match %s: <@%s> won.", m.ID, res.Winner))
		}
		a.notifyTransition(res.Transition)
	}
}

// notifyTransition announces a new round's pairings or the champion
func (a *API) notifyTransition(transition *engine.RoundTransition) {
	if transition == nil {
		return
	}
	if transition.Finished {
		a.mu.Lock()
		t := a.State.Tournament()
		var players []string
		if t != nil {
			players = append(players, t.Players...)
		}
		a.mu.Unlock()
		a.notify(players, fmt.Sprintf("The tournament is over. Congratulations <@%s>, champion!", transition.Champion))
		return
	}
	for _, m := range transition.Pairings {
		a.notify([]string{m.PlayerA, m.PlayerB},
			fmt.Sprintf("Tournament round %d: <@%s> vs <@%s> (match %s). Report the result with win, loss or draw when you finish.", transition.Round, m.PlayerA, m.PlayerB, m.ID))
	}
	if transition.Bye != "" {
		a.notify([]string{transition.Bye},
			fmt.Sprintf("Tournament round %d: you have a bye this round and receive an automatic win.", transition.Round))
	}
}

func (a *API) notify(playerIDs []string, message string) {
	if a.Notifier == nil || len(playerIDs) == 0 {
		return
	}
	a.Notifier.Notify(playerIDs, message)
}
