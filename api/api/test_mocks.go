/* test_mocks.go
 * Contains in-memory implementations of store.Interface and the Notifier used by tests in this
 * package and in the bot package. Kept out of _test files so other packages can import them.
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"sort"
	"sync"

	"gamenight-bot/api/shared"
	"gamenight-bot/api/store"
)

// MockStore is an in-memory store.Interface for tests
type MockStore struct {
	mu         sync.Mutex
	Rankings   map[shared.RankingKind]map[string]int
	LastResets map[shared.RankingKind]string
	Tournament *store.TournamentDoc
	History    []store.HistoryEntry

	// Err, when set, is returned from every mutating call to simulate storage failure
	Err error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Rankings:   make(map[shared.RankingKind]map[string]int),
		LastResets: make(map[shared.RankingKind]string),
	}
}

func (m *MockStore) IncrementRanking(kind shared.RankingKind, playerID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.Rankings[kind] == nil {
		m.Rankings[kind] = make(map[string]int)
	}
	m.Rankings[kind][playerID] += amount
	return nil
}

func (m *MockStore) FetchRanking(kind shared.RankingKind) ([]store.RankingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var entries []store.RankingEntry
	for playerID, wins := range m.Rankings[kind] {
		entries = append(entries, store.RankingEntry{PlayerID: playerID, Wins: wins})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries, nil
}

func (m *MockStore) ResetRanking(kind shared.RankingKind, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.LastResets[kind] == day {
		return false, nil
	}
	m.Rankings[kind] = make(map[string]int)
	m.LastResets[kind] = day
	return true, nil
}

func (m *MockStore) SaveTournament(doc store.TournamentDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Tournament = &doc
	return nil
}

func (m *MockStore) LoadTournament() (*store.TournamentDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tournament, nil
}

func (m *MockStore) ClearTournament() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Tournament = nil
	return nil
}

func (m *MockStore) AppendMatchHistory(entry store.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.History = append(m.History, entry)
	return nil
}

func (m *MockStore) FetchRecentHistory(limit int) ([]store.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var entries []store.HistoryEntry
	for i := len(m.History) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, m.History[i])
	}
	return entries, nil
}

func (m *MockStore) GetClient() interface{ Disconnect(context.Context) error } {
	return nil
}

// Ensure MockStore implements the store interface
var _ store.Interface = (*MockStore)(nil)

// MockNotifier records every notification sent during tests
type MockNotifier struct {
	mu    sync.Mutex
	Sent  []MockNotification
}

// MockNotification is one recorded Notify call
type MockNotification struct {
	PlayerIDs []string
	Message   string
}

func (n *MockNotifier) Notify(playerIDs []string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, MockNotification{PlayerIDs: playerIDs, Message: message})
}

// MessagesFor returns every message delivered to the given player
func (n *MockNotifier) MessagesFor(playerID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var messages []string
	for _, sent := range n.Sent {
		for _, p := range sent.PlayerIDs {
			if p == playerID {
				messages = append(messages, sent.Message)
			}
		}
	}
	return messages
}
