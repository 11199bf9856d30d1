/* store_interface.go
 * Contains the Store interface for dependency injection and testing
 * Authors: Zachary Bower
 */

package store

import (
	"context"

	"gamenight-bot/api/shared"
)

// Interface defines the methods that Store implements.
// This allows for mocking in tests.
type Interface interface {
	IncrementRanking(kind shared.RankingKind, playerID string, amount int) error
	FetchRanking(kind shared.RankingKind) ([]RankingEntry, error)
	ResetRanking(kind shared.RankingKind, day string) (bool, error)
	SaveTournament(doc TournamentDoc) error
	LoadTournament() (*TournamentDoc, error)
	ClearTournament() error
	AppendMatchHistory(entry HistoryEntry) error
	FetchRecentHistory(limit int) ([]HistoryEntry, error)

	// Getter method for accessing the underlying client
	GetClient() interface{ Disconnect(context.Context) error }
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)

// GetClient returns the MongoDB client
func (s *Store) GetClient() interface{ Disconnect(context.Context) error } {
	return s.Client
}
