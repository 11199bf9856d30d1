/* history.go
 * Contains the methods for interacting with the match_history collection: an append-only log of
 * resolved casual matches kept for display. All entries are retained; readers ask for a limit.
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppendMatchHistory inserts one resolved casual match into the log
func (s *Store) AppendMatchHistory(entry HistoryEntry) error {
	if entry.MatchID == "" {
		return fmt.Errorf("history entry requires a match id")
	}
	_, err := s.Collections.MatchHistory.InsertOne(context.TODO(), entry)
	if err != nil {
		return fmt.Errorf("history insert failed: %w", err)
	}
	return nil
}

// FetchRecentHistory returns the most recently reported entries, newest first
func (s *Store) FetchRecentHistory(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 3
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "reported_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.Collections.MatchHistory.Find(context.TODO(), bson.D{}, opts)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching match history from db: %w", err)
	}

	var entries []HistoryEntry
	if err = cursor.All(context.TODO(), &entries); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into history entries: %w", err)
	}
	return entries, nil
}
