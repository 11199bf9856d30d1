/* tournament.go
 * Contains the methods for interacting with the tournament_state collection. A single document
 * with a fixed _id holds the active tournament; it is replaced on every committing mutation and
 * deleted when the tournament is cancelled or superseded.
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

// SaveTournament upserts the active tournament document
func (s *Store) SaveTournament(doc TournamentDoc) error {
	doc.ID = activeTournamentID
	opts := options.Replace().SetUpsert(true)
	_, err := s.Collections.Tournament.ReplaceOne(context.TODO(), bson.M{"_id": activeTournamentID}, doc, opts)
	if err != nil {
		return fmt.Errorf("tournament save failed: %w", err)
	}
	return nil
}

// LoadTournament fetches the persisted tournament state. Returns nil without
// error when no tournament is stored, so startup can fall back to empty state.
func (s *Store) LoadTournament() (*TournamentDoc, error) {
	var doc TournamentDoc
	err := s.Collections.Tournament.FindOne(context.TODO(), bson.M{"_id": activeTournamentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch tournament state from database: %w", err)
	}
	return &doc, nil
}

// ClearTournament removes the persisted tournament document. Removing a
// document that does not exist is not an error.
func (s *Store) ClearTournament() error {
	_, err := s.Collections.Tournament.DeleteOne(context.TODO(), bson.M{"_id": activeTournamentID})
	if err != nil {
		return fmt.Errorf("tournament clear failed: %w", err)
	}
	return nil
}
