/* rankings.go
 * Contains the methods for interacting with the rankings collection. Two independent counter
 * documents exist, one per RankingKind: casual win counts and tournament championship counts.
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gamenight-bot/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IncrementRanking adds amount to a player's counter of the given kind,
// creating the counter document on first use
func (s *Store) IncrementRanking(kind shared.RankingKind, playerID string, amount int) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown ranking kind: %s", kind)
	}
	filter := bson.M{"kind": string(kind)}
	update := bson.M{
		"$inc":         bson.M{"counts." + playerID: amount},
		"$setOnInsert": bson.M{"kind": string(kind)},
	}
	opts := options.Update().SetUpsert(true)

	_, err := s.Collections.Rankings.UpdateOne(context.TODO(), filter, update, opts)
	if err != nil {
		return fmt.Errorf("ranking increment failed: %w", err)
	}
	return nil
}

// FetchRanking returns the counter map of the given kind as an ordered list:
// wins descending, player ID ascending on ties. A missing document yields an
// empty ranking rather than an error.
func (s *Store) FetchRanking(kind shared.RankingKind) ([]RankingEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown ranking kind: %s", kind)
	}
	var doc RankingDoc
	err := s.Collections.Rankings.FindOne(context.TODO(), bson.M{"kind": string(kind)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch %s ranking from database: %w", kind, err)
	}

	entries := make([]RankingEntry, 0, len(doc.Counts))
	for playerID, wins := range doc.Counts {
		entries = append(entries, RankingEntry{PlayerID: playerID, Wins: wins})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries, nil
}

// ResetRanking zeroes the counter map of the given kind and stamps the reset
// day. The stamp makes resets idempotent per calendar day: a second call with
// the same day string reports false and changes nothing.
func (s *Store) ResetRanking(kind shared.RankingKind, day string) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("unknown ranking kind: %s", kind)
	}
	var doc RankingDoc
	err := s.Collections.Rankings.FindOne(context.TODO(), bson.M{"kind": string(kind)}).Decode(&doc)
	notFound := errors.Is(err, mongo.ErrNoDocuments)
	if err != nil && !notFound {
		return false, fmt.Errorf("lookup for existing ranking failed: %w", err)
	}
	if !notFound && doc.LastReset == day {
		return false, nil
	}

	replacement := RankingDoc{
		Kind:      string(kind),
		Counts:    map[string]int{},
		LastReset: day,
	}
	opts := options.Replace().SetUpsert(true)
	_, err = s.Collections.Rankings.ReplaceOne(context.TODO(), bson.M{"kind": string(kind)}, replacement, opts)
	if err != nil {
		return false, fmt.Errorf("ranking reset failed: %w", err)
	}
	return true, nil
}
