/* rankings_test.go
 * Contains unit tests for rankings.go using the mongo mock test harness
 * Authors: Zachary Bower
 */

package store

import (
	"testing"

	"gamenight-bot/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// newMockStore binds every collection to the mock collection of the current subtest
func newMockStore(mt *mtest.T) *Store {
	return &Store{
		Client:   mt.Client,
		Database: mt.DB,
		Collections: struct {
			Rankings     *mongo.Collection
			Tournament   *mongo.Collection
			MatchHistory *mongo.Collection
		}{
			Rankings:     mt.Coll,
			Tournament:   mt.Coll,
			MatchHistory: mt.Coll,
		},
	}
}

func TestIncrementRanking_Success(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts the counter document", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "nModified", Value: 1},
		})

		err := store.IncrementRanking(shared.RankingCasual, "user123", 1)
		assert.NoError(t, err)
	})
}

func TestIncrementRanking_InvalidKind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("rejects unknown ranking kind", func(mt *mtest.T) {
		store := newMockStore(mt)

		err := store.IncrementRanking(shared.RankingKind("ladder"), "user123", 1)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown ranking kind")
	})
}

func TestIncrementRanking_DatabaseError(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns error when update fails", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "database error",
		}))

		err := store.IncrementRanking(shared.RankingCasual, "user123", 1)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ranking increment failed")
	})
}

func TestFetchRanking_SortedByWins(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("orders by wins descending then player id", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gamenight.rankings", mtest.FirstBatch, bson.D{
			{Key: "kind", Value: "casual"},
			{Key: "counts", Value: bson.D{
				{Key: "alice", Value: 3},
				{Key: "bob", Value: 5},
				{Key: "carol", Value: 3},
			}},
		}))

		entries, err := store.FetchRanking(shared.RankingCasual)

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, RankingEntry{PlayerID: "bob", Wins: 5}, entries[0])
		assert.Equal(t, RankingEntry{PlayerID: "alice", Wins: 3}, entries[1])
		assert.Equal(t, RankingEntry{PlayerID: "carol", Wins: 3}, entries[2])
	})
}

func TestFetchRanking_MissingDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty ranking is not an error", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gamenight.rankings", mtest.FirstBatch))

		entries, err := store.FetchRanking(shared.RankingTournament)

		assert.NoError(t, err)
		assert.Nil(t, entries)
	})
}

func TestResetRanking_SameDayIsNoOp(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second reset on the same day reports false", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gamenight.rankings", mtest.FirstBatch, bson.D{
			{Key: "kind", Value: "casual"},
			{Key: "counts", Value: bson.D{}},
			{Key: "last_reset", Value: "2026-03-01"},
		}))

		reset, err := store.ResetRanking(shared.RankingCasual, "2026-03-01")

		require.NoError(t, err)
		assert.False(t, reset)
	})
}

func TestResetRanking_ReplacesCounter(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("zeros the counters and stamps the day", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gamenight.rankings", mtest.FirstBatch, bson.D{
			{Key: "kind", Value: "casual"},
			{Key: "counts", Value: bson.D{{Key: "alice", Value: 9}}},
			{Key: "last_reset", Value: "2026-02-01"},
		}))
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "nModified", Value: 1},
		})

		reset, err := store.ResetRanking(shared.RankingCasual, "2026-03-01")

		require.NoError(t, err)
		assert.True(t, reset)
	})
}

func TestResetRanking_FirstEverReset(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing document is created via upsert", func(mt *mtest.T) {
		store := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "gamenight.rankings", mtest.FirstBatch))
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "nModified", Value: 0},
		})

		reset, err := store.ResetRanking(shared.RankingCasual, "2026-03-01")

		require.NoError(t, err)
		assert.True(t, reset)
	})
}
