/* store.go
 * Contains the Store struct and NewStore function. The methods for this package are split across
 * three files: rankings, tournament and history. Each of these files contains methods for
 * interacting with that part of the database
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections struct {
		Rankings     *mongo.Collection
		Tournament   *mongo.Collection
		MatchHistory *mongo.Collection
	}
}

// NewStore initialises the db connection and binds the three collections the
// bot persists: ranking counters, tournament state and the casual match history
func NewStore(dbName string, mongoURI string) (*Store, error) {
	if dbName == "" {
		return nil, fmt.Errorf("dbName cannot be empty")
	}
	client, err := mongo.Connect(context.TODO(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(dbName)

	return &Store{
		Client:   client,
		Database: db,
		Collections: struct {
			Rankings     *mongo.Collection
			Tournament   *mongo.Collection
			MatchHistory *mongo.Collection
		}{
			Rankings:     db.Collection("rankings"),
			Tournament:   db.Collection("tournament_state"),
			MatchHistory: db.Collection("match_history"),
		},
	}, nil
}
