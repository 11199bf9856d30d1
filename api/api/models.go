/* models.go
 * Contains the display structs returned by the API facade
 * Authors: Zachary Bower
 */

package api

import (
	"gamenight-bot/api/engine"
	"gamenight-bot/api/store"
)

// recentHistoryLimit caps how many resolved casual matches a snapshot carries
const recentHistoryLimit = 10

// Snapshot merges the engine's display state with the durable rankings and the
// recent casual match history
type Snapshot struct {
	Engine              engine.Snapshot      `json:"engine"`
	CasualRanking       []store.RankingEntry `json:"casual_ranking"`
	ChampionshipRanking []store.RankingEntry `json:"championship_ranking"`
	RecentMatches       []store.HistoryEntry `json:"recent_matches"`
}
