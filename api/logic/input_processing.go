/* input_processing.go
 * Contains the logic for processing user input: normalizing reported outcome keywords and
 * extracting player IDs from Discord mentions. Outcome words are matched fuzzily so common
 * variants and small typos still resolve; anything that does not resolve is rejected here,
 * before it reaches the engine.
 * Authors: Zachary Bower
 */

package logic

import (
	"fmt"
	"strings"

	"gamenight-bot/api/shared"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// The three canonical reporter-relative outcome words
const (
	WordWin  = "win"
	WordLoss = "loss"
	WordDraw = "draw"
)

// synonyms maps accepted input words to their canonical outcome word
var synonyms = map[string]string{
	"win":     WordWin,
	"won":     WordWin,
	"w":       WordWin,
	"victory": WordWin,
	"loss":    WordLoss,
	"lose":    WordLoss,
	"lost":    WordLoss,
	"l":       WordLoss,
	"defeat":  WordLoss,
	"draw":    WordDraw,
	"tie":     WordDraw,
	"tied":    WordDraw,
	"d":       WordDraw,
}

// NormalizeOutcome resolves a user-typed result word to win, loss or draw.
// Exact synonym matches win; otherwise the best fuzzy match against the known
// words is taken. Unresolvable input is an error so the caller can prompt.
func NormalizeOutcome(input string) (string, error) {
	word := strings.ToLower(strings.TrimSpace(input))
	if word == "" {
		return "", fmt.Errorf("no result given, expected win, loss or draw")
	}
	if canonical, ok := synonyms[word]; ok {
		return canonical, nil
	}

	known := make([]string, 0, len(synonyms))
	for s := range synonyms {
		known = append(known, s)
	}
	results := fuzzy.RankFindFold(word, known)
	if len(results) == 0 {
		return "", fmt.Errorf("could not understand result '%s', expected win, loss or draw", input)
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return synonyms[best.Target], nil
}

// RelativeOutcome converts a reporter-relative outcome word into the match's
// closed outcome enumeration, given which side the reporter is on
func RelativeOutcome(word string, reporterIsPlayerA bool) (shared.Outcome, error) {
	switch word {
	case WordDraw:
		return shared.OutcomeDraw, nil
	case WordWin:
		if reporterIsPlayerA {
			return shared.OutcomeAWins, nil
		}
		return shared.OutcomeBWins, nil
	case WordLoss:
		if reporterIsPlayerA {
			return shared.OutcomeBWins, nil
		}
		return shared.OutcomeAWins, nil
	}
	return 0, fmt.Errorf("unknown outcome word: %s", word)
}

// ParsePlayerID extracts a raw user ID from a Discord mention. Plain IDs pass
// through unchanged; <@123>, <@!123> and trailing punctuation are stripped.
func ParsePlayerID(arg string) string {
	id := strings.TrimSpace(arg)
	id = strings.TrimPrefix(id, "<@")
	id = strings.TrimPrefix(id, "!")
	id = strings.TrimSuffix(id, ">")
	return id
}

// ParsePlayerIDs maps ParsePlayerID over a list of arguments, dropping empties
func ParsePlayerIDs(args []string) []string {
	var ids []string
	for _, arg := range args {
		if id := ParsePlayerID(arg); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
