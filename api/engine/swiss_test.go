/* swiss_test.go
 * Contains unit tests for the Swiss tournament engine: signup, round generation, byes,
 * rematch avoidance, withdrawal and championship resolution
 * Authors: Zachary Bower
 */

package engine

import (
	"testing"

	"gamenight-bot/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolve reports an agreed outcome from both participants of a pairing
func resolve(t *testing.T, s *State, m *Match, outcome shared.Outcome) *ReportResult {
	t.Helper()
	_, err := s.ReportOutcome(m.ID, m.PlayerA, outcome)
	require.NoError(t, err)
	res, err := s.ReportOutcome(m.ID, m.PlayerB, outcome)
	require.NoError(t, err)
	require.Equal(t, ReportResolved, res.Status)
	return res
}

// pairingFor returns the unresolved pairing the player is in for the current round
func pairingFor(t *testing.T, s *State, playerID string) *Match {
	t.Helper()
	matches := s.MatchesForPlayer(playerID)
	require.Len(t, matches, 1)
	return matches[0]
}

// region ComputeRounds tests

func TestComputeRounds_StepFunction(t *testing.T) {
	cases := []struct {
		players int
		rounds  int
	}{
		{2, 3},
		{8, 3},
		{9, 4},
		{16, 4},
		{17, 5},
		{32, 5},
		{33, 6},
		{100, 6},
	}
	for _, c := range cases {
		assert.Equal(t, c.rounds, ComputeRounds(c.players), "players=%d", c.players)
	}
}

// endregion

// region signup tests

func TestOpenSignup_EnrollAndBegin(t *testing.T) {
	s := NewState(nil)
	require.NoError(t, s.OpenSignup())

	added, err := s.Enroll("alice")
	require.NoError(t, err)
	assert.True(t, added)
	s.Enroll("bob")

	transition, err := s.Begin(0)
	require.NoError(t, err)
	assert.Equal(t, 1, transition.Round)
	assert.Equal(t, PhaseInProgress, s.Tournament().Phase)
	assert.Equal(t, 3, s.Tournament().RoundsTarget)
}

func TestEnroll_DuplicateReportsFalse(t *testing.T) {
	s := NewState(nil)
	s.OpenSignup()
	s.Enroll("alice")

	added, err := s.Enroll("alice")

	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, s.Tournament().Players, 1)
}

func TestEnroll_NoSignupOpen(t *testing.T) {
	s := NewState(nil)

	_, err := s.Enroll("alice")

	assert.ErrorIs(t, err, ErrTournamentNotActive)
}

func TestUnenroll_RemovesPlayerAndDecklist(t *testing.T) {
	s := NewState(nil)
	s.OpenSignup()
	s.Enroll("alice")
	require.NoError(t, s.SubmitDecklist("alice", "4x Lightning Bolt"))

	removed, err := s.Unenroll("alice")

	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, s.Tournament().Players)
	assert.Empty(t, s.Tournament().Decklists)
}

func TestSubmitDecklist_RequiresEnrollment(t *testing.T) {
	s := NewState(nil)
	s.OpenSignup()

	err := s.SubmitDecklist("alice", "list")

	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestBegin_InsufficientPlayersKeepsSignupOpen(t *testing.T) {
	s := NewState(nil)
	s.OpenSignup()
	s.Enroll("alice")

	_, err := s.Begin(0)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)

	// the signup survives so more players can still join
	require.NotNil(t, s.Tournament())
	assert.Equal(t, PhaseForming, s.Tournament().Phase)
	s.Enroll("bob")
	_, err = s.Begin(0)
	assert.NoError(t, err)
}

func TestOpenSignup_RejectedWhileInProgress(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"alice", "bob"}, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, s.OpenSignup(), ErrTournamentInProgress)
}

// endregion

// region StartTournament tests

func TestStartTournament_DeduplicatesPlayers(t *testing.T) {
	s := NewState(nil)

	_, err := s.StartTournament([]string{"alice", "alice", "bob"}, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, s.Tournament().Players)
}

func TestStartTournament_InsufficientPlayers(t *testing.T) {
	s := NewState(nil)

	_, err := s.StartTournament([]string{"alice", "alice"}, 0)

	assert.ErrorIs(t, err, ErrInsufficientPlayers)
	assert.Nil(t, s.Tournament())
}

func TestStartTournament_RejectedWhileInProgress(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"alice", "bob"}, 2)
	require.NoError(t, err)

	_, err = s.StartTournament([]string{"carol", "dave"}, 2)

	assert.ErrorIs(t, err, ErrTournamentInProgress)
	assert.Equal(t, []string{"alice", "bob"}, s.Tournament().Players)
}

func TestStartTournament_RoundsOverride(t *testing.T) {
	s := NewState(nil)

	_, err := s.StartTournament([]string{"alice", "bob", "carol", "dave"}, 5)

	require.NoError(t, err)
	assert.Equal(t, 5, s.Tournament().RoundsTarget)
}

// endregion

// region pairing tests

func TestGenerateRound_FirstRoundPairsByID(t *testing.T) {
	// equal scores tie-break on player ID ascending, so round 1 pairs
	// consecutively down the sorted ID list
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"dave", "bob", "alice", "carol"}, 3)

	require.NoError(t, err)
	require.Len(t, transition.Pairings, 2)
	assert.Equal(t, "alice", transition.Pairings[0].PlayerA)
	assert.Equal(t, "bob", transition.Pairings[0].PlayerB)
	assert.Equal(t, "carol", transition.Pairings[1].PlayerA)
	assert.Equal(t, "dave", transition.Pairings[1].PlayerB)
}

func TestGenerateRound_DeterministicAcrossRuns(t *testing.T) {
	players := []string{"p3", "p1", "p4", "p2", "p6", "p5"}

	pairs := func() [][2]string {
		s := NewState(nil)
		transition, err := s.StartTournament(players, 3)
		require.NoError(t, err)
		var out [][2]string
		for _, m := range transition.Pairings {
			out = append(out, [2]string{m.PlayerA, m.PlayerB})
		}
		return out
	}

	first := pairs()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, pairs())
	}
}

func TestGenerateRound_SecondRoundPairsByScore(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)

	// p1 beats p2, p3 beats p4
	resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)
	res := resolve(t, s, transition.Pairings[1], shared.OutcomeAWins)

	require.NotNil(t, res.Transition)
	next := res.Transition.Pairings
	require.Len(t, next, 2)
	// winners face winners, losers face losers
	assert.Equal(t, "p1", next[0].PlayerA)
	assert.Equal(t, "p3", next[0].PlayerB)
	assert.Equal(t, "p2", next[1].PlayerA)
	assert.Equal(t, "p4", next[1].PlayerB)
}

func TestGenerateRound_AvoidsRematchWherePossible(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)

	// round 1: p1 beats p2, p3 beats p4
	resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)
	res := resolve(t, s, transition.Pairings[1], shared.OutcomeAWins)

	// round 2: p1 beats p3, p2 beats p4
	require.NotNil(t, res.Transition)
	resolve(t, s, res.Transition.Pairings[0], shared.OutcomeAWins)
	res = resolve(t, s, res.Transition.Pairings[1], shared.OutcomeAWins)

	// round 3 standings: p1(2), p2(1), p3(1), p4(0). p1 has played both p2 and
	// p3, so the pass skips to the first unplayed opponent p4.
	require.NotNil(t, res.Transition)
	next := res.Transition.Pairings
	require.Len(t, next, 2)
	assert.Equal(t, "p1", next[0].PlayerA)
	assert.Equal(t, "p4", next[0].PlayerB)
	assert.Equal(t, "p2", next[1].PlayerA)
	assert.Equal(t, "p3", next[1].PlayerB)
}

func TestGenerateRound_RematchAllowedWhenUnavoidable(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"alice", "bob"}, 2)
	require.NoError(t, err)

	res := resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)

	// with only two players the round 2 pairing must be a rematch
	require.NotNil(t, res.Transition)
	require.Len(t, res.Transition.Pairings, 1)
	assert.Equal(t, "alice", res.Transition.Pairings[0].PlayerA)
	assert.Equal(t, "bob", res.Transition.Pairings[0].PlayerB)
}

// endregion

// region bye tests

func TestGenerateRound_OddCountAssignsBye(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"alice", "bob", "carol"}, 3)

	require.NoError(t, err)
	assert.Equal(t, "alice", transition.Bye, "all scores equal, lowest ID gets the bye")
	require.Len(t, transition.Pairings, 1)
	assert.Equal(t, 1.0, s.Tournament().Scores["alice"], "a bye is an automatic win")
	assert.True(t, s.Tournament().Byes["alice"])
}

func TestGenerateRound_ByeRotatesToPlayersWithoutOne(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"alice", "bob", "carol"}, 3)
	require.NoError(t, err)
	require.Equal(t, "alice", transition.Bye)

	// bob beats carol; round 2 bye goes to the lowest scorer without a prior
	// bye, which is carol
	res := resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)
	require.NotNil(t, res.Transition)
	assert.Equal(t, "carol", res.Transition.Bye)

	// round 2 pairing alice vs bob, alice wins; round 3 bye falls to bob, the
	// only player still without one
	res = resolve(t, s, res.Transition.Pairings[0], shared.OutcomeAWins)
	require.NotNil(t, res.Transition)
	assert.Equal(t, "bob", res.Transition.Bye)
}

func TestGenerateRound_SecondByeOnlyWhenAllHadOne(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"alice", "bob", "carol"}, 6)
	require.NoError(t, err)
	t.Log("running three rounds so every player receives a bye")

	for round := 1; round <= 3; round++ {
		m := s.Tournament().Pairings[round][1] // index 0 is the bye match
		resolve(t, s, m, shared.OutcomeAWins)
	}

	require.Equal(t, 4, s.Tournament().Round)
	tournament := s.Tournament()
	for _, p := range []string{"alice", "bob", "carol"} {
		assert.True(t, tournament.Byes[p])
	}
	// round 4 still needs a bye; the lowest scorer receives a second one
	byeMatch := tournament.Pairings[4][0]
	assert.True(t, byeMatch.Bye)
}

// endregion

// region round progression tests

func TestAdvanceRoundIfReady_IncompleteRound(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)

	transition, err := s.AdvanceRoundIfReady()

	require.NoError(t, err)
	assert.Nil(t, transition)
	assert.Equal(t, 1, s.Tournament().Round)
}

func TestAdvanceRoundIfReady_NoTournament(t *testing.T) {
	s := NewState(nil)

	_, err := s.AdvanceRoundIfReady()

	assert.ErrorIs(t, err, ErrTournamentNotActive)
}

func TestMaybeAdvanceRound_FinishesAtTargetAndCrownsChampion(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"alice", "bob"}, 1)
	require.NoError(t, err)

	res := resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)

	require.NotNil(t, res.Transition)
	assert.True(t, res.Transition.Finished)
	assert.Equal(t, "alice", res.Transition.Champion)
	assert.Equal(t, PhaseFinished, s.Tournament().Phase)
}

func TestChampion_DrawTieBreaksOnID(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"bob", "alice"}, 1)
	require.NoError(t, err)

	res := resolve(t, s, transition.Pairings[0], shared.OutcomeDraw)

	require.NotNil(t, res.Transition)
	assert.Equal(t, "alice", res.Transition.Champion)
}

func TestScoreConservation(t *testing.T) {
	// every resolved pairing (win, draw or bye) contributes exactly one point
	// to the score pool
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 2)
	require.NoError(t, err)

	resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)
	res := resolve(t, s, transition.Pairings[1], shared.OutcomeDraw)
	require.NotNil(t, res.Transition)
	resolve(t, s, res.Transition.Pairings[0], shared.OutcomeAWins)
	resolve(t, s, res.Transition.Pairings[1], shared.OutcomeDraw)

	total := 0.0
	for _, score := range s.Tournament().Scores {
		total += score
	}
	assert.Equal(t, 4.0, total, "4 resolved pairings, one point each")
}

// endregion

// region rounds override tests

func TestOverrideRoundsTarget_Replaces(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"alice", "bob", "carol", "dave"}, 3)
	require.NoError(t, err)

	require.NoError(t, s.OverrideRoundsTarget(5))

	assert.Equal(t, 5, s.Tournament().RoundsTarget)
}

func TestOverrideRoundsTarget_ClampsToCurrentRound(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"alice", "bob"}, 3)
	require.NoError(t, err)
	res := resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)
	require.Equal(t, 2, res.Transition.Round)

	require.NoError(t, s.OverrideRoundsTarget(1))

	assert.Equal(t, 2, s.Tournament().RoundsTarget)
}

func TestOverrideRoundsTarget_Validation(t *testing.T) {
	s := NewState(nil)
	assert.ErrorIs(t, s.OverrideRoundsTarget(3), ErrTournamentNotActive)

	_, err := s.StartTournament([]string{"alice", "bob"}, 3)
	require.NoError(t, err)
	assert.Error(t, s.OverrideRoundsTarget(0))
}

// endregion

// region withdrawal tests

func TestWithdraw_AwardsWalkoverWin(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)

	res, err := s.Withdraw("p3")

	require.NoError(t, err)
	require.Len(t, res.Walkovers, 1)
	assert.True(t, res.Walkovers[0].Walkover)
	assert.Equal(t, 1.0, s.Tournament().Scores["p4"])
	assert.Equal(t, 0.0, s.Tournament().Scores["p3"])
	assert.Nil(t, res.Transition, "p1 vs p2 is still unresolved")
}

func TestWithdraw_ExcludedFromFuturePairings(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)
	_, err = s.Withdraw("p3")
	require.NoError(t, err)

	res := resolve(t, s, pairingFor(t, s, "p1"), shared.OutcomeAWins)

	require.NotNil(t, res.Transition)
	for _, m := range res.Transition.Pairings {
		assert.NotEqual(t, "p3", m.PlayerA)
		assert.NotEqual(t, "p3", m.PlayerB)
	}
	assert.NotEqual(t, "p3", res.Transition.Bye)
}

func TestWithdraw_CompletingRoundAdvances(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)
	resolve(t, s, transition.Pairings[0], shared.OutcomeAWins)

	res, err := s.Withdraw("p3")

	require.NoError(t, err)
	require.NotNil(t, res.Transition)
	assert.Equal(t, 2, res.Transition.Round)
}

func TestWithdraw_NotEnrolled(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"p1", "p2"}, 3)
	require.NoError(t, err)

	_, err = s.Withdraw("mallory")

	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestWithdraw_WalkoverCountsAsPlayed(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)

	_, err = s.Withdraw("p3")

	require.NoError(t, err)
	assert.True(t, s.Tournament().Played["p4"]["p3"])
	assert.True(t, s.Tournament().Played["p3"]["p4"])
}

func TestWithdraw_SoleRemainingPlayerFinishesTournament(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"p1", "p2", "p3"}, 3)
	require.NoError(t, err)

	// round 1: p1 takes the bye, p2 vs p3 resolves as a walkover for p3
	_, err = s.Withdraw("p2")
	require.NoError(t, err)
	require.Equal(t, 2, s.Tournament().Round)

	// round 2 paired p1 vs p3; with p3 gone only p1 remains, so every later
	// round would be a lone pre-resolved bye and no report event is coming
	res, err := s.Withdraw("p3")

	require.NoError(t, err)
	require.NotNil(t, res.Transition)
	assert.True(t, res.Transition.Finished)
	assert.Equal(t, "p1", res.Transition.Champion)
	assert.Equal(t, PhaseFinished, s.Tournament().Phase)
}

func TestWithdraw_ScoreEntryPersistsInStandings(t *testing.T) {
	s := NewState(nil)
	transition, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)
	resolve(t, s, transition.Pairings[1], shared.OutcomeAWins) // p3 beats p4
	_, err = s.Withdraw("p3")
	require.NoError(t, err)

	// the withdrawn player keeps their historical score but cannot win
	assert.Equal(t, 1.0, s.Tournament().Scores["p3"])
	snap := s.Snapshot()
	require.NotNil(t, snap.Tournament)
	var found bool
	for _, row := range snap.Tournament.Standings {
		if row.PlayerID == "p3" {
			found = true
			assert.True(t, row.Withdrawn)
		}
	}
	assert.True(t, found)
}

// endregion

// region cancellation tests

func TestCancelTournament_DiscardsStateWithoutChampion(t *testing.T) {
	s := NewState(nil)
	_, err := s.StartTournament([]string{"alice", "bob"}, 2)
	require.NoError(t, err)

	require.NoError(t, s.CancelTournament())

	assert.Nil(t, s.Tournament())
	assert.ErrorIs(t, s.CancelTournament(), ErrTournamentNotActive)
}

// endregion
