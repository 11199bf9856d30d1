/* cancel_test.go
 * Contains unit tests for the mutual cancellation protocol, using the fake clock to drive
 * the expiry window
 * Authors: Zachary Bower
 */

package engine

import (
	"testing"
	"time"

	"gamenight-bot/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCasualMatchWithClock creates one open casual match on a controllable clock
func newCasualMatchWithClock(t *testing.T) (*State, *Match, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := NewState(clock)
	s.Enqueue("alice")
	_, created := s.Enqueue("bob")
	require.Len(t, created, 1)
	return s, created[0], clock
}

// region RequestCancellation tests

func TestRequestCancellation_Success(t *testing.T) {
	s, m, clock := newCasualMatchWithClock(t)

	req, err := s.RequestCancellation(m.ID, "alice")

	require.NoError(t, err)
	assert.Equal(t, m.ID, req.MatchID)
	assert.Equal(t, "alice", req.RequesterID)
	assert.Equal(t, clock.Now().Add(CancelWindow), req.ExpiresAt)
}

func TestRequestCancellation_UnknownMatch(t *testing.T) {
	s := NewState(nil)

	_, err := s.RequestCancellation("m-missing", "alice")

	assert.ErrorIs(t, err, ErrUnknownMatch)
}

func TestRequestCancellation_NotAParticipant(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)

	_, err := s.RequestCancellation(m.ID, "mallory")

	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestRequestCancellation_SecondRequestRejectedWhilePending(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	_, err = s.RequestCancellation(m.ID, "bob")

	assert.ErrorIs(t, err, ErrCancellationPending)
}

func TestRequestCancellation_AllowedAgainAfterExpiry(t *testing.T) {
	s, m, clock := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	clock.advance(CancelWindow + time.Second)

	_, err = s.RequestCancellation(m.ID, "bob")
	assert.NoError(t, err)
}

func TestRequestCancellation_ReportingStaysAvailable(t *testing.T) {
	// a pending request must not block the normal reporting path
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	s.ReportOutcome(m.ID, "alice", shared.OutcomeAWins)
	res, err := s.ReportOutcome(m.ID, "bob", shared.OutcomeAWins)

	require.NoError(t, err)
	assert.Equal(t, ReportResolved, res.Status)
}

// endregion

// region RespondCancellation tests

func TestRespondCancellation_AcceptRemovesCasualMatch(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	res, err := s.RespondCancellation(m.ID, "bob", true)

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	_, reportErr := s.ReportOutcome(m.ID, "alice", shared.OutcomeAWins)
	assert.ErrorIs(t, reportErr, ErrUnknownMatch, "a cancelled match is no longer reportable")
}

func TestRespondCancellation_DeclineKeepsMatchOpen(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	res, err := s.RespondCancellation(m.ID, "bob", false)

	require.NoError(t, err)
	assert.False(t, res.Accepted)
	s.ReportOutcome(m.ID, "alice", shared.OutcomeAWins)
	report, err := s.ReportOutcome(m.ID, "bob", shared.OutcomeAWins)
	require.NoError(t, err)
	assert.Equal(t, ReportResolved, report.Status)
}

func TestRespondCancellation_RequesterCannotRespond(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	_, err = s.RespondCancellation(m.ID, "alice", true)

	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestRespondCancellation_NoPendingRequest(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)

	_, err := s.RespondCancellation(m.ID, "bob", true)

	assert.ErrorIs(t, err, ErrNoPendingCancellation)
}

func TestRespondCancellation_ExpiredRequestIsGone(t *testing.T) {
	s, m, clock := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	clock.advance(CancelWindow + time.Second)

	_, err = s.RespondCancellation(m.ID, "bob", true)
	assert.ErrorIs(t, err, ErrNoPendingCancellation)
}

func TestRespondCancellation_VoidedTournamentPairingCountsForRound(t *testing.T) {
	s := NewState(newFakeClock())
	transition, err := s.StartTournament([]string{"p1", "p2", "p3", "p4"}, 3)
	require.NoError(t, err)

	// p1 beats p2; p3 and p4 agree to cancel their pairing
	_, err = s.ReportOutcome(transition.Pairings[0].ID, "p1", shared.OutcomeAWins)
	require.NoError(t, err)
	_, err = s.ReportOutcome(transition.Pairings[0].ID, "p2", shared.OutcomeAWins)
	require.NoError(t, err)

	cancelled := transition.Pairings[1]
	_, err = s.RequestCancellation(cancelled.ID, "p3")
	require.NoError(t, err)
	res, err := s.RespondCancellation(cancelled.ID, "p4", true)

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, cancelled.Voided)
	assert.Equal(t, 0.0, s.Tournament().Scores["p3"], "cancellation never awards points")
	assert.Equal(t, 0.0, s.Tournament().Scores["p4"])
	require.NotNil(t, res.Transition, "the voided pairing completed the round")
	assert.Equal(t, 2, res.Transition.Round)
}

// endregion

// region PendingCancellationFor tests

func TestPendingCancellationFor_OpponentSeesRequest(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	req := s.PendingCancellationFor("bob")

	require.NotNil(t, req)
	assert.Equal(t, m.ID, req.MatchID)
}

func TestPendingCancellationFor_RequesterSeesNothing(t *testing.T) {
	s, m, _ := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	assert.Nil(t, s.PendingCancellationFor("alice"))
}

func TestPendingCancellationFor_ExpiredIgnored(t *testing.T) {
	s, m, clock := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	clock.advance(CancelWindow + time.Second)

	assert.Nil(t, s.PendingCancellationFor("bob"))
}

// endregion

// region ExpireCancellations tests

func TestExpireCancellations_DropsTimedOutRequests(t *testing.T) {
	s, m, clock := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	clock.advance(CancelWindow + time.Second)
	expired := s.ExpireCancellations()

	assert.Equal(t, []string{m.ID}, expired)
	assert.Empty(t, s.ExpireCancellations(), "expiry leaves no residual state")
}

func TestExpireCancellations_KeepsLiveRequests(t *testing.T) {
	s, m, clock := newCasualMatchWithClock(t)
	_, err := s.RequestCancellation(m.ID, "alice")
	require.NoError(t, err)

	clock.advance(CancelWindow / 2)

	assert.Empty(t, s.ExpireCancellations())
	assert.NotNil(t, s.PendingCancellationFor("bob"))
}

// endregion
