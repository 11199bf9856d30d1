/* cancel.go
 * Contains the mutual cancellation protocol. Either participant of an open match may request
 * cancellation; the match is only removed once the other participant explicitly accepts.
 * Requests expire after a bounded window and never mutate scores.
 * Authors: Zachary Bower
 */

package engine

import (
	"sort"
	"time"
)

// CancelWindow bounds how long a cancellation request stays pending before the
// external expiry sweep restores the match to fully open.
const CancelWindow = 45 * time.Second

// CancelRequest is a pending request to void a match, keyed by match ID.
// At most one request exists per match at a time.
type CancelRequest struct {
	MatchID     string
	RequesterID string
	ExpiresAt   time.Time
}

// CancelResolution reports the effect of responding to a cancellation request
type CancelResolution struct {
	Accepted   bool
	Match      *Match
	Tournament bool
	// Transition is non-nil when voiding a tournament pairing completed the round
	Transition *RoundTransition
}

// RequestCancellation files a cancellation request for an open match on behalf
// of one of its participants. While the request is pending, reporting stays
// fully available; only an explicit acceptance removes the match.
func (s *State) RequestCancellation(matchID, requesterID string) (*CancelRequest, error) {
	m, _, err := s.findOpenMatch(matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasPlayer(requesterID) {
		return nil, ErrNotAParticipant
	}
	if existing, ok := s.cancels[matchID]; ok && existing.ExpiresAt.After(s.clock.Now()) {
		return nil, ErrCancellationPending
	}
	req := &CancelRequest{
		MatchID:     matchID,
		RequesterID: requesterID,
		ExpiresAt:   s.clock.Now().Add(CancelWindow),
	}
	s.cancels[matchID] = req
	return req, nil
}

// RespondCancellation resolves a pending request. Only the participant who did
// not file the request may respond. Accepting voids the match with no score
// effect; declining leaves the match open and reporting continues normally.
func (s *State) RespondCancellation(matchID, responderID string, accept bool) (*CancelResolution, error) {
	req, ok := s.cancels[matchID]
	if !ok {
		return nil, ErrNoPendingCancellation
	}
	if !req.ExpiresAt.After(s.clock.Now()) {
		delete(s.cancels, matchID)
		return nil, ErrNoPendingCancellation
	}
	m, isTournament, err := s.findOpenMatch(matchID)
	if err != nil {
		delete(s.cancels, matchID)
		return nil, err
	}
	if !m.HasPlayer(responderID) || responderID == req.RequesterID {
		return nil, ErrNotAParticipant
	}

	delete(s.cancels, matchID)
	if !accept {
		return &CancelResolution{Accepted: false, Match: m, Tournament: isTournament}, nil
	}

	res := &CancelResolution{Accepted: true, Match: m, Tournament: isTournament}
	if !isTournament {
		delete(s.casual, m.ID)
		return res, nil
	}
	// A voided pairing counts as finalized for round completion but awards no
	// score and records no opponent history.
	m.Resolved = true
	m.Voided = true
	res.Transition = s.maybeAdvanceRound()
	return res, nil
}

// PendingCancellationFor returns the pending request a player may respond to,
// i.e. one filed by their opponent on a match they participate in. Returns nil
// when there is none; expired requests are ignored.
func (s *State) PendingCancellationFor(playerID string) *CancelRequest {
	now := s.clock.Now()
	var found *CancelRequest
	for _, req := range s.cancels {
		if !req.ExpiresAt.After(now) || req.RequesterID == playerID {
			continue
		}
		m, _, err := s.findOpenMatch(req.MatchID)
		if err != nil || !m.HasPlayer(playerID) {
			continue
		}
		if found == nil || req.MatchID < found.MatchID {
			found = req
		}
	}
	return found
}

// ExpireCancellations drops every request past its expiry window and returns
// the affected match IDs so the caller can notify the participants. Expiry
// leaves no residual state: the match is fully open and reportable again.
func (s *State) ExpireCancellations() []string {
	now := s.clock.Now()
	var expired []string
	for id, req := range s.cancels {
		if !req.ExpiresAt.After(now) {
			delete(s.cancels, id)
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}
