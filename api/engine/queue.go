/* queue.go
 * Contains the FIFO queue matchmaker. Matching is event driven: a successful enqueue
 * immediately pairs off the head of the queue, so there is no background polling loop.
 * Authors: Zachary Bower
 */

package engine

import "gamenight-bot/api/shared"

// Enqueue adds a player to the tail of the waiting queue. It is an idempotent
// no-op if the player is already queued. Whenever the queue reaches two or more
// players, the two at the head are removed and a casual match is created for
// them; created matches are returned so the caller can notify the participants.
func (s *State) Enqueue(playerID string) (bool, []*Match) {
	for _, queued := range s.queue {
		if queued == playerID {
			return false, nil
		}
	}
	s.queue = append(s.queue, playerID)
	return true, s.tryMatch()
}

// Dequeue removes a queued player and reports whether removal happened
func (s *State) Dequeue(playerID string) bool {
	for i, queued := range s.queue {
		if queued == playerID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

// QueueSnapshot returns a copy of the waiting queue in join order
func (s *State) QueueSnapshot() []string {
	snapshot := make([]string, len(s.queue))
	copy(snapshot, s.queue)
	return snapshot
}

// tryMatch repeatedly pops the two earliest-joined players and creates an open
// casual match for them, until fewer than two players remain. Removal from the
// queue and creation of the match happen in the same step, so no player can be
// matched twice from one cycle.
func (s *State) tryMatch() []*Match {
	var created []*Match
	for len(s.queue) >= 2 {
		a, b := s.queue[0], s.queue[1]
		s.queue = s.queue[2:]
		m := &Match{
			ID:        newMatchID("m"),
			PlayerA:   a,
			PlayerB:   b,
			Reports:   make(map[string]shared.Outcome),
			CreatedAt: s.clock.Now(),
		}
		s.casual[m.ID] = m
		created = append(created, m)
	}
	return created
}
