/* notifier.go
 * Contains the DM notifier the API uses to reach players. Discord rate limits direct messages,
 * so sends go through a token bucket; delivery is fire-and-forget and failures only get logged.
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// DMNotifier delivers API notifications as Discord direct messages
type DMNotifier struct {
	session DiscordSession
	limiter *rate.Limiter
}

// NewDMNotifier wraps a session in a rate-limited notifier
func NewDMNotifier(session DiscordSession) *DMNotifier {
	return &DMNotifier{
		session: session,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 5),
	}
}

// Notify sends the message to each player's DM channel in the background.
// State has already been committed by the time this is called, so a failed
// delivery never affects match or tournament state.
func (n *DMNotifier) Notify(playerIDs []string, message string) {
	recipients := append([]string(nil), playerIDs...)
	go func() {
		for _, recipientID := range recipients {
			if err := n.limiter.Wait(context.Background()); err != nil {
				return
			}
			channel, err := n.session.UserChannelCreate(recipientID)
			if err != nil {
				log.Println("could not open DM channel for", recipientID, ":", err)
				continue
			}
			if _, err := n.session.ChannelMessageSend(channel.ID, message); err != nil {
				log.Println("could not DM", recipientID, ":", err)
			}
		}
	}()
}
