/* bot.go
 * Contains logic used for creating the bot. Requires a discord bot token and APIPtr, both of which
 * are passed in from main.go. Runtime-only session handling lives in bot_runtime.go.
 * Authors: Zachary Bower
 */

package bot

import (
	"fmt"

	"gamenight-bot/api/api"
)

type Bot struct {
	BotToken string
	OwnerID  string
	APIPtr   *api.API
}

func NewBot(botToken string, ownerID string, apiPtr *api.API) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if apiPtr == nil {
		return nil, fmt.Errorf("apiPtr is required but none was provided")
	}

	return &Bot{
		BotToken: botToken,
		OwnerID:  ownerID,
		APIPtr:   apiPtr,
	}, nil
}

// isOwner reports whether the author may run operator commands
func (b *Bot) isOwner(userID string) bool {
	return b.OwnerID != "" && userID == b.OwnerID
}
