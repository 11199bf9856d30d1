/* handlers.go
 * Contains testable handler methods that accept the DiscordSession interface. The runtime
 * wrapper in bot_runtime.go forwards real discordgo events here.
 * Authors: Zachary Bower
 */

package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gamenight-bot/api/engine"
	"gamenight-bot/api/logic"
	"gamenight-bot/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
)

// newMessageHandler routes messages to the appropriate handlers.
// botUserID is the bot's user ID to prevent self-responses.
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	// Prevent bot from responding to its own messages
	if message.Author.ID == botUserID {
		return
	}

	// Route to appropriate handler. Longer command words come first so
	// prefixes like !decklist do not shadow !decklists.
	switch {
	case startsWith(message.Content, "!help"):
		b.helpMessageHandler(session, message)

	case startsWith(message.Content, "!join"):
		b.joinHandler(session, message)

	case startsWith(message.Content, "!leave"):
		b.leaveHandler(session, message)

	case startsWith(message.Content, "!queue"):
		b.queueHandler(session, message)

	case startsWith(message.Content, "!matches"):
		b.matchesHandler(session, message)

	case startsWith(message.Content, "!report"):
		b.reportHandler(session, message)

	case startsWith(message.Content, "!cancelmatch"):
		b.cancelMatchHandler(session, message)

	case startsWith(message.Content, "!accept"):
		b.respondCancellationHandler(session, message, true)

	case startsWith(message.Content, "!decline"):
		b.respondCancellationHandler(session, message, false)

	case startsWith(message.Content, "!ranking"):
		b.rankingHandler(session, message)

	case startsWith(message.Content, "!champions"):
		b.championsHandler(session, message)

	case startsWith(message.Content, "!history"):
		b.historyHandler(session, message)

	case startsWith(message.Content, "!tournament"):
		b.tournamentHandler(session, message)

	case startsWith(message.Content, "!decklists"):
		b.exportDecklistsHandler(session, message)

	case startsWith(message.Content, "!decklist"):
		b.decklistHandler(session, message)

	case startsWith(message.Content, "!resetranking"):
		b.resetRankingHandler(session, message)
	}
}

// helpMessageHandler handles the !help command
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("Game Night Bot\n")
	res.WriteString("`!join` / `!leave`: enter or leave the casual queue. Two queued players are paired automatically\n")
	res.WriteString("`!report <win|loss|draw> [matchID]`: report your result. Both players must report the same outcome for it to count\n")
	res.WriteString("`!cancelmatch [matchID]`: ask your opponent to cancel the match; they confirm with `!accept` or `!decline`\n")
	res.WriteString("`!queue` / `!matches`: show the waiting queue and your open matches\n")
	res.WriteString("`!ranking`: casual win ranking (resets monthly). `!champions`: tournament championships. `!history`: recent casual results\n")
	res.WriteString("`!tournament enter|exit|withdraw|status|standings`: player tournament commands\n")
	res.WriteString("`!tournament open|begin [rounds]|start <players>|rounds <n>|advance|cancel`: organizer commands\n")
	res.WriteString("`!decklist <text>`: submit your decklist while enrolled. `!decklists`: organizer export\n")
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// joinHandler handles the !join command: enqueue and, when a second player is
// waiting, pair immediately
func (b *Bot) joinHandler(session DiscordSession, message *discordgo.MessageCreate) {
	added, matched := b.APIPtr.Enqueue(message.Author.ID)
	var res string
	switch {
	case !added:
		res = fmt.Sprintf("%s is already in the queue", message.Author.Username)
	case len(matched) > 0:
		m := matched[len(matched)-1]
		res = fmt.Sprintf("Matched! <@%s> vs <@%s> (match %s). Check your DMs for reporting instructions", m.PlayerA, m.PlayerB, m.ID)
	default:
		res = fmt.Sprintf("%s joined the queue, waiting for an opponent", message.Author.Username)
	}
	session.ChannelMessageSend(message.ChannelID, res)
}

// leaveHandler handles the !leave command
func (b *Bot) leaveHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if b.APIPtr.DequeueFromQueue(message.Author.ID) {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s left the queue", message.Author.Username))
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s is not in the queue", message.Author.Username))
}

// queueHandler handles the !queue command
func (b *Bot) queueHandler(session DiscordSession, message *discordgo.MessageCreate) {
	snap := b.APIPtr.GetSnapshot()
	if len(snap.Engine.Queue) == 0 {
		session.ChannelMessageSend(message.ChannelID, "The queue is empty")
		return
	}
	var res strings.Builder
	res.WriteString("Waiting queue:\n")
	for i, playerID := range snap.Engine.Queue {
		res.WriteString(fmt.Sprintf("%d. <@%s>\n", i+1, playerID))
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// matchesHandler handles the !matches command, listing the caller's open matches
func (b *Bot) matchesHandler(session DiscordSession, message *discordgo.MessageCreate) {
	matches := b.APIPtr.OpenMatchesFor(message.Author.ID)
	if len(matches) == 0 {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s has no open matches", message.Author.Username))
		return
	}
	var res strings.Builder
	res.WriteString(fmt.Sprintf("Open matches for %s:\n", message.Author.Username))
	for _, m := range matches {
		if m.Round > 0 {
			res.WriteString(fmt.Sprintf("- %s (tournament round %d): <@%s> vs <@%s>\n", m.ID, m.Round, m.PlayerA, m.PlayerB))
		} else {
			res.WriteString(fmt.Sprintf("- %s: <@%s> vs <@%s>\n", m.ID, m.PlayerA, m.PlayerB))
		}
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// reportHandler handles the !report command. The result word is reporter
// relative (win, loss, draw) and is converted to the match outcome based on
// which side the reporter plays.
func (b *Bot) reportHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args := splitArgs(message.Content)
	if len(args) < 2 {
		session.ChannelMessageSend(message.ChannelID, "Usage: !report <win|loss|draw> [matchID]")
		return
	}
	word, err := logic.NormalizeOutcome(args[1])
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, err.Error())
		return
	}

	var matchID string
	if len(args) > 2 {
		matchID = args[2]
	}
	match, errMsg := b.resolveMatch(message.Author.ID, matchID)
	if errMsg != "" {
		session.ChannelMessageSend(message.ChannelID, errMsg)
		return
	}

	outcome, err := logic.RelativeOutcome(word, match.PlayerA == message.Author.ID)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, err.Error())
		return
	}

	res, err := b.APIPtr.ReportOutcome(match.ID, message.Author.ID, outcome)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, reportErrorMessage(err))
		return
	}

	switch res.Status {
	case engine.ReportAwaitingOpponent:
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Result recorded for match %s, awaiting your opponent's report", match.ID))
	case engine.ReportDisagreement:
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("The reports for match %s disagree. Both players must resubmit the same outcome", match.ID))
	case engine.ReportResolved:
		if res.Draw {
			session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Match %s confirmed as a draw", match.ID))
		} else {
			session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Match %s confirmed: <@%s> won", match.ID, res.Winner))
		}
	}
}

// cancelMatchHandler handles the !cancelmatch command
func (b *Bot) cancelMatchHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args := splitArgs(message.Content)
	var matchID string
	if len(args) > 1 {
		matchID = args[1]
	}
	match, errMsg := b.resolveMatch(message.Author.ID, matchID)
	if errMsg != "" {
		session.ChannelMessageSend(message.ChannelID, errMsg)
		return
	}

	_, err := b.APIPtr.RequestCancellation(match.ID, message.Author.ID)
	if err != nil {
		if errors.Is(err, engine.ErrCancellationPending) {
			session.ChannelMessageSend(message.ChannelID, "A cancellation request is already pending for that match")
			return
		}
		session.ChannelMessageSend(message.ChannelID, reportErrorMessage(err))
		return
	}
	session.ChannelMessageSend(message.ChannelID,
		fmt.Sprintf("Cancellation requested for match %s. Your opponent must reply with !accept or !decline", match.ID))
}

// respondCancellationHandler handles !accept and !decline
func (b *Bot) respondCancellationHandler(session DiscordSession, message *discordgo.MessageCreate, accept bool) {
	req := b.APIPtr.PendingCancellationFor(message.Author.ID)
	if req == nil {
		session.ChannelMessageSend(message.ChannelID, "There is no cancellation request waiting for your answer")
		return
	}
	res, err := b.APIPtr.RespondCancellation(req.MatchID, message.Author.ID, accept)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, reportErrorMessage(err))
		return
	}
	if res.Accepted {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Match %s cancelled by mutual agreement", req.MatchID))
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Cancellation declined, match %s stays open", req.MatchID))
}

// rankingHandler handles the !ranking command (casual wins)
func (b *Bot) rankingHandler(session DiscordSession, message *discordgo.MessageCreate) {
	snap := b.APIPtr.GetSnapshot()
	if len(snap.CasualRanking) == 0 {
		session.ChannelMessageSend(message.ChannelID, "No casual wins recorded yet")
		return
	}
	var res strings.Builder
	res.WriteString("Casual win ranking:\n")
	for i, entry := range snap.CasualRanking {
		res.WriteString(fmt.Sprintf("%d. <@%s> — %d wins\n", i+1, entry.PlayerID, entry.Wins))
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// championsHandler handles the !champions command (tournament championships)
func (b *Bot) championsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	snap := b.APIPtr.GetSnapshot()
	if len(snap.ChampionshipRanking) == 0 {
		session.ChannelMessageSend(message.ChannelID, "No tournament championships recorded yet")
		return
	}
	var res strings.Builder
	res.WriteString("Tournament champions:\n")
	for i, entry := range snap.ChampionshipRanking {
		res.WriteString(fmt.Sprintf("%d. <@%s> — %d titles\n", i+1, entry.PlayerID, entry.Wins))
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// historyHandler handles the !history command
func (b *Bot) historyHandler(session DiscordSession, message *discordgo.MessageCreate) {
	entries, err := b.APIPtr.GetRecentHistory(10)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, "An error occurred getting the match history")
		return
	}
	if len(entries) == 0 {
		session.ChannelMessageSend(message.ChannelID, "No casual matches have been played yet")
		return
	}
	var res strings.Builder
	res.WriteString("Recent casual matches:\n")
	for _, entry := range entries {
		if entry.Draw {
			res.WriteString(fmt.Sprintf("- <@%s> vs <@%s>: draw\n", entry.PlayerA, entry.PlayerB))
		} else {
			res.WriteString(fmt.Sprintf("- <@%s> beat <@%s>\n", entry.Winner, entry.Loser))
		}
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// tournamentHandler handles every !tournament subcommand
func (b *Bot) tournamentHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args := splitArgs(message.Content)
	action := ""
	if len(args) > 1 {
		action = strings.ToLower(args[1])
	}

	switch action {
	case "open":
		if !b.requireOwner(session, message) {
			return
		}
		if err := b.APIPtr.OpenTournamentSignup(); err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		session.ChannelMessageSend(message.ChannelID, "Tournament signup is open. Enter with !tournament enter and submit your decklist with !decklist")

	case "enter":
		added, err := b.APIPtr.EnrollInTournament(message.Author.ID)
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		if !added {
			session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s is already enrolled", message.Author.Username))
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s enrolled in the tournament", message.Author.Username))

	case "exit":
		removed, err := b.APIPtr.UnenrollFromTournament(message.Author.ID)
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		if !removed {
			session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s was not enrolled", message.Author.Username))
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s left the tournament signup", message.Author.Username))

	case "begin":
		if !b.requireOwner(session, message) {
			return
		}
		rounds := 0
		if len(args) > 2 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil {
				session.ChannelMessageSend(message.ChannelID, "Usage: !tournament begin [rounds]")
				return
			}
			rounds = parsed
		}
		transition, err := b.APIPtr.BeginTournament(rounds)
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		session.ChannelMessageSend(message.ChannelID, describeTransition(transition))

	case "start":
		if !b.requireOwner(session, message) {
			return
		}
		playerIDs := logic.ParsePlayerIDs(args[2:])
		transition, err := b.APIPtr.StartTournament(playerIDs, 0)
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		session.ChannelMessageSend(message.ChannelID, describeTransition(transition))

	case "rounds":
		if !b.requireOwner(session, message) {
			return
		}
		if len(args) < 3 {
			session.ChannelMessageSend(message.ChannelID, "Usage: !tournament rounds <n>")
			return
		}
		rounds, err := strconv.Atoi(args[2])
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, "Usage: !tournament rounds <n>")
			return
		}
		if err := b.APIPtr.SetRoundsTarget(rounds); err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Rounds target set to %d", rounds))

	case "withdraw":
		if _, err := b.APIPtr.WithdrawFromTournament(message.Author.ID); err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		session.ChannelMessageSend(message.ChannelID,
			fmt.Sprintf("%s withdrew from the tournament. Current-round opponents receive automatic wins", message.Author.Username))

	case "cancel":
		if !b.requireOwner(session, message) {
			return
		}
		if err := b.APIPtr.CancelTournament(); err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		session.ChannelMessageSend(message.ChannelID, "Tournament cancelled. No championship was awarded")

	case "advance":
		if !b.requireOwner(session, message) {
			return
		}
		transition, err := b.APIPtr.AdvanceRoundIfReady()
		if err != nil {
			session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
			return
		}
		if transition == nil {
			session.ChannelMessageSend(message.ChannelID, "The current round still has unresolved matches")
			return
		}
		session.ChannelMessageSend(message.ChannelID, describeTransition(transition))

	case "status", "standings":
		b.tournamentStatusHandler(session, message)

	default:
		session.ChannelMessageSend(message.ChannelID,
			"Usage: !tournament open|enter|exit|begin [rounds]|start <players>|rounds <n>|withdraw|cancel|advance|status|standings")
	}
}

// tournamentStatusHandler renders the tournament snapshot
func (b *Bot) tournamentStatusHandler(session DiscordSession, message *discordgo.MessageCreate) {
	snap := b.APIPtr.GetSnapshot()
	t := snap.Engine.Tournament
	if t == nil {
		session.ChannelMessageSend(message.ChannelID, "No tournament is active")
		return
	}

	var res strings.Builder
	res.WriteString(fmt.Sprintf("Tournament: %s", t.Phase))
	if t.Round > 0 {
		res.WriteString(fmt.Sprintf(", round %d of %d", t.Round, t.RoundsTarget))
	}
	res.WriteString(fmt.Sprintf(", %d players\n", len(t.Players)))
	if t.Champion != "" {
		res.WriteString(fmt.Sprintf("Champion: <@%s>\n", t.Champion))
	}
	for i, row := range t.Standings {
		line := fmt.Sprintf("%d. <@%s> — %.1f points", i+1, row.PlayerID, row.Score)
		if row.HadBye {
			line += " (had bye)"
		}
		if row.Withdrawn {
			line += " (withdrew)"
		}
		res.WriteString(line + "\n")
	}
	if len(t.OpenPairings) > 0 {
		res.WriteString("Open pairings this round:\n")
		for _, m := range t.OpenPairings {
			res.WriteString(fmt.Sprintf("- %s: <@%s> vs <@%s>\n", m.ID, m.PlayerA, m.PlayerB))
		}
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// decklistHandler handles the !decklist command. Everything after the command
// word is stored verbatim as the player's decklist.
func (b *Bot) decklistHandler(session DiscordSession, message *discordgo.MessageCreate) {
	list := strings.TrimSpace(strings.TrimPrefix(message.Content, "!decklist"))
	if list == "" {
		session.ChannelMessageSend(message.ChannelID, "Usage: !decklist <your decklist text>")
		return
	}
	if err := b.APIPtr.SubmitDecklist(message.Author.ID, list); err != nil {
		session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Decklist received for %s", message.Author.Username))
}

// exportDecklistsHandler handles the !decklists command
func (b *Bot) exportDecklistsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if !b.requireOwner(session, message) {
		return
	}
	export, err := b.APIPtr.ExportDecklists()
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, tournamentErrorMessage(err))
		return
	}
	session.ChannelMessageSend(message.ChannelID, export)
}

// resetRankingHandler handles the !resetranking command
func (b *Bot) resetRankingHandler(session DiscordSession, message *discordgo.MessageCreate) {
	if !b.requireOwner(session, message) {
		return
	}
	args := splitArgs(message.Content)
	if len(args) < 2 {
		session.ChannelMessageSend(message.ChannelID, "Usage: !resetranking <casual|tournament>")
		return
	}
	kind := shared.RankingKind(strings.ToLower(args[1]))
	if !kind.Valid() {
		session.ChannelMessageSend(message.ChannelID, "Usage: !resetranking <casual|tournament>")
		return
	}
	reset, err := b.APIPtr.ResetRankings(kind)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, "An error occurred resetting the ranking")
		return
	}
	if !reset {
		session.ChannelMessageSend(message.ChannelID, "That ranking was already reset today")
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("The %s ranking has been reset", kind))
}

// resolveMatch finds the open match a command refers to. With an explicit ID
// the caller must participate in it; without one there must be exactly one
// open match for the caller.
func (b *Bot) resolveMatch(playerID, matchID string) (engine.MatchView, string) {
	matches := b.APIPtr.OpenMatchesFor(playerID)
	if matchID != "" {
		for _, m := range matches {
			if m.ID == matchID {
				return m, ""
			}
		}
		return engine.MatchView{}, fmt.Sprintf("No open match %s found for you", matchID)
	}
	switch len(matches) {
	case 0:
		return engine.MatchView{}, "You have no open match"
	case 1:
		return matches[0], ""
	}
	var res strings.Builder
	res.WriteString("You have more than one open match, specify the match ID:\n")
	for _, m := range matches {
		res.WriteString(fmt.Sprintf("- %s: <@%s> vs <@%s>\n", m.ID, m.PlayerA, m.PlayerB))
	}
	return engine.MatchView{}, res.String()
}

// requireOwner gates operator commands behind the configured owner ID
func (b *Bot) requireOwner(session DiscordSession, message *discordgo.MessageCreate) bool {
	if b.isOwner(message.Author.ID) {
		return true
	}
	session.ChannelMessageSend(message.ChannelID, "Only the organizer can use this command")
	return false
}

// describeTransition renders a round transition for the channel
func describeTransition(transition *engine.RoundTransition) string {
	if transition == nil {
		return "Nothing to do"
	}
	if transition.Finished {
		return fmt.Sprintf("The tournament is over. Champion: <@%s>", transition.Champion)
	}
	var res strings.Builder
	res.WriteString(fmt.Sprintf("Round %d pairings:\n", transition.Round))
	for _, m := range transition.Pairings {
		res.WriteString(fmt.Sprintf("- %s: <@%s> vs <@%s>\n", m.ID, m.PlayerA, m.PlayerB))
	}
	if transition.Bye != "" {
		res.WriteString(fmt.Sprintf("- <@%s> has a bye and receives an automatic win\n", transition.Bye))
	}
	return res.String()
}

// reportErrorMessage maps engine validation errors to user-facing text
func reportErrorMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrUnknownMatch):
		return "That match does not exist or has already been resolved"
	case errors.Is(err, engine.ErrNotAParticipant):
		return "You are not a participant in that match"
	case errors.Is(err, engine.ErrNoPendingCancellation):
		return "There is no pending cancellation request for that match"
	}
	return "An unexpected error occurred"
}

// tournamentErrorMessage maps tournament validation errors to user-facing text
func tournamentErrorMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrTournamentNotActive):
		return "No tournament is active right now"
	case errors.Is(err, engine.ErrTournamentInProgress):
		return "A tournament is already in progress. Cancel it first with !tournament cancel"
	case errors.Is(err, engine.ErrInsufficientPlayers):
		return "At least 2 players are required to start a tournament"
	case errors.Is(err, engine.ErrNotEnrolled):
		return "You are not enrolled in the tournament"
	}
	return "An unexpected error occurred"
}

// splitArgs splits a command line on spaces while keeping quoted arguments,
// such as decklist names with spaces, as single tokens
func splitArgs(content string) []string {
	spaceSplitter, _ := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	args, err := spaceSplitter.Split(strings.TrimSpace(content))
	if err != nil {
		return strings.Fields(content)
	}
	var cleaned []string
	for _, arg := range args {
		arg = strings.Trim(arg, "\"")
		if arg != "" {
			cleaned = append(cleaned, arg)
		}
	}
	return cleaned
}

// startsWith is a helper to check if a string starts with a given substring
func startsWith(inputString string, substring string) bool {
	return strings.HasPrefix(inputString, substring)
}
