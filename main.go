/* main.go
 * The "main" method for running the bot. For details about the bot see `readme.md`
 * Usage: go run main.go -addr="<listen address>" -test="<true|false>"
 * Authors: Zachary Bower
 */

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"gamenight-bot/api/api"
	"gamenight-bot/bot"
	"gamenight-bot/web"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()

	//Flags
	addrPtr := flag.String("addr", ":8080", "HTTP listen address for the status endpoints")
	dbPtr := flag.String("db", "gamenight", "MongoDB database name")
	testPtr := flag.String("test", "false", "Use main or test bot: takes true or false as argument")

	flag.Parse()

	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	useTestBot, err := convertStrToBool(*testPtr)
	if err != nil {
		log.Fatal("Invalid \"test\" flag. Should be true or false")
	}

	var discordToken string
	if useTestBot {
		discordToken = os.Getenv("DISCORD_BETA_TOKEN")
	} else {
		discordToken = os.Getenv("DISCORD_PROD_TOKEN")
	}

	// Notifier is attached by bot.Run once the Discord session is open
	apiPtr, err := api.NewAPI(*dbPtr, os.Getenv("MONGO_PROD_URI"), nil)
	if err != nil {
		log.Fatalf("failed to initialize API: %v", err)
	}
	defer func() {
		if err = apiPtr.Store.GetClient().Disconnect(context.TODO()); err != nil {
			panic(err)
		}
	}()

	if err := startScheduler(apiPtr); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	// Status endpoints run alongside the bot so an uptime monitor can keep the
	// host awake on free-tier hosting
	go func() {
		if err := web.Start(web.Config{Addr: *addrPtr, API: apiPtr}); err != nil {
			log.Println("HTTP server stopped:", err)
		}
	}()

	b, err := bot.NewBot(discordToken, os.Getenv("BOT_OWNER"), apiPtr)
	if err != nil {
		log.Fatalf("failed to initialize bot: %v", err)
	}
	if err := b.Run(); err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}

// startScheduler runs the background jobs: expiring stale cancellation
// requests, the monthly casual ranking reset and a periodic tournament flush
// in case a write-through save failed earlier.
func startScheduler(apiPtr *api.API) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(15*time.Second),
		gocron.NewTask(apiPtr.ExpireCancellations),
	); err != nil {
		return err
	}

	if _, err := scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			if reset, err := apiPtr.ResetCasualIfDue(); err != nil {
				log.Println("monthly reset check failed:", err)
			} else if reset {
				log.Println("casual ranking reset for the new month")
			}
		}),
	); err != nil {
		return err
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(apiPtr.PersistTournament),
	); err != nil {
		return err
	}

	scheduler.Start()
	return nil
}
