// seed creates a handful of demo webhook jobs against the local dev
// database, exercising each of the builder's schedule forms.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/agendahq/agenda-go/internal/builder"
	"github.com/agendahq/agenda-go/internal/model"
	"github.com/agendahq/agenda-go/internal/store"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	pgStore := store.NewPostgresStore(pool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	webhookPayload := func(url, method string) map[string]any {
		return map[string]any{"url": url, "method": method}
	}

	seeds := []struct {
		label string
		build func() (model.SaveOutcome, error)
	}{
		{
			label: "one-off, runs in ~1 minute",
			build: func() (model.SaveOutcome, error) {
				return builder.New(pgStore, "seed-oneoff-ping", webhookPayload("https://httpbin.org/post", "POST")).
					Schedule(time.Now().Add(time.Minute)).
					Save(ctx)
			},
		},
		{
			label: "recurring every 5 minutes",
			build: func() (model.SaveOutcome, error) {
				return builder.New(pgStore, "seed-heartbeat", webhookPayload("https://httpbin.org/get", "GET")).
					Single().
					RepeatEvery("5m", model.EveryOptions{SkipImmediate: false}).
					Save(ctx)
			},
		},
		{
			label: "daily at 09:00 UTC",
			build: func() (model.SaveOutcome, error) {
				return builder.New(pgStore, "seed-daily-report", webhookPayload("https://httpbin.org/post", "POST")).
					Single().
					Timezone("UTC").
					RepeatAt("09:00").
					Save(ctx)
			},
		},
		{
			label: "cron, every 15 minutes on weekdays",
			build: func() (model.SaveOutcome, error) {
				return builder.New(pgStore, "seed-weekday-sync", webhookPayload("https://httpbin.org/post", "POST")).
					Single().
					RepeatEvery("*/15 * * * 1-5", model.EveryOptions{}).
					Save(ctx)
			},
		},
		{
			label: "NORMAL job deduplicated by uniqueKey",
			build: func() (model.SaveOutcome, error) {
				return builder.New(pgStore, "seed-invoice-dispatch", webhookPayload("https://httpbin.org/post", "POST")).
					UniqueKey("tenant-42").
					Schedule(time.Now().Add(2 * time.Minute)).
					Save(ctx)
			},
		},
	}

	for _, s := range seeds {
		outcome, err := s.build()
		if err != nil {
			log.Fatalf("seed %q: %v", s.label, err)
		}
		status := "created"
		if outcome == model.Updated {
			status = "updated"
		}
		fmt.Printf("  %-45s %s\n", s.label, status)
	}

	fmt.Println()
	fmt.Println("Seed complete. Start ./cmd/agenda with ENSURE_INDEXES_ON_STARTUP unset")
	fmt.Println("(already created by this seed run) to pick these jobs up.")
}
