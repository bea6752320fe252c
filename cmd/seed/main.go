package main

import (
	"context"
	"flag"
	"log"
	"os"

	"ai-interview-be/internal/bootstrap"
	"ai-interview-be/internal/config"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/specification"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/internal/service"
	"ai-interview-be/pkg/database"
	"ai-interview-be/pkg/metrics"

	"github.com/fatih/color"
)

// inlineSync re-embeds a question as soon as it is stored, so the seeder
// does not depend on the in-process bus of a running server.
type inlineSync struct {
	consumer service.IConsumerService
}

func (s inlineSync) PublishQuestionSync(ctx context.Context, questionId string) error {
	return s.consumer.Reindex(ctx, questionId)
}

func main() {
	corpusPath := flag.String("file", "cmd/seed/corpus.yaml", "YAML question corpus")
	resyncOnly := flag.Bool("resync", false, "only re-embed questions that are pending sync")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	seedLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer seedLogger.Sync()

	collector := metrics.NewCollector()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	consumer := service.NewConsumerService(
		nil,
		cfg.App.QuestionSyncTopic,
		uowFactory,
		bootstrap.NewEmbeddingClient(ctx, cfg, seedLogger),
		bootstrap.NewRetrievalIndex(db, cfg, seedLogger, collector),
		seedLogger,
		collector,
	)

	if *resyncOnly {
		os.Exit(resync(ctx, uowFactory, consumer))
	}

	requests, err := loadCorpus(*corpusPath)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	color.Cyan("🌱 Seeding %d questions from %s\n", len(requests), *corpusPath)

	questions := service.NewQuestionService(uowFactory, inlineSync{consumer: consumer}, seedLogger)
	failed := 0
	for i := range requests {
		res, err := questions.Sync(ctx, &requests[i])
		switch {
		case err != nil:
			failed++
			color.Red("  ✗ %s: %v", requests[i].Id, err)
		case !res.Queued:
			failed++
			color.Yellow("  ~ %s stored, embedding pending (run with -resync)", res.Id)
		default:
			color.Green("  ✓ %s", res.Id)
		}
	}

	if failed > 0 {
		color.Yellow("\nDone with %d of %d questions not fully synced", failed, len(requests))
		os.Exit(1)
	}
	color.Green("\n✅ All %d questions synced", len(requests))
}

// resync re-embeds every question whose LastSyncedAt is unset.
func resync(ctx context.Context, uowFactory unitofwork.RepositoryFactory, consumer service.IConsumerService) int {
	pending, err := uowFactory.NewUnitOfWork(ctx).QuestionRepository().FindAll(ctx,
		specification.NeedsSync{},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		color.Red("❌ Failed to list pending questions: %v", err)
		return 1
	}

	color.Cyan("🔁 Re-embedding %d pending questions\n", len(pending))
	code := 0
	for _, q := range pending {
		if err := consumer.Reindex(ctx, q.Id); err != nil {
			code = 1
			color.Red("  ✗ %s: %v", q.Id, err)
			continue
		}
		color.Green("  ✓ %s", q.Id)
	}
	return code
}
