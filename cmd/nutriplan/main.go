package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nutriplan/internal/assembly"
	"nutriplan/internal/blueprint"
	"nutriplan/internal/config"
	"nutriplan/internal/database"
	"nutriplan/internal/llm"
	"nutriplan/internal/metrics"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/planner"
	"nutriplan/internal/recipe"
	"nutriplan/internal/review"
	"nutriplan/internal/selection"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	textGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model backend")
	}
	if c, ok := textGen.(llm.Closer); ok {
		defer c.Close()
	}

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		if len(os.Args) < 3 {
			log.Fatal().Msg("import requires a recipe URL")
		}
		importer := recipe.NewImporter(recipeRepo, textGen)
		rec, meta, err := importer.ImportURL(ctx, os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("recipe import failed")
		}
		if err := metricsStore.RecordMeta(ctx, meta); err != nil {
			log.Warn().Err(err).Msg("failed to record import metrics")
		}
		fmt.Printf("Imported %q (%s)\n", rec.Title, rec.ID)

	case "generate":
		genCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		bpPath := genCmd.String("blueprint", "", "Path to a blueprint JSON file")
		snacks := genCmd.Bool("snacks", false, "Include a snack slot each day")
		weekStart := genCmd.String("week-start", "", "Plan start date (YYYY-MM-DD, defaults to next Monday)")
		genCmd.Parse(os.Args[2:])

		if *bpPath == "" {
			log.Fatal().Msg("generate requires -blueprint")
		}
		bp, err := loadBlueprint(*bpPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load blueprint")
		}

		prefs := blueprint.Preferences{IncludeSnacks: *snacks}
		if *weekStart != "" {
			ws, err := time.Parse("2006-01-02", *weekStart)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid -week-start")
			}
			prefs.WeekStart = ws
		}

		engine := buildEngine(recipeRepo, textGen, cfg)
		result, err := engine.GeneratePlan(ctx, bp, prefs)
		if err != nil {
			log.Fatal().Err(err).Msg("plan generation failed")
		}

		for _, meta := range result.Metas {
			if err := metricsStore.RecordMeta(ctx, meta); err != nil {
				log.Warn().Err(err).Str("agent", meta.AgentName).Msg("failed to record metrics")
			}
		}

		planJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to encode result")
		}
		if result.Plan != nil {
			raw, _ := json.Marshal(result.Plan)
			if err := planRepo.Save(ctx, bp.UserID, result.Outcome, raw); err != nil {
				log.Warn().Err(err).Msg("failed to persist plan")
			}
		}
		fmt.Println(string(planJSON))
		log.Info().
			Str("outcome", string(result.Outcome)).
			Int("retries", result.RetryCount).
			Int("calls", result.Usage.Calls).
			Float64("cost_cents", result.Usage.CostCents).
			Msg("generation finished")

	case "usage":
		usageCmd := flag.NewFlagSet("usage", flag.ExitOnError)
		days := usageCmd.Int("days", 7, "Show usage for the last N days")
		usageCmd.Parse(os.Args[2:])

		daily, err := metricsStore.GetDailyUsage(ctx, *days)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to query usage")
		}
		for _, d := range daily {
			fmt.Printf("%s  prompt=%d completion=%d calls=%d\n",
				d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
		}

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		if err := metricsStore.Cleanup(ctx, *days); err != nil {
			log.Fatal().Err(err).Msg("metrics cleanup failed")
		}
		fmt.Println("Old metric records removed.")

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	switch cfg.TextBackend {
	case "groq":
		return llm.NewGroqClient(cfg), nil
	default:
		return llm.NewGeminiClient(ctx, cfg)
	}
}

func buildEngine(repo *recipe.Repository, textGen llm.TextGenerator, cfg *config.Config) *planner.Engine {
	scorer := selection.NewCachedScorer(
		selection.NewLLMScorer(textGen),
		cfg.ScoreCacheSize,
		cfg.ScoreCacheTTL,
	)
	selector := selection.NewSelector(repo, scorer, selection.Config{
		TargetCount:        cfg.TargetCandidates,
		WorkingSetCap:      cfg.WorkingSetCap,
		RelaxAfterFraction: cfg.RelaxAfterFraction,
	})
	assembler := assembly.NewAssembler(textGen)
	resolver := nutrition.NewResolver(nutrition.DefaultTable())
	validator := nutrition.NewValidator(resolver, cfg.NutritionThreshold, true)
	reviewer := review.NewReviewer(textGen)

	return planner.NewEngine(selector, assembler, validator, reviewer, repo, planner.Config{
		MaxRetries:         cfg.MaxRetries,
		StageTimeout:       cfg.StageTimeout,
		CoherenceThreshold: cfg.CoherenceThreshold,
	})
}

func loadBlueprint(path string) (*blueprint.Blueprint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var bp blueprint.Blueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		return nil, fmt.Errorf("failed to parse blueprint: %w", err)
	}
	return &bp, nil
}

func printUsage() {
	fmt.Println("Usage: nutriplan <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  import <url>                 Import a recipe from a web page")
	fmt.Println("  generate -blueprint <file>   Generate a weekly plan for a blueprint")
	fmt.Println("  usage [-days N]              Show model token usage per day")
	fmt.Println("  metrics-cleanup [-days N]    Remove old metric records")
}
