package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"career-mentor/internal/app"
	"career-mentor/internal/config"
	"career-mentor/internal/logging"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "counselor",
	Short:        "Career interview and roadmap tools",
	Long:         "Runs the career interview from a terminal, drafts roadmaps from answer files and inspects rate limits.",
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(newChatCommand(), newRoadmapCommand(), newFieldsCommand(), newLimitsCommand())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadApp reads configuration the same way the bot does.
func loadApp(ctx context.Context) (*app.App, error) {
	_ = godotenv.Load(envFile)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return app.New(ctx, cfg)
}
