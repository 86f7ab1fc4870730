package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/server"
	"github.com/bi-tools/insighthub/pkg/services/narrative"
	"github.com/bi-tools/insighthub/pkg/services/report"
	"github.com/bi-tools/insighthub/pkg/services/reviews"
	"github.com/bi-tools/insighthub/pkg/services/sales"
	"github.com/bi-tools/insighthub/pkg/services/session"
	"github.com/bi-tools/insighthub/pkg/store/catalog"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the InsightHub analysis server",
		RunE:  runServer,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	viper.AutomaticEnv()
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("UPLOAD_ROOT", "uploads")
	viper.SetDefault("OLLAMA_URL", "http://localhost:11434")
	viper.SetDefault("OLLAMA_MODEL", "llama3")

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cat, err := catalog.New(viper.GetString("UPLOAD_ROOT"))
	if err != nil {
		return fmt.Errorf("failed to create upload catalog: %w", err)
	}

	narrator := narrative.NewClient(
		narrative.WithBaseURL(viper.GetString("OLLAMA_URL")),
		narrative.WithModel(viper.GetString("OLLAMA_MODEL")),
	)
	analyzer := reviews.NewAnalyzer()
	predictor := sales.NewPredictor()

	// The prediction model follows the sales pipeline: every load retrains.
	retrain := func(ctx context.Context, ds *domain.Dataset) {
		if err := predictor.Train(ds); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("prediction model not trained")
		}
	}

	pipelines := session.NewRegistry(
		session.New(domain.DepartmentSales, retrain),
		session.New(domain.DepartmentInventory, nil),
		session.New(domain.DepartmentMarketing, nil),
		session.New(domain.DepartmentReviews, nil),
		session.New(domain.DepartmentGeneral, nil),
	)

	mux := server.ConfigureRouter(&logger, server.Dependencies{
		Catalog:       cat,
		Pipelines:     pipelines,
		Composer:      report.NewComposer(analyzer),
		SalesQueries:  sales.NewQueryService(predictor),
		ReviewQueries: reviews.NewQueryService(narrator, analyzer),
		Analyzer:      analyzer,
		Narrator:      narrator,
	})

	if narrator.Available(ctx) {
		logger.Info().Msg("language model reachable, generated narratives enabled")
	} else {
		logger.Info().Msg("language model not reachable, using template narratives")
	}

	addr := net.JoinHostPort(viper.GetString("SERVER_HOST"), viper.GetString("SERVER_PORT"))
	logger.Info().Msgf("starting server on %s", addr)

	return http.ListenAndServe(addr, mux)
}
