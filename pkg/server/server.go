package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	analysishandlers "github.com/bi-tools/insighthub/pkg/handlers/analysis"
	uploadhandlers "github.com/bi-tools/insighthub/pkg/handlers/upload"
	insighthubmiddleware "github.com/bi-tools/insighthub/pkg/server/middleware"
	"github.com/bi-tools/insighthub/pkg/services/report"
	"github.com/bi-tools/insighthub/pkg/services/reviews"
	"github.com/bi-tools/insighthub/pkg/services/sales"
	"github.com/bi-tools/insighthub/pkg/services/session"
	"github.com/bi-tools/insighthub/pkg/store/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server
}

// Dependencies carries the wired service graph into the router.
type Dependencies struct {
	Catalog       *catalog.Catalog
	Pipelines     *session.Registry
	Composer      *report.Composer
	SalesQueries  *sales.QueryService
	ReviewQueries *reviews.QueryService
	Analyzer      *reviews.Analyzer
	Narrator      reviews.Narrator
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(&logger, config.Dependencies)

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

// ConfigureRouter builds the full route table. The frontend is served
// separately, so every route lives under /api and CORS is wide open.
func ConfigureRouter(logger *zerolog.Logger, deps Dependencies) *chi.Mux {
	uploadHandler := uploadhandlers.NewHandler(deps.Catalog, deps.Pipelines)
	analysisHandler := analysishandlers.NewHandler(
		deps.Catalog,
		deps.Pipelines,
		deps.Composer,
		deps.SalesQueries,
		deps.ReviewQueries,
		deps.Analyzer,
		deps.Narrator,
	)

	router := chi.NewRouter()

	router.Use(insighthubmiddleware.Logger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", analysisHandler.Health)

		r.Post("/upload", uploadHandler.Upload)
		r.Post("/upload-direct", uploadHandler.UploadDirect)

		r.Get("/departments", analysisHandler.Departments)
		r.Get("/department/{name}", analysisHandler.DepartmentData)

		r.Post("/analyze", analysisHandler.Analyze)
		r.Get("/analyze/{department}/{file_id}", analysisHandler.Analyze)

		r.Post("/query", analysisHandler.Query)
		r.Post("/sales-agent/query", analysisHandler.SalesAgentQuery)
		r.Post("/review-agent/query", analysisHandler.ReviewAgentQuery)

		r.Get("/visualizations/{type}", analysisHandler.Visualization)

		r.Get("/summary", analysisHandler.ReviewSummary)
		r.Get("/sentiment", analysisHandler.Sentiment)
		r.Get("/keywords", analysisHandler.Keywords)
		r.Get("/topics", analysisHandler.Topics)
		r.Get("/summarize", analysisHandler.SummarizeReviews)
		r.Get("/reviews/asin-summary", analysisHandler.ASINSummary)
	})

	return router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
