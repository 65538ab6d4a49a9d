package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rfq/db"
	"rfq/db/migrations"
	"rfq/internal/approval"
	"rfq/internal/handlers"
)

func main() {
	// .env опционален, в проде переменные приходят из окружения
	_ = godotenv.Load()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	connString := os.Getenv("POSTGRES_CONN")
	if connString == "" {
		logger.Fatal("POSTGRES_CONN env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		logger.Fatal("cannot connect to DB", zap.Error(err))
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	approvalCfg := approval.DefaultConfig()
	if v := os.Getenv("APPROVAL_THRESHOLD"); v != "" {
		threshold, err := decimal.NewFromString(v)
		if err != nil || threshold.LessThanOrEqual(decimal.Zero) {
			logger.Fatal("invalid APPROVAL_THRESHOLD", zap.String("value", v))
		}
		approvalCfg.Threshold = threshold
	}

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store, approvalCfg, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		// заявки
		r.Post("/rfqs/new", h.CreateRFQHandler)
		r.Get("/rfqs", h.GetRFQsHandler)
		r.Get("/rfqs/my", h.GetUserRFQsHandler)
		r.Get("/rfqs/approvals/queue", h.GetApprovalQueueHandler)
		r.Get("/rfqs/{rfqId}", h.GetRFQHandler)
		r.Put("/rfqs/{rfqId}/status", h.ChangeRFQStatusHandler)
		r.Get("/rfqs/{rfqId}/comparison", h.GetComparisonHandler)
		// котировки
		r.Post("/quotations/new", h.SubmitQuotationHandler)
		r.Get("/quotations/{rfqId}/list", h.GetQuotationsForRFQHandler)
		// итоговые решения
		r.Post("/rfqs/{rfqId}/decision", h.CreateFinalDecisionHandler)
		r.Get("/rfqs/{rfqId}/decision", h.GetFinalDecisionHandler)
		r.Patch("/rfqs/{rfqId}/decision", h.AmendFinalDecisionHandler)
		r.Put("/rfqs/{rfqId}/decision/finalize", h.FinalizeDecisionHandler)
	})

	serverAddr := os.Getenv("SERVER_ADDRESS")
	if serverAddr == "" {
		serverAddr = "0.0.0.0:8080"
	}

	logger.Info("starting server", zap.String("addr", serverAddr))
	logger.Fatal("server stopped", zap.Error(http.ListenAndServe(serverAddr, r)))
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
