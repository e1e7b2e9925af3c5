package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"maitred/internal/api"
	"maitred/internal/database"
	"maitred/internal/forecast"
	"maitred/internal/models"
	"maitred/internal/vector"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	config, err := models.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		config.Server.Port = *port
	}
	if *metricsPort != 0 {
		config.Server.MetricsPort = *metricsPort
	}

	predictor := buildPredictor(config)

	store, err := database.Open(config.Database.Driver, config.Database.DSN)
	if err != nil {
		log.Printf("Prediction log unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	feed := api.NewFeed()
	forecastAPI := api.NewForecastAPI(predictor, store, feed, config.AuthSecret)

	go startMetricsServer(config.Server.MetricsPort)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.Port),
		Handler: forecastAPI.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", config.Server.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

// buildPredictor wires the prediction pipeline. The embedding, index, and
// LLM clients are all optional: a missing credential means the pipeline runs
// degraded (synthetic patterns, default reasoning), never that startup fails.
func buildPredictor(config *models.Config) *forecast.Predictor {
	var embedder forecast.Embedder
	if e, err := vector.NewTextEmbedder(vector.EmbedderOptions{
		BaseURL: config.Embedding.BaseURL,
		APIKey:  config.Embedding.APIKey,
		Model:   config.Embedding.Model,
	}); err != nil {
		log.Printf("Embedding service unavailable: %v", err)
	} else {
		embedder = e
	}

	var index forecast.SimilarityIndex
	if q, err := vector.NewQdrantIndex(vector.Options{
		Host:       config.Vector.Host,
		Port:       config.Vector.Port,
		APIKey:     config.Vector.APIKey,
		UseTLS:     config.Vector.UseTLS,
		Collection: config.Vector.Collection,
		Dimension:  config.Vector.Dimension,
	}); err != nil {
		log.Printf("Similarity index unavailable: %v", err)
	} else {
		index = q
	}

	var model llms.Model
	if config.LLM.APIKey != "" {
		opts := []openai.Option{
			openai.WithToken(config.LLM.APIKey),
			openai.WithModel(config.LLM.Model),
		}
		if config.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.LLM.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			log.Printf("LLM unavailable: %v", err)
		} else {
			model = llm
		}
	} else {
		log.Printf("LLM api key not configured, narrative generation disabled")
	}

	builder := forecast.NewContextBuilder()
	retriever := forecast.NewPatternRetriever(embedder, index, builder, forecast.RetrieverOptions{
		Limit:              config.Retrieval.Limit,
		Timeout:            config.RetrievalTimeout(),
		ServiceTypeAliases: config.Retrieval.ServiceTypeAliases,
	})

	return forecast.NewPredictor(
		builder,
		retriever,
		forecast.NewDemandEstimator(),
		forecast.NewStaffRecommender(),
		forecast.NewReasoningEngine(model, config.ReasoningTimeout()),
		config.Batch.Concurrency,
	)
}

func startMetricsServer(port int) {
	metricsRouter := gin.New()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
