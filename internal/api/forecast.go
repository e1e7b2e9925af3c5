// Package api is the HTTP transport for the forecasting service.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"maitred/internal/database"
	"maitred/internal/evaluation"
	"maitred/internal/forecast"
	"maitred/internal/models"
)

// ForecastAPI wires the prediction pipeline to HTTP.
type ForecastAPI struct {
	Router     *gin.Engine
	predictor  *forecast.Predictor
	store      *database.Store
	feed       *Feed
	authSecret string
}

// NewForecastAPI builds the router. store may be nil (prediction logging
// disabled); authSecret empty disables the bearer-token middleware.
func NewForecastAPI(predictor *forecast.Predictor, store *database.Store, feed *Feed, authSecret string) *ForecastAPI {
	router := gin.Default()
	router.Use(corsMiddleware())

	a := &ForecastAPI{
		Router:     router,
		predictor:  predictor,
		store:      store,
		feed:       feed,
		authSecret: authSecret,
	}
	a.setupRoutes()
	return a
}

func (a *ForecastAPI) setupRoutes() {
	a.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a.Router.GET("/ws/feed", a.feed.Handle)

	v1 := a.Router.Group("/api/v1")
	if a.authSecret != "" {
		v1.Use(authMiddleware(a.authSecret))
	}
	{
		v1.POST("/predict", a.Predict)
		v1.GET("/predict/week", a.PredictWeek)
		v1.POST("/feedback", a.SubmitFeedback)
		v1.GET("/predictions", a.ListPredictions)
		v1.GET("/accuracy", a.AccuracyReport)
	}
}

type predictBody struct {
	RestaurantID string `json:"restaurant_id"`
	ServiceDate  string `json:"service_date"`
	ServiceType  string `json:"service_type"`
}

func (b predictBody) toRequest() (models.PredictionRequest, error) {
	serviceType, err := models.ParseServiceType(b.ServiceType)
	if err != nil {
		return models.PredictionRequest{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", b.ServiceDate, time.UTC)
	if err != nil {
		return models.PredictionRequest{}, models.ErrInvalidServiceDate
	}

	req := models.PredictionRequest{
		RestaurantID: b.RestaurantID,
		ServiceDate:  date,
		ServiceType:  serviceType,
	}
	return req, req.Validate()
}

// Predict handles POST /api/v1/predict.
func (a *ForecastAPI) Predict(c *gin.Context) {
	var body predictBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req, err := body.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := a.predictor.Predict(c.Request.Context(), req)
	if err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	a.recordAndBroadcast(resp)
	c.JSON(http.StatusOK, resp)
}

// PredictWeek handles GET /api/v1/predict/week. Query parameters:
// restaurant_id, start_date, service_type, optional days (1-14, default 7).
func (a *ForecastAPI) PredictWeek(c *gin.Context) {
	serviceType, err := models.ParseServiceType(c.Query("service_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := time.ParseInLocation("2006-01-02", c.Query("start_date"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrInvalidServiceDate.Error()})
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > 14 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer between 1 and 14"})
			return
		}
	}

	req := models.PredictionRequest{
		RestaurantID: c.Query("restaurant_id"),
		ServiceDate:  startDate,
		ServiceType:  serviceType,
	}

	results, err := a.predictor.PredictRange(c.Request.Context(), req, days)
	if err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	for _, resp := range results {
		a.recordAndBroadcast(resp)
	}
	c.JSON(http.StatusOK, gin.H{"predictions": results})
}

type feedbackBody struct {
	PredictionID string `json:"prediction_id" binding:"required"`
	ActualCovers int    `json:"actual_covers" binding:"required"`
	Comment      string `json:"comment"`
}

// SubmitFeedback handles POST /api/v1/feedback.
func (a *ForecastAPI) SubmitFeedback(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction log disabled"})
		return
	}

	var body feedbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	err := a.store.RecordFeedback(database.Feedback{
		PredictionID: body.PredictionID,
		ActualCovers: body.ActualCovers,
		Comment:      body.Comment,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, database.ErrUnknownPrediction) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recording feedback failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// ListPredictions handles GET /api/v1/predictions.
func (a *ForecastAPI) ListPredictions(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction log disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := a.store.RecentPredictions(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing predictions failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": entries})
}

// AccuracyReport handles GET /api/v1/accuracy. It reports realized forecast
// error over predictions that have received feedback.
func (a *ForecastAPI) AccuracyReport(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction log disabled"})
		return
	}

	limit := 500
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 5000 {
			limit = n
		}
	}

	outcomes, err := a.store.Outcomes(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "computing accuracy failed"})
		return
	}
	c.JSON(http.StatusOK, evaluation.Evaluate(outcomes))
}

// recordAndBroadcast logs and publishes a served prediction. Both are best
// effort: neither failure touches the response.
func (a *ForecastAPI) recordAndBroadcast(resp *models.PredictionResponse) {
	if a.store != nil {
		source := ""
		if len(resp.Patterns) > 0 {
			source = resp.Patterns[0].Metadata.Source
		}
		err := a.store.RecordPrediction(database.PredictionLog{
			PredictionID:    resp.PredictionID,
			RestaurantID:    resp.RestaurantID,
			ServiceDate:     resp.ServiceDate,
			ServiceType:     string(resp.ServiceType),
			PredictedCovers: resp.PredictedCovers,
			Confidence:      resp.Confidence,
			Method:          resp.Method,
			PatternSource:   source,
			CreatedAt:       resp.CreatedAt,
		})
		if err != nil {
			log.Printf("[API] prediction log write failed: %v", err)
		}
	}
	if a.feed != nil {
		a.feed.Broadcast(resp)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware validates a JWT bearer token against the configured secret.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
