package handler

import (
	"net/http"

	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/repository/mongo"
	"github.com/askpage/askpage/internal/repository/postgres"
	"github.com/askpage/askpage/internal/repository/redis"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including backing-store connectivity.
// Postgres and Redis are required; Mongo is optional, analytics degrade
// without it but chat does not.
func ReadyCheck(db *postgres.DB, redisClient *redis.Client, mongoClient *mongo.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}
		if err := redisClient.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "redis not ready")
			return
		}

		status := map[string]string{"status": "ready"}
		if mongoClient != nil {
			if err := mongoClient.Ping(r.Context()); err != nil {
				status["analytics"] = "degraded"
			}
		}

		response.OK(w, status)
	}
}
