package handler

import (
	"net/http"

	"github.com/pricely/backend/internal/api/response"
	"github.com/pricely/backend/internal/llm"
	"github.com/pricely/backend/internal/repository/postgres"
	"github.com/pricely/backend/internal/repository/redis"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including database connectivity
func ReadyCheck(db *postgres.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}
		if err := redisClient.Client().Ping(r.Context()).Err(); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "redis not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders returns the registered LLM providers
func ListLLMProviders(llmRouter *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        llmRouter.GetProvidersInfo(),
			"default_provider": llmRouter.DefaultProvider(),
		})
	}
}

// FlushListings clears the cheapest-listing cache from Redis
func FlushListings(listingCache *redis.ListingCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := listingCache.FlushAll(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to flush cache: "+err.Error())
			return
		}

		response.OK(w, map[string]any{
			"message":      "listing cache flushed",
			"keys_deleted": deleted,
		})
	}
}
