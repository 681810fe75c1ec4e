package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Agent routes
	api.HandleFunc("/agents", handler.ListAgents).Methods("GET")
	api.HandleFunc("/agents", handler.CreateAgent).Methods("POST")
	api.HandleFunc("/agents/{name}/status", handler.GetStatus).Methods("GET")
	api.HandleFunc("/agents/{name}/decide", handler.Decide).Methods("POST")
	api.HandleFunc("/agents/{name}/trades", handler.ExecuteTrade).Methods("POST")
	api.HandleFunc("/agents/{name}/portfolio", handler.GetPortfolio).Methods("GET")
	api.HandleFunc("/agents/{name}/history", handler.GetHistory).Methods("GET")
	api.HandleFunc("/agents/{name}/save", handler.SaveAgent).Methods("POST")
	api.HandleFunc("/agents/{name}/load", handler.LoadAgent).Methods("POST")

	// Market routes
	api.HandleFunc("/market/{symbol}", handler.GetMarketData).Methods("GET")

	return r
}
