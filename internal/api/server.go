package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/session"
	"storefront/internal/submit"
	"storefront/internal/uploads"
)

// Server представляет HTTP-сервер.
type Server struct {
	port    string
	handler http.Handler
}

// NewServer создает и настраивает новый экземпляр сервера.
func NewServer(port string, store database.Store, sessions session.Store, uploader uploads.Uploader, submitter submit.Submitter, publisher events.Publisher) *Server {
	server := &Server{port: port}
	router := server.setupRouter(store, sessions, uploader, submitter, publisher)
	// Сквозная трассировка входящих запросов
	server.handler = otelhttp.NewHandler(router, "checkout-http")
	return server
}

// Run запускает HTTP-сервер.
func (s *Server) Run() error {
	address := fmt.Sprintf(":%s", s.port)
	fmt.Printf("🚀 HTTP-сервер запущен на http://localhost%s\n", address)
	return http.ListenAndServe(address, s.handler)
}

// setupRouter настраивает маршрутизацию.
func (s *Server) setupRouter(store database.Store, sessions session.Store, uploader uploads.Uploader, submitter submit.Submitter, publisher events.Publisher) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	checkoutHandler := NewCheckoutHandler(store, sessions, uploader, submitter, publisher)

	router.Route("/api/checkout", func(r chi.Router) {
		r.Post("/", checkoutHandler.StartCheckout)
		r.Get("/{sessionID}", checkoutHandler.GetState)
		r.Put("/{sessionID}/delivery", checkoutHandler.SelectDelivery)
		r.Put("/{sessionID}/payment", checkoutHandler.SelectPayment)
		r.Post("/{sessionID}/documents/{slot}", checkoutHandler.UploadDocument)
		r.Delete("/{sessionID}/documents/{slot}", checkoutHandler.RemoveDocument)
		r.Post("/{sessionID}/submit", checkoutHandler.Submit)
	})

	// Метрики Prometheus
	router.Handle("/metrics", promhttp.Handler())

	return router
}
