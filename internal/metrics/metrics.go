package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal - Счетчик HTTP-запросов
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Количество HTTP запросов",
		},
		[]string{"handler", "status"}, // Метки: хэндлер и http-статус
	)

	// HttpRequestDuration - Гистограмма длительности HTTP-запросов
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Длительность HTTP запросов",
		},
		[]string{"handler"},
	)

	// CheckoutSessionsStarted - Счетчик созданных сессий оформления
	CheckoutSessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_started_total",
			Help: "Количество созданных сессий оформления заказа",
		},
	)

	// PaymentMethodRejections - Счетчик отклоненных выборов метода оплаты
	PaymentMethodRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_method_rejections_total",
			Help: "Количество попыток выбрать недопустимый метод оплаты",
		},
		[]string{"method"},
	)

	// DocumentUploadErrors - Счетчик ошибок загрузки документов
	DocumentUploadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_upload_errors_total",
			Help: "Количество ошибок загрузки документов",
		},
		[]string{"reason"}, // Метки: "too_large", "bad_mime", "storage_error"
	)

	// OrderSubmissions - Счетчик отправок заказов по результату
	OrderSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_submissions_total",
			Help: "Количество отправок заказов во внешний сервис",
		},
		[]string{"status"}, // Метки: "accepted", "rejected", "network_error", "suppressed_duplicate"
	)

	// OrderEventsPublished - Счетчик опубликованных событий о заказах
	OrderEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_events_published_total",
			Help: "Количество опубликованных в Kafka событий о размещенных заказах",
		},
		[]string{"status"}, // Метки: "success", "error"
	)

	// DBErrors - Счетчик ошибок базы данных
	DBErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Количество ошибок при работе с БД",
		},
		[]string{"operation"}, // Метки: "get_zones", "get_settings", "get_installment"
	)

	// SessionStoreSize - Датчик (Gauge) числа активных сессий
	SessionStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_sessions_active",
			Help: "Текущее число активных сессий оформления",
		},
	)

	// SessionEvictions - Счетчик вытесненных сессий (LRU)
	SessionEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_session_evictions_total",
			Help: "Количество вытесненных из хранилища сессий",
		},
	)
)

// Init используется для регистрации метрик.
// promauto регистрирует их автоматически при создании.
func Init() {
	log.Println("Prometheus метрики инициализированы.")
}
