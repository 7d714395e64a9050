package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"storefront/internal/checkout"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/submit"
	"storefront/internal/uploads"
	"storefront/internal/validator"
)

// CheckoutHandler обрабатывает HTTP-запросы оформления заказа.
type CheckoutHandler struct {
	store     database.Store   // Используем интерфейсы
	sessions  session.Store
	uploader  uploads.Uploader
	submitter submit.Submitter
	publisher events.Publisher
}

// NewCheckoutHandler создает новый экземпляр CheckoutHandler.
func NewCheckoutHandler(store database.Store, sessions session.Store, uploader uploads.Uploader, submitter submit.Submitter, publisher events.Publisher) *CheckoutHandler {
	return &CheckoutHandler{
		store:     store,
		sessions:  sessions,
		uploader:  uploader,
		submitter: submitter,
		publisher: publisher,
	}
}

// StartCheckoutRequest - тело запроса на создание сессии оформления.
type StartCheckoutRequest struct {
	Lines []model.CartLine `json:"lines" validate:"required,min=1,dive"`
	// Подсказка для расчета тарифа до ввода адреса.
	Governorate string `json:"governorate,omitempty"`
}

// DeliveryRequest - выбор способа доставки.
type DeliveryRequest struct {
	Method         model.DeliveryMethod  `json:"method" validate:"required"`
	Address        *model.Address        `json:"address,omitempty"`
	PickupLocation *model.PickupLocation `json:"pickup_location,omitempty"`
}

// PaymentRequest - выбор метода оплаты.
type PaymentRequest struct {
	Method          model.PaymentMethod    `json:"method" validate:"required"`
	EWalletProvider *model.EWalletProvider `json:"e_wallet_provider,omitempty"`
}

// StartCheckout создает сессию из снимка корзины. Зоны, настройки и признаки
// рассрочки читаются из хранилища однократно и фиксируются на всю сессию.
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	handlerName := "StartCheckout"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	var req StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "невалидное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "невалидная корзина: "+err.Error(), handlerName)
		return
	}

	zones, err := h.store.GetDeliveryZones(r.Context())
	if err != nil {
		log.Printf("Ошибка получения зон доставки: %v", err)
		respondWithError(w, http.StatusInternalServerError, "конфигурация недоступна", handlerName)
		return
	}
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("Ошибка получения настроек: %v", err)
		respondWithError(w, http.StatusInternalServerError, "конфигурация недоступна", handlerName)
		return
	}

	// Признак рассрочки берется из авторитетного справочника, а не из
	// данных клиента.
	productIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	eligible, err := h.store.GetInstallmentEligible(r.Context(), productIDs)
	if err != nil {
		log.Printf("Ошибка получения признаков рассрочки: %v", err)
		respondWithError(w, http.StatusInternalServerError, "конфигурация недоступна", handlerName)
		return
	}
	for i := range req.Lines {
		req.Lines[i].InstallmentEligible = eligible[req.Lines[i].ProductID]
	}

	checkoutSession, err := checkout.NewSession(uuid.New().String(), req.Lines, zones, settings, req.Governorate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	h.sessions.Put(r.Context(), checkoutSession)
	metrics.CheckoutSessionsStarted.Inc()
	log.Printf("Создана сессия оформления %s (%d позиций)", checkoutSession.ID, len(req.Lines))

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "201").Inc()
	respondWithJSON(w, http.StatusCreated, checkoutSession.State())
}

// GetState возвращает текущее состояние сессии оформления.
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	handlerName := "GetState"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	checkoutSession, ok := h.getSession(w, r, handlerName)
	if !ok {
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, checkoutSession.State())
}

// SelectDelivery выбирает способ доставки и задает адрес или пункт самовывоза.
func (h *CheckoutHandler) SelectDelivery(w http.ResponseWriter, r *http.Request) {
	handlerName := "SelectDelivery"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	checkoutSession, ok := h.getSession(w, r, handlerName)
	if !ok {
		return
	}

	var req DeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "невалидное тело запроса", handlerName)
		return
	}

	if err := checkoutSession.SelectDeliveryMethod(req.Method); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}
	if req.Address != nil {
		checkoutSession.SetAddress(*req.Address)
	}
	if req.PickupLocation != nil {
		checkoutSession.SetPickupLocation(*req.PickupLocation)
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, checkoutSession.State())
}

// SelectPayment выбирает метод оплаты. Недопустимый метод отклоняется на
// границе, нелегальное состояние дальше не проходит.
func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	handlerName := "SelectPayment"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	checkoutSession, ok := h.getSession(w, r, handlerName)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "невалидное тело запроса", handlerName)
		return
	}

	if err := checkoutSession.SelectPaymentMethod(req.Method); err != nil {
		metrics.PaymentMethodRejections.WithLabelValues(string(req.Method)).Inc()
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}
	if req.EWalletProvider != nil {
		if err := checkoutSession.SetEWalletProvider(*req.EWalletProvider); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
			return
		}
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, checkoutSession.State())
}

// UploadDocument принимает файл, загружает его во внешнее хранилище и
// привязывает полученную ссылку к слоту. Ошибка загрузки не трогает слот:
// загрузку можно повторять, другие слоты остаются доступными.
func (h *CheckoutHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	handlerName := "UploadDocument"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	checkoutSession, ok := h.getSession(w, r, handlerName)
	if !ok {
		return
	}
	slot := model.SlotName(chi.URLParam(r, "slot"))

	// Слот проверяется до обращения к хранилищу: файл для слота, который
	// текущий метод оплаты не требует, в хранилище не попадает.
	if !checkoutSession.RequiresDocument(slot) {
		respondWithError(w, http.StatusBadRequest, checkout.ErrUnknownSlot.Error(), handlerName)
		return
	}

	// Запас к потолку - накладные расходы multipart-формы.
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxUploadSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "файл не передан или слишком велик", handlerName)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "не удалось прочитать файл", handlerName)
		return
	}

	assetReference, err := h.uploader.Upload(r.Context(), slot, header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrFileTooLarge), errors.Is(err, uploads.ErrNotAnImage):
			respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		default:
			respondWithError(w, http.StatusBadGateway, err.Error(), handlerName)
		}
		return
	}

	if err := checkoutSession.AttachDocument(slot, assetReference); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, checkoutSession.State())
}

// RemoveDocument очищает слот документа.
func (h *CheckoutHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	handlerName := "RemoveDocument"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	checkoutSession, ok := h.getSession(w, r, handlerName)
	if !ok {
		return
	}
	slot := model.SlotName(chi.URLParam(r, "slot"))

	if err := checkoutSession.RemoveDocument(slot); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, checkoutSession.State())
}

// Submit собирает черновик и отправляет его в сервис заказов. Сетевой вызов
// возможен только для полностью валидного черновика; при отказе все
// локальное состояние сохраняется для повторной отправки.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	handlerName := "Submit"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	checkoutSession, ok := h.getSession(w, r, handlerName)
	if !ok {
		return
	}

	draft, err := checkoutSession.AssembleDraft()
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			metrics.HttpRequestsTotal.WithLabelValues(handlerName, "422").Inc()
			respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":      "черновик заказа не прошел проверку",
				"violations": verr.Violations,
			})
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	order, err := h.submitter.Submit(r.Context(), checkoutSession, draft)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrSubmissionInFlight):
			// Защитный инвариант, а не ошибка пользователя: двойной клик
			// молча подавляется.
			metrics.HttpRequestsTotal.WithLabelValues(handlerName, "202").Inc()
			respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "submission_in_progress"})
		default:
			var submitErr *submit.SubmitError
			if errors.As(err, &submitErr) {
				// Код и сообщение сервиса заказов передаются дословно.
				metrics.HttpRequestsTotal.WithLabelValues(handlerName, "502").Inc()
				respondWithJSON(w, http.StatusBadGateway, submitErr)
				return
			}
			log.Printf("Ошибка отправки заказа (сессия %s): %v", checkoutSession.ID, err)
			respondWithError(w, http.StatusBadGateway, "сервис заказов недоступен", handlerName)
		}
		return
	}

	// Заказ принят: сессия и собранные документы больше не нужны.
	h.sessions.Delete(r.Context(), checkoutSession.ID)
	log.Printf("Заказ %s размещен (сессия %s)", order.OrderNumber, checkoutSession.ID)

	if err := h.publisher.PublishOrderPlaced(r.Context(), order, draft); err != nil {
		// Публикация best effort: заказ уже принят.
		log.Printf("Ошибка публикации события о заказе %s: %v", order.OrderNumber, err)
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "201").Inc()
	respondWithJSON(w, http.StatusCreated, order)
}

// getSession извлекает сессию по URL-параметру; при отсутствии пишет 404.
func (h *CheckoutHandler) getSession(w http.ResponseWriter, r *http.Request, handlerName string) (*checkout.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "идентификатор сессии не указан", handlerName)
		return nil, false
	}

	checkoutSession, found := h.sessions.Get(r.Context(), sessionID)
	if !found {
		respondWithError(w, http.StatusNotFound, "сессия не найдена", handlerName)
		return nil, false
	}
	return checkoutSession, true
}

// respondWithJSON вспомогательная функция для отправки JSON-ответов.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string, handlerName string) {
	metrics.HttpRequestsTotal.WithLabelValues(handlerName, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, map[string]string{"error": message})
}
