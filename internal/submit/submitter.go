package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/checkout"
	"storefront/internal/metrics"
	"storefront/internal/model"
)

//go:generate mockgen -source=submitter.go -destination=./mocks/submitter_mock.go -package=mocks Submitter

// Submitter определяет интерфейс однократной отправки собранного черновика
// во внешний сервис заказов.
type Submitter interface {
	Submit(ctx context.Context, session *checkout.Session, draft *model.OrderDraft) (*model.Order, error)
}

// SubmitError - отказ сервиса заказов. Код и сообщение передаются клиенту
// дословно, как их вернул сервис.
type SubmitError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("сервис заказов отклонил заявку: %s (%s)", e.Message, e.Code)
}

// orderItem - позиция заказа в формате сервиса заказов.
type orderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// orderRequest - тело запроса POST /orders.
type orderRequest struct {
	Items              []orderItem               `json:"items"`
	DeliveryMethod     model.DeliveryMethod      `json:"deliveryMethod"`
	DeliveryAddress    *model.Address            `json:"deliveryAddress,omitempty"`
	PickupLocation     string                    `json:"pickupLocation,omitempty"`
	PaymentMethod      model.PaymentMethod       `json:"paymentMethod"`
	DeliveryFee        decimal.Decimal           `json:"deliveryFee"`
	DownPayment        *decimal.Decimal          `json:"downPayment,omitempty"`
	RemainingAmount    *decimal.Decimal          `json:"remainingAmount,omitempty"`
	EWalletProvider    *model.EWalletProvider    `json:"eWalletProvider,omitempty"`
	InstallmentPlan    *model.InstallmentPlan    `json:"installmentPlan,omitempty"`
	DocumentReferences map[model.SlotName]string `json:"documentReferences,omitempty"`
}

// orderResponse - успешный ответ сервиса заказов.
type orderResponse struct {
	ID          int64             `json:"id"`
	OrderNumber string            `json:"orderNumber"`
	Status      model.OrderStatus `json:"status"`
}

// errorResponse - тело ответа при отказе.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// restySubmitter отправляет заказы через resty с circuit breaker'ом:
// при серии сетевых отказов внешнего сервиса запросы отсекаются сразу,
// не дожидаясь таймаута.
type restySubmitter struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
}

// NewSubmitter создает клиента сервиса заказов.
func NewSubmitter(baseURL string) Submitter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "order-service",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &restySubmitter{
		client:  client,
		breaker: breaker,
		tracer:  otel.Tracer("order-submitter"),
	}
}

// Submit отправляет ровно один запрос на создание заказа. Повторный вызов,
// пока предыдущий не завершился, подавляется флагом сессии. Заголовок
// Idempotency-Key равен UID черновика, поэтому повтор после сетевой ошибки
// не создаст дубликат на стороне сервиса.
//
// При любой ошибке локальное состояние сессии не изменяется: пользователь
// может исправить данные и отправить заказ снова.
func (s *restySubmitter) Submit(ctx context.Context, session *checkout.Session, draft *model.OrderDraft) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Submitter.Submit")
	defer span.End()

	if !session.BeginSubmit() {
		metrics.OrderSubmissions.WithLabelValues("suppressed_duplicate").Inc()
		return nil, checkout.ErrSubmissionInFlight
	}
	defer session.EndSubmit()

	request := buildRequest(draft)

	result, err := s.breaker.Execute(func() (interface{}, error) {
		var success orderResponse
		var failure errorResponse

		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("Idempotency-Key", draft.DraftID).
			SetBody(request).
			SetResult(&success).
			SetError(&failure).
			Post("/orders")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			// Отказ сервиса - терминальный ответ, breaker его не считает
			// отказом инфраструктуры.
			return &SubmitError{Code: failure.Code, Message: failure.Message}, nil
		}
		return &success, nil
	})
	if err != nil {
		metrics.OrderSubmissions.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("не удалось отправить заказ: %w", err)
	}

	if submitErr, ok := result.(*SubmitError); ok {
		metrics.OrderSubmissions.WithLabelValues("rejected").Inc()
		return nil, submitErr
	}

	response := result.(*orderResponse)
	metrics.OrderSubmissions.WithLabelValues("accepted").Inc()

	return &model.Order{
		ID:          response.ID,
		OrderNumber: response.OrderNumber,
		Status:      response.Status,
	}, nil
}

// buildRequest сериализует черновик в форму запроса сервиса заказов.
func buildRequest(draft *model.OrderDraft) orderRequest {
	items := make([]orderItem, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		items = append(items, orderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
	}

	request := orderRequest{
		Items:           items,
		DeliveryMethod:  draft.DeliveryMethod,
		DeliveryAddress: draft.Address,
		PaymentMethod:   draft.Payment.Method,
		DeliveryFee:     draft.Amounts.DeliveryFee,
		EWalletProvider: draft.Payment.EWallet,
		InstallmentPlan: draft.Payment.Installment,
	}
	if draft.Pickup != nil {
		request.PickupLocation = draft.Pickup.Address
	}
	if !draft.Amounts.DownPayment.IsZero() {
		downPayment := draft.Amounts.DownPayment
		remaining := draft.Amounts.RemainingAmount
		request.DownPayment = &downPayment
		request.RemainingAmount = &remaining
	}
	if refs := draft.DocumentReferences(); len(refs) > 0 {
		request.DocumentReferences = refs
	}
	return request
}
