package checkout

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// Session - состояние одной сессии оформления заказа. Все переходы
// инициируются одним пользователем и ограничены наборами, вычисленными
// при создании сессии: недопустимый выбор отклоняется на границе, поэтому
// ни одно нелегальное состояние дальше не представимо.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	lines       []model.CartLine
	subtotal    decimal.Decimal
	zones       []model.DeliveryZone
	settings    model.Settings
	eligibility Eligibility
	governorate string

	deliveryMethod model.DeliveryMethod
	address        *model.Address
	pickup         *model.PickupLocation
	payment        model.PaymentSelection
	documents      *DocumentCollector

	// Последний собранный черновик; сбрасывается при любом изменении
	// состояния, чтобы повторная отправка несла тот же Idempotency-Key.
	draft *model.OrderDraft

	// Флаг "отправка выполняется": блокирует повторный submit до получения
	// терминального ответа.
	submitInFlight atomic.Bool
}

// SessionState - снимок сессии для выдачи клиенту.
type SessionState struct {
	SessionID      string                 `json:"session_id"`
	Lines          []model.CartLine       `json:"lines"`
	Eligibility    Eligibility            `json:"eligibility"`
	DeliveryMethod model.DeliveryMethod   `json:"delivery_method,omitempty"`
	Address        *model.Address         `json:"delivery_address,omitempty"`
	Pickup         *model.PickupLocation  `json:"pickup_location,omitempty"`
	Payment        model.PaymentSelection `json:"payment"`
	Amounts        *model.Amounts         `json:"amounts,omitempty"`
	Documents      []model.DocumentSlot   `json:"documents"`
	SubmitInFlight bool                   `json:"submit_in_flight"`
}

// NewSession создает сессию из снимка корзины. Зоны и настройки
// фиксируются на всю сессию. Начальное состояние - первые допустимые
// способы доставки и оплаты по порядку приоритета.
func NewSession(id string, lines []model.CartLine, zones []model.DeliveryZone, settings model.Settings, governorate string) (*Session, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("корзина пуста")
	}

	snapshot := make([]model.CartLine, len(lines))
	copy(snapshot, lines)

	eligibility := Evaluate(snapshot, settings)

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		lines:       snapshot,
		subtotal:    model.Subtotal(snapshot),
		zones:       zones,
		settings:    settings,
		eligibility: eligibility,
		governorate: governorate,
	}

	s.deliveryMethod = eligibility.FirstAllowedDelivery()
	initialPayment := eligibility.FirstAllowedPayment()
	s.payment = model.PaymentSelection{Method: initialPayment}
	if initialPayment.IsInstallment() {
		plan, err := BuildInstallmentPlan(initialPayment, s.subtotal)
		if err != nil {
			return nil, err
		}
		s.payment.Installment = plan
	}
	s.documents = NewDocumentCollector(initialPayment)

	return s, nil
}

// Eligibility возвращает допустимые наборы, вычисленные для снимка корзины.
func (s *Session) Eligibility() Eligibility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligibility
}

// Subtotal возвращает сумму позиций снимка корзины.
func (s *Session) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal
}

// SelectDeliveryMethod выбирает способ доставки из допустимого набора.
func (s *Session) SelectDeliveryMethod(method model.DeliveryMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.eligibility.DeliveryAllowed(method) {
		return fmt.Errorf("%w: %s", ErrMethodNotAllowed, method)
	}
	s.deliveryMethod = method
	s.draft = nil
	return nil
}

// SetAddress задает адрес доставки на дом. Полнота полей проверяется при
// сборке черновика; губернаторство сразу влияет на расчет тарифа.
func (s *Session) SetAddress(address model.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := address
	s.address = &addr
	s.pickup = nil
	s.governorate = address.Governorate
	s.draft = nil
}

// SetPickupLocation задает пункт самовывоза. Взаимоисключим с адресом.
func (s *Session) SetPickupLocation(location model.PickupLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc := location
	s.pickup = &loc
	s.address = nil
	s.draft = nil
}

// SelectPaymentMethod выбирает метод оплаты из допустимого набора.
// Суб-состояние прежнего метода сбрасывается, набор слотов документов
// перестраивается: загрузки, не требуемые новым методом, отбрасываются.
func (s *Session) SelectPaymentMethod(method model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.eligibility.PaymentAllowed(method) {
		reason := s.eligibility.ExclusionReasons[method]
		if reason == "" {
			reason = "unknown_method"
		}
		return fmt.Errorf("%w: %s (%s)", ErrMethodNotAllowed, method, reason)
	}

	s.payment = model.PaymentSelection{Method: method}
	if method.IsInstallment() {
		plan, err := BuildInstallmentPlan(method, s.subtotal)
		if err != nil {
			return err
		}
		s.payment.Installment = plan
	}

	s.documents.Resolve(method)
	s.draft = nil
	return nil
}

// SetEWalletProvider задает провайдера кошелька; применим только к
// методу E_WALLET_TRANSFER.
func (s *Session) SetEWalletProvider(provider model.EWalletProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payment.Method != model.PaymentEWalletTransfer {
		return ErrProviderNotApplicable
	}
	p := provider
	s.payment.EWallet = &p
	s.draft = nil
	return nil
}

// AttachDocument сохраняет ссылку на загруженный документ.
func (s *Session) AttachDocument(name model.SlotName, assetReference string) error {
	if err := s.documents.Attach(name, assetReference); err != nil {
		return err
	}
	s.mu.Lock()
	s.draft = nil
	s.mu.Unlock()
	return nil
}

// RemoveDocument очищает слот документа.
func (s *Session) RemoveDocument(name model.SlotName) error {
	if err := s.documents.Remove(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.draft = nil
	s.mu.Unlock()
	return nil
}

// RequiresDocument сообщает, требуется ли слот текущим методом оплаты.
func (s *Session) RequiresDocument(name model.SlotName) bool {
	return s.documents.Requires(name)
}

// DocumentsComplete сообщает, загружены ли все обязательные документы.
func (s *Session) DocumentsComplete() bool {
	return s.documents.IsComplete()
}

// Amounts пересчитывает суммы для текущего состояния сессии.
func (s *Session) Amounts() (model.Amounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amountsLocked()
}

// amountsLocked - расчет сумм; мьютекс должен быть захвачен вызывающим.
func (s *Session) amountsLocked() (model.Amounts, error) {
	return CalculateAmounts(s.deliveryMethod, s.governorate, s.zones, s.payment, s.subtotal, s.settings)
}

// BeginSubmit атомарно поднимает флаг отправки. Возвращает false, если
// отправка уже выполняется: повторный вызов молча подавляется выше.
func (s *Session) BeginSubmit() bool {
	return s.submitInFlight.CompareAndSwap(false, true)
}

// EndSubmit опускает флаг отправки после терминального ответа.
func (s *Session) EndSubmit() {
	s.submitInFlight.Store(false)
}

// State возвращает снимок сессии для клиента. Суммы опускаются, если для
// текущего состояния их еще нельзя рассчитать.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		SessionID:      s.ID,
		Lines:          append([]model.CartLine(nil), s.lines...),
		Eligibility:    s.eligibility,
		DeliveryMethod: s.deliveryMethod,
		Payment:        s.payment,
		Documents:      s.documents.Snapshot(),
		SubmitInFlight: s.submitInFlight.Load(),
	}
	if s.address != nil {
		addr := *s.address
		state.Address = &addr
	}
	if s.pickup != nil {
		loc := *s.pickup
		state.Pickup = &loc
	}
	if amounts, err := s.amountsLocked(); err == nil {
		state.Amounts = &amounts
	}
	return state
}
