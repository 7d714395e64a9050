package checkout

import (
	"time"

	"github.com/google/uuid"

	"storefront/internal/model"
	"storefront/internal/validator"
)

// AssembleDraft собирает неизменяемый черновик заказа из текущего состояния
// сессии. Это последний барьер перед сетевым вызовом: при любом нарушении
// инвариантов возвращается *ValidationError со всеми нарушениями сразу,
// частичный черновик не создается.
func (s *Session) AssembleDraft() (*model.OrderDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Без изменений состояния повторная сборка возвращает тот же черновик:
	// Idempotency-Key повторной отправки совпадает с первоначальным.
	if s.draft != nil {
		return s.draft, nil
	}

	verr := &ValidationError{}

	if s.deliveryMethod == "" {
		verr.add("способ доставки не выбран")
	} else if !s.eligibility.DeliveryAllowed(s.deliveryMethod) {
		verr.add("способ доставки %s недопустим", s.deliveryMethod)
	}

	switch s.deliveryMethod {
	case model.DeliveryHome:
		if s.address == nil {
			verr.add("адрес доставки не задан")
		} else {
			if err := validator.ValidateStruct(s.address); err != nil {
				verr.add("адрес доставки неполон: %v", err)
			}
			if zone, ok := s.activeZoneLocked(); ok && s.subtotal.LessThan(zone.MinOrderValue) {
				verr.add("сумма заказа %s меньше минимальной %s для зоны %s",
					s.subtotal, zone.MinOrderValue, zone.Governorate)
			}
		}
	case model.DeliveryPickup:
		if s.pickup == nil {
			verr.add("пункт самовывоза не выбран")
		}
	}

	if s.payment.Method == "" {
		verr.add("метод оплаты не выбран")
	} else if !s.eligibility.PaymentAllowed(s.payment.Method) {
		verr.add("метод оплаты %s недопустим", s.payment.Method)
	}
	if err := s.payment.Validate(); err != nil {
		verr.add("%v", err)
	}
	if s.payment.Method == model.PaymentEWalletTransfer && s.payment.EWallet == nil {
		verr.add("провайдер кошелька не выбран")
	}

	// Инварианты корзины перепроверяются независимо от Eligibility:
	// сборщик не доверяет более ранним слоям.
	s.checkCartInvariantsLocked(verr)

	if !s.documents.IsComplete() {
		verr.add("загружены не все обязательные документы")
	}

	// Суммы вычисляются только здесь, из входов; извне они не принимаются.
	amounts, err := s.amountsLocked()
	if err != nil {
		verr.add("%v", err)
	}

	if len(verr.Violations) > 0 {
		return nil, verr
	}

	draft := &model.OrderDraft{
		DraftID:        uuid.New().String(),
		Lines:          append([]model.CartLine(nil), s.lines...),
		DeliveryMethod: s.deliveryMethod,
		Payment:        s.payment,
		Amounts:        amounts,
		Documents:      s.documents.Snapshot(),
		CreatedAt:      time.Now(),
	}
	if s.address != nil {
		addr := *s.address
		draft.Address = &addr
	}
	if s.pickup != nil {
		loc := *s.pickup
		draft.Pickup = &loc
	}
	s.draft = draft
	return draft, nil
}

// checkCartInvariantsLocked перепроверяет инварианты состава корзины для
// выбранного метода оплаты; мьютекс должен быть захвачен вызывающим.
func (s *Session) checkCartInvariantsLocked(verr *ValidationError) {
	anyPrepayRequired := false
	installmentEligibleCount := 0
	allCODEligible := true

	for _, line := range s.lines {
		if s.settings.RequiresPrepay(line.CategoryTag) {
			anyPrepayRequired = true
		}
		if line.InstallmentEligible {
			installmentEligibleCount++
		}
		if !s.settings.IsCODEligible(line.CategoryTag) {
			allCODEligible = false
		}
	}

	if s.payment.Method == model.PaymentCashOnDelivery && (anyPrepayRequired || !allCODEligible) {
		verr.add("наложенный платеж недопустим для состава корзины")
	}
	if anyPrepayRequired && !prepayAllowedMethods[s.payment.Method] {
		verr.add("корзина содержит позиции с обязательной предоплатой, метод %s недопустим", s.payment.Method)
	}
	if s.payment.Method.IsInstallment() {
		if installmentEligibleCount == 0 {
			verr.add("в корзине нет позиций, доступных в рассрочку")
		}
		if !s.settings.InstallmentEnabled {
			verr.add("рассрочка отключена настройками")
		}
	}
}

// activeZoneLocked ищет активную зону доставки для текущего губернаторства.
func (s *Session) activeZoneLocked() (model.DeliveryZone, bool) {
	for _, zone := range s.zones {
		if zone.Active && zone.Governorate == s.governorate {
			return zone, true
		}
	}
	return model.DeliveryZone{}, false
}
