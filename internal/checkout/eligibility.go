package checkout

import (
	"storefront/internal/model"
)

// Коды причин исключения метода оплаты. Отдаются клиенту как есть,
// текст для пользователя формирует UI.
const (
	ReasonDisabledByConfig   = "disabled_by_configuration"
	ReasonPrepayRequired     = "prepay_required_in_cart"
	ReasonNonCODCategory     = "cart_contains_non_cod_categories"
	ReasonNoInstallmentItems = "no_installment_eligible_items"
)

// allPaymentMethods - фиксированный порядок приоритета выбора метода по
// умолчанию: кошельки раньше наложенного платежа, наложенный платеж раньше
// рассрочки.
var allPaymentMethods = []model.PaymentMethod{
	model.PaymentEWalletTransfer,
	model.PaymentWePay,
	model.PaymentGooglePay,
	model.PaymentBankTransfer,
	model.PaymentCashOnDelivery,
	model.PaymentPartial50,
	model.PaymentFull,
	model.PaymentInstallment4,
	model.PaymentInstallment6,
	model.PaymentInstallment12,
	model.PaymentInstallment24,
}

// allDeliveryMethods - порядок приоритета способов доставки: на дом раньше самовывоза.
var allDeliveryMethods = []model.DeliveryMethod{
	model.DeliveryHome,
	model.DeliveryPickup,
}

// prepayAllowedMethods - методы, допустимые при наличии в корзине позиции,
// требующей предоплату.
var prepayAllowedMethods = map[model.PaymentMethod]bool{
	model.PaymentPartial50:       true,
	model.PaymentFull:            true,
	model.PaymentEWalletTransfer: true,
}

// Eligibility - результат оценки корзины: допустимые наборы методов и
// причины исключения.
type Eligibility struct {
	AllowedDeliveryMethods map[model.DeliveryMethod]bool  `json:"allowed_delivery_methods"`
	AllowedPaymentMethods  map[model.PaymentMethod]bool   `json:"allowed_payment_methods"`
	ExclusionReasons       map[model.PaymentMethod]string `json:"exclusion_reasons"`
}

// DeliveryAllowed сообщает, допустим ли способ доставки.
func (e Eligibility) DeliveryAllowed(m model.DeliveryMethod) bool {
	return e.AllowedDeliveryMethods[m]
}

// PaymentAllowed сообщает, допустим ли метод оплаты.
func (e Eligibility) PaymentAllowed(m model.PaymentMethod) bool {
	return e.AllowedPaymentMethods[m]
}

// FirstAllowedDelivery возвращает первый допустимый способ доставки по
// порядку приоритета (пустая строка, если все отключены).
func (e Eligibility) FirstAllowedDelivery() model.DeliveryMethod {
	for _, m := range allDeliveryMethods {
		if e.AllowedDeliveryMethods[m] {
			return m
		}
	}
	return ""
}

// FirstAllowedPayment возвращает первый допустимый метод оплаты по порядку
// приоритета (пустая строка, если допустимых нет).
func (e Eligibility) FirstAllowedPayment() model.PaymentMethod {
	for _, m := range allPaymentMethods {
		if e.AllowedPaymentMethods[m] {
			return m
		}
	}
	return ""
}

// Evaluate - чистая функция: по снимку корзины и настройкам вычисляет
// допустимые способы доставки и оплаты. Вызывается заново при каждом
// изменении корзины, состояние не изменяет.
//
// Правила:
//   - наложенный платеж допустим, только если все позиции из COD-категорий
//     и ни одна не требует предоплату;
//   - позиция с предоплатой ограничивает выбор методами
//     PARTIAL_PAYMENT_50 / FULL_PAYMENT / E_WALLET_TRANSFER;
//   - рассрочка требует хотя бы одну подходящую позицию и включенный флаг.
func Evaluate(lines []model.CartLine, settings model.Settings) Eligibility {
	allCODEligible := true
	anyPrepayRequired := false
	installmentEligibleCount := 0

	for _, line := range lines {
		if !settings.IsCODEligible(line.CategoryTag) {
			allCODEligible = false
		}
		if settings.RequiresPrepay(line.CategoryTag) {
			anyPrepayRequired = true
		}
		if line.InstallmentEligible {
			installmentEligibleCount++
		}
	}

	result := Eligibility{
		AllowedDeliveryMethods: make(map[model.DeliveryMethod]bool, len(allDeliveryMethods)),
		AllowedPaymentMethods:  make(map[model.PaymentMethod]bool, len(allPaymentMethods)),
		ExclusionReasons:       make(map[model.PaymentMethod]string),
	}

	// Доступность доставки передается из конфигурации без изменений.
	result.AllowedDeliveryMethods[model.DeliveryHome] = settings.HomeDeliveryEnabled
	result.AllowedDeliveryMethods[model.DeliveryPickup] = settings.StorePickupEnabled

	for _, method := range allPaymentMethods {
		if !settings.PaymentMethodEnabled(method) {
			result.ExclusionReasons[method] = ReasonDisabledByConfig
			continue
		}

		if anyPrepayRequired && !prepayAllowedMethods[method] {
			result.ExclusionReasons[method] = ReasonPrepayRequired
			continue
		}

		if method == model.PaymentCashOnDelivery && !allCODEligible {
			result.ExclusionReasons[method] = ReasonNonCODCategory
			continue
		}

		if method.IsInstallment() && installmentEligibleCount == 0 {
			result.ExclusionReasons[method] = ReasonNoInstallmentItems
			continue
		}

		result.AllowedPaymentMethods[method] = true
	}

	return result
}
