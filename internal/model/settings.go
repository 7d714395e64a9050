package model

import "github.com/shopspring/decimal"

// Настройки читаются из key/value-хранилища один раз за сессию оформления
// и передаются в вычисления по значению, чтобы те оставались чистыми функциями.
//
// Ключи хранилища: delivery_method_home, delivery_method_store_pickup,
// payment_method_* (по одному флагу на метод), min_down_payment_percent,
// default_delivery_fee, cod_eligible_categories, prepay_required_categories.
type Settings struct {
	HomeDeliveryEnabled bool
	StorePickupEnabled  bool

	CashOnDeliveryEnabled  bool
	BankTransferEnabled    bool
	EWalletTransferEnabled bool
	WePayEnabled           bool
	GooglePayEnabled       bool
	InstallmentEnabled     bool
	PartialPaymentEnabled  bool
	FullPaymentEnabled     bool

	// Минимальный процент предоплаты при самовывозе.
	MinDownPaymentPercent decimal.Decimal
	// Тариф доставки для губернаторства без активной зоны.
	DefaultDeliveryFee decimal.Decimal

	// Категории, допускающие наложенный платеж (одежда и т.п.).
	CODEligibleCategories []CategoryTag
	// Категории, требующие предоплату (трансграничный дропшиппинг и т.п.).
	PrepayRequiredCategories []CategoryTag
}

// DefaultSettings возвращает настройки, действующие при отсутствии ключей в хранилище.
func DefaultSettings() Settings {
	return Settings{
		HomeDeliveryEnabled:    true,
		StorePickupEnabled:     true,
		CashOnDeliveryEnabled:  true,
		BankTransferEnabled:    true,
		EWalletTransferEnabled: true,
		WePayEnabled:           true,
		GooglePayEnabled:       true,
		InstallmentEnabled:     true,
		PartialPaymentEnabled:  true,
		FullPaymentEnabled:     true,
		MinDownPaymentPercent:  decimal.NewFromInt(30),
		DefaultDeliveryFee:     decimal.NewFromInt(50),
		CODEligibleCategories: []CategoryTag{
			"clothing", "shoes", "accessories",
		},
		PrepayRequiredCategories: []CategoryTag{
			"dropship", "imported",
		},
	}
}

// PaymentMethodEnabled сообщает, включен ли метод оплаты флагом конфигурации.
func (s Settings) PaymentMethodEnabled(m PaymentMethod) bool {
	switch m {
	case PaymentCashOnDelivery:
		return s.CashOnDeliveryEnabled
	case PaymentBankTransfer:
		return s.BankTransferEnabled
	case PaymentEWalletTransfer:
		return s.EWalletTransferEnabled
	case PaymentWePay:
		return s.WePayEnabled
	case PaymentGooglePay:
		return s.GooglePayEnabled
	case PaymentPartial50:
		return s.PartialPaymentEnabled
	case PaymentFull:
		return s.FullPaymentEnabled
	default:
		if m.IsInstallment() {
			return s.InstallmentEnabled
		}
		return false
	}
}

// IsCODEligible сообщает, допускает ли категория наложенный платеж.
func (s Settings) IsCODEligible(tag CategoryTag) bool {
	for _, t := range s.CODEligibleCategories {
		if t == tag {
			return true
		}
	}
	return false
}

// RequiresPrepay сообщает, требует ли категория предоплату.
func (s Settings) RequiresPrepay(tag CategoryTag) bool {
	for _, t := range s.PrepayRequiredCategories {
		if t == tag {
			return true
		}
	}
	return false
}
