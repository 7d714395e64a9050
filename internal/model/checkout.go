package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DeliveryMethod определяет способ получения заказа.
type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "HOME_DELIVERY"
	DeliveryPickup DeliveryMethod = "STORE_PICKUP"
)

// PaymentMethod определяет способ оплаты заказа.
type PaymentMethod string

const (
	PaymentCashOnDelivery  PaymentMethod = "CASH_ON_DELIVERY"
	PaymentBankTransfer    PaymentMethod = "BANK_TRANSFER"
	PaymentEWalletTransfer PaymentMethod = "E_WALLET_TRANSFER"
	PaymentWePay           PaymentMethod = "WE_PAY"
	PaymentGooglePay       PaymentMethod = "GOOGLE_PAY"
	PaymentInstallment4    PaymentMethod = "INSTALLMENT_4"
	PaymentInstallment6    PaymentMethod = "INSTALLMENT_6"
	PaymentInstallment12   PaymentMethod = "INSTALLMENT_12"
	PaymentInstallment24   PaymentMethod = "INSTALLMENT_24"
	PaymentPartial50       PaymentMethod = "PARTIAL_PAYMENT_50"
	PaymentFull            PaymentMethod = "FULL_PAYMENT"
)

// InstallmentMonths возвращает число месяцев для рассрочки (0 для остальных методов).
func (m PaymentMethod) InstallmentMonths() int {
	switch m {
	case PaymentInstallment4:
		return 4
	case PaymentInstallment6:
		return 6
	case PaymentInstallment12:
		return 12
	case PaymentInstallment24:
		return 24
	default:
		return 0
	}
}

// IsInstallment сообщает, является ли метод рассрочкой.
func (m PaymentMethod) IsInstallment() bool {
	return m.InstallmentMonths() > 0
}

// EWalletProvider - провайдер мобильного кошелька для ручного перевода.
type EWalletProvider string

const (
	WalletVodafoneCash EWalletProvider = "vodafone_cash"
	WalletOrangeCash   EWalletProvider = "orange_cash"
	WalletEtisalatCash EWalletProvider = "etisalat_cash"
	WalletWePay        EWalletProvider = "we_pay_wallet"
)

// CategoryTag - категория товара, от нее зависит допустимость наложенного платежа.
type CategoryTag string

// CartLine - неизменяемый снимок позиции корзины на момент начала оформления.
type CartLine struct {
	ProductID           string          `json:"product_id" db:"product_id" validate:"required"`
	Quantity            int             `json:"quantity" db:"quantity" validate:"gte=1"`
	UnitPrice           decimal.Decimal `json:"unit_price" db:"unit_price"`
	CategoryTag         CategoryTag     `json:"category_tag" db:"category_tag" validate:"required"`
	InstallmentEligible bool            `json:"installment_eligible" db:"installment_eligible"`
}

// LineTotal возвращает стоимость позиции (цена × количество).
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal суммирует стоимость всех позиций корзины.
func Subtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// DeliveryZone - зона доставки с фиксированным тарифом. Только для чтения.
type DeliveryZone struct {
	Governorate   string          `json:"governorate" db:"governorate"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	MinOrderValue decimal.Decimal `json:"min_order_value" db:"min_order_value"`
	Active        bool            `json:"active" db:"active"`
}

// Address - адрес доставки. Обязательность полей проверяется только
// при выборе доставки на дом.
type Address struct {
	Title          string `json:"title" validate:"required"`
	FullName       string `json:"full_name" validate:"required"`
	Phone          string `json:"phone" validate:"required,e164"`
	AlternatePhone string `json:"alternate_phone,omitempty" validate:"omitempty,e164"`
	Governorate    string `json:"governorate" validate:"required"`
	City           string `json:"city" validate:"required"`
	District       string `json:"district" validate:"required"`
	Street         string `json:"street" validate:"required"`
	Building       string `json:"building,omitempty"`
	Floor          string `json:"floor,omitempty"`
	Apartment      string `json:"apartment,omitempty"`
	Landmark       string `json:"landmark,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	IsDefault      bool   `json:"is_default"`
}

// PickupLocation - адрес магазина для самовывоза, выбирается из настроенного списка.
type PickupLocation struct {
	Address string `json:"address" validate:"required"`
}

// InstallmentPlan - график рассрочки: первый платеж и равные ежемесячные.
type InstallmentPlan struct {
	Months            int             `json:"months" validate:"oneof=4 6 12 24"`
	FirstPayment      decimal.Decimal `json:"first_payment"`
	MonthlyAmount     decimal.Decimal `json:"monthly_amount"`
	RemainingPayments int             `json:"remaining_payments"`
}

// PaymentSelection - выбранный способ оплаты с суб-состоянием, зависящим от метода.
// EWallet заполняется только для E_WALLET_TRANSFER, Installment - только для
// INSTALLMENT_*. Комбинация проверяется методом Validate.
type PaymentSelection struct {
	Method      PaymentMethod    `json:"method" validate:"required"`
	EWallet     *EWalletProvider `json:"e_wallet_provider,omitempty"`
	Installment *InstallmentPlan `json:"installment_plan,omitempty"`
}

// Validate отклоняет суб-состояние, не соответствующее выбранному методу.
func (p PaymentSelection) Validate() error {
	if p.EWallet != nil && p.Method != PaymentEWalletTransfer {
		return fmt.Errorf("провайдер кошелька не применим к методу %s", p.Method)
	}
	if p.Installment != nil && !p.Method.IsInstallment() {
		return fmt.Errorf("график рассрочки не применим к методу %s", p.Method)
	}
	if p.Method.IsInstallment() && p.Installment != nil && p.Installment.Months != p.Method.InstallmentMonths() {
		return fmt.Errorf("график рассрочки на %d мес. не соответствует методу %s", p.Installment.Months, p.Method)
	}
	return nil
}

// SlotName - имя слота обязательного документа.
type SlotName string

const (
	SlotBankReceipt         SlotName = "bankReceipt"
	SlotEWalletReceipt      SlotName = "eWalletReceipt"
	SlotWePayReceipt        SlotName = "wePayReceipt"
	SlotIDCardFront         SlotName = "idCardFront"
	SlotIDCardBack          SlotName = "idCardBack"
	SlotSignedPromissory    SlotName = "signedPromissoryNote"
	SlotFirstPaymentReceipt SlotName = "firstPaymentReceipt"
)

// DocumentSlot - слот для одного подтверждающего документа.
// Пустой AssetReference означает, что документ еще не загружен.
type DocumentSlot struct {
	Name           SlotName `json:"name"`
	AssetReference string   `json:"asset_reference,omitempty"`
	Required       bool     `json:"required"`
}

// Attached сообщает, загружен ли документ в слот.
func (s DocumentSlot) Attached() bool {
	return s.AssetReference != ""
}

// Amounts - вычисленные суммы заказа. Все значения округлены до 2 знаков.
type Amounts struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	DownPayment     decimal.Decimal `json:"down_payment"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PayableNow      decimal.Decimal `json:"payable_now"`
}
