package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/model"
)

// helperZones - зоны доставки для тестов
var helperZones = []model.DeliveryZone{
	{Governorate: "Cairo", DeliveryFee: decimal.NewFromInt(30), MinOrderValue: decimal.Zero, Active: true},
	{Governorate: "Aswan", DeliveryFee: decimal.NewFromInt(80), MinOrderValue: decimal.NewFromInt(200), Active: true},
	{Governorate: "Sinai", DeliveryFee: decimal.NewFromInt(120), MinOrderValue: decimal.Zero, Active: false},
}

func TestDeliveryFeeFor(t *testing.T) {
	assertions := assert.New(t)
	defaultFee := decimal.NewFromInt(65)

	// Точное совпадение активной зоны
	assertions.Equal("30.00", DeliveryFeeFor("Cairo", helperZones, defaultFee).StringFixed(2))

	// Неактивная зона не участвует в поиске
	assertions.Equal("65.00", DeliveryFeeFor("Sinai", helperZones, defaultFee).StringFixed(2))

	// Неизвестное губернаторство - тариф по умолчанию
	assertions.Equal("65.00", DeliveryFeeFor("Matrouh", helperZones, defaultFee).StringFixed(2))
}

func TestCalculateAmounts_StorePickup(t *testing.T) {
	assertions := assert.New(t)

	// Самовывоз: предоплата 30% от 1000 - ровно 300.00, остаток 700.00
	amounts, err := CalculateAmounts(
		model.DeliveryPickup, "", nil,
		model.PaymentSelection{Method: model.PaymentCashOnDelivery},
		decimal.NewFromInt(1000), model.DefaultSettings(),
	)

	assertions.NoError(err)
	assertions.Equal("300.00", amounts.DownPayment.StringFixed(2))
	assertions.Equal("700.00", amounts.RemainingAmount.StringFixed(2))
	assertions.Equal("300.00", amounts.PayableNow.StringFixed(2))
	assertions.Equal("0.00", amounts.DeliveryFee.StringFixed(2))
}

func TestCalculateAmounts_HomePartial50(t *testing.T) {
	assertions := assert.New(t)

	// Половина от 600 плюс тариф 30: к оплате сейчас 330.00, при получении 300.00
	amounts, err := CalculateAmounts(
		model.DeliveryHome, "Cairo", helperZones,
		model.PaymentSelection{Method: model.PaymentPartial50},
		decimal.NewFromInt(600), model.DefaultSettings(),
	)

	assertions.NoError(err)
	assertions.Equal("30.00", amounts.DeliveryFee.StringFixed(2))
	assertions.Equal("300.00", amounts.DownPayment.StringFixed(2))
	assertions.Equal("300.00", amounts.RemainingAmount.StringFixed(2))
	assertions.Equal("330.00", amounts.PayableNow.StringFixed(2))
}

func TestCalculateAmounts_HomeSimpleMethods(t *testing.T) {
	assertions := assert.New(t)

	for _, method := range []model.PaymentMethod{
		model.PaymentCashOnDelivery,
		model.PaymentBankTransfer,
		model.PaymentEWalletTransfer,
		model.PaymentWePay,
		model.PaymentGooglePay,
	} {
		amounts, err := CalculateAmounts(
			model.DeliveryHome, "Cairo", helperZones,
			model.PaymentSelection{Method: method},
			decimal.NewFromInt(500), model.DefaultSettings(),
		)

		assertions.NoError(err)
		assertions.Equal("0.00", amounts.DownPayment.StringFixed(2), string(method))
		assertions.Equal("0.00", amounts.RemainingAmount.StringFixed(2), string(method))
		assertions.Equal("530.00", amounts.PayableNow.StringFixed(2), string(method))
	}
}

func TestCalculateAmounts_HomeFullPayment(t *testing.T) {
	assertions := assert.New(t)

	amounts, err := CalculateAmounts(
		model.DeliveryHome, "Cairo", helperZones,
		model.PaymentSelection{Method: model.PaymentFull},
		decimal.NewFromInt(500), model.DefaultSettings(),
	)

	assertions.NoError(err)
	assertions.Equal("500.00", amounts.DownPayment.StringFixed(2))
	assertions.Equal("0.00", amounts.RemainingAmount.StringFixed(2))
	assertions.Equal("530.00", amounts.PayableNow.StringFixed(2))
}

func TestCalculateAmounts_HomeInstallment(t *testing.T) {
	assertions := assert.New(t)

	// Рассрочка на 4 месяца от 1000: первый взнос 250, тариф доставки
	// в первый платеж не входит
	amounts, err := CalculateAmounts(
		model.DeliveryHome, "Cairo", helperZones,
		model.PaymentSelection{Method: model.PaymentInstallment4},
		decimal.NewFromInt(1000), model.DefaultSettings(),
	)

	assertions.NoError(err)
	assertions.Equal("30.00", amounts.DeliveryFee.StringFixed(2))
	assertions.Equal("250.00", amounts.DownPayment.StringFixed(2))
	assertions.Equal("750.00", amounts.RemainingAmount.StringFixed(2))
	assertions.Equal("250.00", amounts.PayableNow.StringFixed(2))
}

func TestCalculateAmounts_UnknownMethod(t *testing.T) {
	assertions := assert.New(t)

	_, err := CalculateAmounts(
		model.DeliveryHome, "Cairo", helperZones,
		model.PaymentSelection{Method: "BARTER"},
		decimal.NewFromInt(100), model.DefaultSettings(),
	)
	assertions.Error(err)
}

func TestBuildInstallmentPlan(t *testing.T) {
	assertions := assert.New(t)

	plan, err := BuildInstallmentPlan(model.PaymentInstallment6, decimal.NewFromInt(1000))
	assertions.NoError(err)
	assertions.Equal(6, plan.Months)
	assertions.Equal(5, plan.RemainingPayments)
	// 1000/6 = 166.67, остаток 833.33 на 5 платежей по 166.67
	assertions.Equal("166.67", plan.FirstPayment.StringFixed(2))
	assertions.Equal("166.67", plan.MonthlyAmount.StringFixed(2))

	// Первый платеж и остаток в сумме дают subtotal
	total := plan.FirstPayment.Add(decimal.NewFromInt(1000).Sub(plan.FirstPayment))
	assertions.Equal("1000.00", total.StringFixed(2))

	_, err = BuildInstallmentPlan(model.PaymentCashOnDelivery, decimal.NewFromInt(1000))
	assertions.Error(err)
}
