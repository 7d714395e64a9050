package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// two - общий делитель для PARTIAL_PAYMENT_50.
var two = decimal.NewFromInt(2)

var oneHundred = decimal.NewFromInt(100)

// DeliveryFeeFor ищет тариф доставки точным совпадением губернаторства среди
// активных зон; при отсутствии зоны действует тариф по умолчанию.
func DeliveryFeeFor(governorate string, zones []model.DeliveryZone, defaultFee decimal.Decimal) decimal.Decimal {
	for _, zone := range zones {
		if zone.Active && zone.Governorate == governorate {
			return zone.DeliveryFee
		}
	}
	return defaultFee
}

// BuildInstallmentPlan строит график рассрочки для метода INSTALLMENT_*:
// первый платеж subtotal/N, остаток равными долями на N-1 месяцев.
func BuildInstallmentPlan(method model.PaymentMethod, subtotal decimal.Decimal) (*model.InstallmentPlan, error) {
	months := method.InstallmentMonths()
	if months == 0 {
		return nil, fmt.Errorf("метод %s не является рассрочкой", method)
	}

	firstPayment := subtotal.Div(decimal.NewFromInt(int64(months))).Round(2)
	remainder := subtotal.Sub(firstPayment)
	monthly := remainder.Div(decimal.NewFromInt(int64(months - 1))).Round(2)

	return &model.InstallmentPlan{
		Months:            months,
		FirstPayment:      firstPayment,
		MonthlyAmount:     monthly,
		RemainingPayments: months - 1,
	}, nil
}

// CalculateAmounts - чистая функция расчета сумм заказа по таблице правил.
// Все значения округляются до валютной точности (2 знака), иных неявных
// округлений нет.
//
// Самовывоз: предоплата subtotal × percent / 100, доставка бесплатна,
// к оплате сейчас - только предоплата, независимо от метода оплаты.
//
// Доставка на дом:
//   - обычные методы: все сразу, subtotal + тариф;
//   - PARTIAL_PAYMENT_50: половина + тариф сейчас, половина при получении;
//   - FULL_PAYMENT: все сразу, subtotal + тариф;
//   - INSTALLMENT_N: сейчас только первый взнос subtotal/N, тариф доставки
//     в первый платеж не входит (взимается оператором отдельно).
func CalculateAmounts(
	deliveryMethod model.DeliveryMethod,
	governorate string,
	zones []model.DeliveryZone,
	payment model.PaymentSelection,
	subtotal decimal.Decimal,
	settings model.Settings,
) (model.Amounts, error) {
	subtotal = subtotal.Round(2)

	if deliveryMethod == model.DeliveryPickup {
		downPayment := subtotal.Mul(settings.MinDownPaymentPercent).Div(oneHundred).Round(2)
		return model.Amounts{
			Subtotal:        subtotal,
			DeliveryFee:     decimal.Zero,
			DownPayment:     downPayment,
			RemainingAmount: subtotal.Sub(downPayment),
			PayableNow:      downPayment,
		}, nil
	}

	if deliveryMethod != model.DeliveryHome {
		return model.Amounts{}, fmt.Errorf("неизвестный способ доставки: %q", deliveryMethod)
	}

	deliveryFee := DeliveryFeeFor(governorate, zones, settings.DefaultDeliveryFee).Round(2)

	amounts := model.Amounts{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
	}

	switch {
	case payment.Method == model.PaymentCashOnDelivery,
		payment.Method == model.PaymentBankTransfer,
		payment.Method == model.PaymentEWalletTransfer,
		payment.Method == model.PaymentWePay,
		payment.Method == model.PaymentGooglePay:
		amounts.DownPayment = decimal.Zero
		amounts.RemainingAmount = decimal.Zero
		amounts.PayableNow = subtotal.Add(deliveryFee)

	case payment.Method == model.PaymentPartial50:
		amounts.DownPayment = subtotal.Div(two).Round(2)
		amounts.RemainingAmount = subtotal.Sub(amounts.DownPayment)
		amounts.PayableNow = amounts.DownPayment.Add(deliveryFee)

	case payment.Method == model.PaymentFull:
		amounts.DownPayment = subtotal
		amounts.RemainingAmount = decimal.Zero
		amounts.PayableNow = subtotal.Add(deliveryFee)

	case payment.Method.IsInstallment():
		plan, err := BuildInstallmentPlan(payment.Method, subtotal)
		if err != nil {
			return model.Amounts{}, err
		}
		amounts.DownPayment = plan.FirstPayment
		amounts.RemainingAmount = subtotal.Sub(plan.FirstPayment)
		// Тариф доставки намеренно не включается в первый платеж.
		amounts.PayableNow = plan.FirstPayment

	default:
		return model.Amounts{}, fmt.Errorf("неизвестный метод оплаты: %q", payment.Method)
	}

	return amounts, nil
}
