package checkout

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/model"
)

// helperAddress - полный адрес, проходящий валидацию
func helperAddress() model.Address {
	return model.Address{
		Title:       "Home",
		FullName:    "Ahmed Hassan",
		Phone:       "+201001234567",
		Governorate: "Cairo",
		City:        "Nasr City",
		District:    "First District",
		Street:      "Abbas El-Akkad St. 12",
		IsDefault:   true,
	}
}

// assertViolation проверяет, что ошибка - *ValidationError с нарушениями
func assertViolation(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "ожидался *ValidationError, получено: %v", err)
	assert.NotEmpty(t, verr.Violations)
	return verr
}

func TestAssembleDraft_Success(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	session.SetAddress(helperAddress())
	assertions.NoError(session.SelectPaymentMethod(model.PaymentCashOnDelivery))

	draft, err := session.AssembleDraft()
	assertions.NoError(err)
	assertions.NotNil(draft)

	assertions.NotEmpty(draft.DraftID)
	assertions.Len(draft.Lines, 2)
	assertions.Equal(model.DeliveryHome, draft.DeliveryMethod)
	assertions.NotNil(draft.Address)
	assertions.Nil(draft.Pickup)
	// Суммы вычислены сборщиком из входов: 600 + тариф Каира 30
	assertions.Equal("600.00", draft.Amounts.Subtotal.StringFixed(2))
	assertions.Equal("30.00", draft.Amounts.DeliveryFee.StringFixed(2))
	assertions.Equal("630.00", draft.Amounts.PayableNow.StringFixed(2))
}

func TestAssembleDraft_PickupAmounts(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryPickup))
	session.SetPickupLocation(model.PickupLocation{Address: "Branch 1, Downtown Cairo"})
	assertions.NoError(session.SelectPaymentMethod(model.PaymentCashOnDelivery))

	draft, err := session.AssembleDraft()
	assertions.NoError(err)

	// Самовывоз: предоплата 30%, доставка бесплатна
	assertions.Equal("180.00", draft.Amounts.DownPayment.StringFixed(2))
	assertions.Equal("420.00", draft.Amounts.RemainingAmount.StringFixed(2))
	assertions.Equal("180.00", draft.Amounts.PayableNow.StringFixed(2))
	assertions.Equal("0.00", draft.Amounts.DeliveryFee.StringFixed(2))
}

func TestAssembleDraft_RefusesWithoutRequiredDocuments(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	session.SetAddress(helperAddress())
	assertions.NoError(session.SelectPaymentMethod(model.PaymentBankTransfer))

	// Все поля валидны, но банковская квитанция не загружена
	draft, err := session.AssembleDraft()
	assertions.Nil(draft)
	assertViolation(t, err)

	// После загрузки черновик собирается
	assertions.NoError(session.AttachDocument(model.SlotBankReceipt, "https://cdn.example/receipt.png"))
	draft, err = session.AssembleDraft()
	assertions.NoError(err)
	assertions.Equal("https://cdn.example/receipt.png", draft.DocumentReferences()[model.SlotBankReceipt])
}

func TestAssembleDraft_ReassemblyKeepsDraftID(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	session.SetAddress(helperAddress())
	assertions.NoError(session.SelectPaymentMethod(model.PaymentBankTransfer))
	assertions.NoError(session.AttachDocument(model.SlotBankReceipt, "https://cdn.example/receipt.png"))

	// Повторная сборка без изменений состояния - тот же черновик:
	// именно это делает Idempotency-Key ключом повторной отправки
	first, err := session.AssembleDraft()
	assertions.NoError(err)
	second, err := session.AssembleDraft()
	assertions.NoError(err)
	assertions.Equal(first.DraftID, second.DraftID)
	assertions.Same(first, second)

	// Любая мутация состояния сбрасывает черновик
	assertions.NoError(session.RemoveDocument(model.SlotBankReceipt))
	assertions.NoError(session.AttachDocument(model.SlotBankReceipt, "https://cdn.example/receipt-v2.png"))
	third, err := session.AssembleDraft()
	assertions.NoError(err)
	assertions.NotEqual(first.DraftID, third.DraftID)
}

func TestAssembleDraft_RefusesWithoutAddress(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	assertions.NoError(session.SelectPaymentMethod(model.PaymentCashOnDelivery))

	draft, err := session.AssembleDraft()
	assertions.Nil(draft)
	assertViolation(t, err)
}

func TestAssembleDraft_RefusesIncompleteAddress(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	address := helperAddress()
	address.Phone = "" // Обязательное поле
	session.SetAddress(address)
	assertions.NoError(session.SelectPaymentMethod(model.PaymentCashOnDelivery))

	_, err := session.AssembleDraft()
	assertViolation(t, err)
}

func TestAssembleDraft_RefusesWithoutPickupLocation(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryPickup))
	assertions.NoError(session.SelectPaymentMethod(model.PaymentCashOnDelivery))

	_, err := session.AssembleDraft()
	assertViolation(t, err)
}

func TestAssembleDraft_RefusesWalletWithoutProvider(t *testing.T) {
	assertions := assert.New(t)

	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	session.SetAddress(helperAddress())
	assertions.NoError(session.SelectPaymentMethod(model.PaymentEWalletTransfer))
	assertions.NoError(session.AttachDocument(model.SlotEWalletReceipt, "https://cdn.example/ref"))

	_, err := session.AssembleDraft()
	assertViolation(t, err)

	// С провайдером черновик собирается
	assertions.NoError(session.SetEWalletProvider(model.WalletVodafoneCash))
	draft, err := session.AssembleDraft()
	assertions.NoError(err)
	assertions.Equal(model.WalletVodafoneCash, *draft.Payment.EWallet)
}

func TestAssembleDraft_RefusesBelowZoneMinimum(t *testing.T) {
	assertions := assert.New(t)

	// Зона Асуана требует минимум 200, корзина на 100
	lines := []model.CartLine{
		{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(100), CategoryTag: "clothing"},
	}
	session, err := NewSession("session-1", lines, helperZones, model.DefaultSettings(), "Aswan")
	assertions.NoError(err)

	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))
	address := helperAddress()
	address.Governorate = "Aswan"
	session.SetAddress(address)
	assertions.NoError(session.SelectPaymentMethod(model.PaymentCashOnDelivery))

	_, err = session.AssembleDraft()
	assertViolation(t, err)
}

func TestAssembleDraft_CollectsAllViolationsAtOnce(t *testing.T) {
	assertions := assert.New(t)

	// Доставка на дом без адреса + кошелек без провайдера и без квитанции
	session := newTestSession(t, codCart(), model.DefaultSettings())
	assertions.NoError(session.SelectDeliveryMethod(model.DeliveryHome))

	_, err := session.AssembleDraft()
	verr := assertViolation(t, err)
	assertions.GreaterOrEqual(len(verr.Violations), 2)
}
