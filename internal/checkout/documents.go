package checkout

import (
	"sync"

	"storefront/internal/model"
)

// requiredSlotsByMethod - статическое соответствие метода оплаты и слотов
// документов. Для методов без подтверждающих документов набор пуст.
var requiredSlotsByMethod = map[model.PaymentMethod][]model.SlotName{
	model.PaymentBankTransfer:    {model.SlotBankReceipt},
	model.PaymentEWalletTransfer: {model.SlotEWalletReceipt},
	model.PaymentWePay:           {model.SlotWePayReceipt},
	model.PaymentInstallment4: {
		model.SlotIDCardFront,
		model.SlotIDCardBack,
		model.SlotSignedPromissory,
		model.SlotFirstPaymentReceipt,
	},
}

// RequiredSlots возвращает упорядоченный список слотов документов,
// обязательных для метода оплаты.
func RequiredSlots(method model.PaymentMethod) []model.SlotName {
	slots := requiredSlotsByMethod[method]
	out := make([]model.SlotName, len(slots))
	copy(out, slots)
	return out
}

// DocumentCollector отслеживает загрузку документов по обязательным слотам.
// Сама загрузка байтов выполняется внешним хранилищем; сюда попадает только
// возвращенная им ссылка. Загрузки разных слотов могут завершаться
// конкурентно, поэтому состояние защищено мьютексом.
type DocumentCollector struct {
	mu    sync.Mutex
	order []model.SlotName
	slots map[model.SlotName]*model.DocumentSlot
}

// NewDocumentCollector создает коллектор со слотами для метода оплаты.
func NewDocumentCollector(method model.PaymentMethod) *DocumentCollector {
	c := &DocumentCollector{}
	c.rebuild(method, nil)
	return c
}

// Resolve перестраивает набор слотов под новый метод оплаты. Ссылки
// сохраняются только для слотов, требуемых и новым методом; остальные
// загрузки отбрасываются.
func (c *DocumentCollector) Resolve(method model.PaymentMethod) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make(map[model.SlotName]string, len(c.slots))
	for name, slot := range c.slots {
		if slot.Attached() {
			kept[name] = slot.AssetReference
		}
	}
	c.rebuild(method, kept)
}

// rebuild заполняет слоты заново; мьютекс должен быть захвачен вызывающим.
func (c *DocumentCollector) rebuild(method model.PaymentMethod, kept map[model.SlotName]string) {
	names := RequiredSlots(method)
	c.order = names
	c.slots = make(map[model.SlotName]*model.DocumentSlot, len(names))
	for _, name := range names {
		c.slots[name] = &model.DocumentSlot{
			Name:           name,
			AssetReference: kept[name],
			Required:       true,
		}
	}
}

// Requires сообщает, входит ли слот в набор текущего метода оплаты.
func (c *DocumentCollector) Requires(name model.SlotName) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.slots[name]
	return ok
}

// Attach сохраняет ссылку на загруженный документ. Повторный вызов для того
// же слота замещает прежнюю ссылку.
func (c *DocumentCollector) Attach(name model.SlotName, assetReference string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[name]
	if !ok {
		return ErrUnknownSlot
	}
	slot.AssetReference = assetReference
	return nil
}

// Remove очищает слот.
func (c *DocumentCollector) Remove(name model.SlotName) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[name]
	if !ok {
		return ErrUnknownSlot
	}
	slot.AssetReference = ""
	return nil
}

// IsComplete сообщает, загружены ли документы во все обязательные слоты.
// Это единственный барьер, не допускающий отправку заказа без подтверждений.
func (c *DocumentCollector) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, slot := range c.slots {
		if slot.Required && !slot.Attached() {
			return false
		}
	}
	return true
}

// Snapshot возвращает копию слотов в порядке, заданном методом оплаты.
func (c *DocumentCollector) Snapshot() []model.DocumentSlot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.DocumentSlot, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.slots[name])
	}
	return out
}
