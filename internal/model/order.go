package model

import "time"

// OrderStatus - статус заказа, присвоенный внешним сервисом заказов.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusRejected  OrderStatus = "rejected"
)

// OrderDraft - неизменяемый, полностью проверенный черновик заказа.
// Создается только сборщиком черновиков; частично заполненных черновиков не бывает.
type OrderDraft struct {
	DraftID        string           `json:"draft_id" validate:"required,uuid4"`
	Lines          []CartLine       `json:"lines" validate:"required,min=1,dive"`
	DeliveryMethod DeliveryMethod   `json:"delivery_method" validate:"required"`
	Address        *Address         `json:"delivery_address,omitempty"`
	Pickup         *PickupLocation  `json:"pickup_location,omitempty"`
	Payment        PaymentSelection `json:"payment" validate:"required"`
	Amounts        Amounts          `json:"amounts"`
	Documents      []DocumentSlot   `json:"documents"`
	CreatedAt      time.Time        `json:"created_at"`
}

// DocumentReferences возвращает ссылки на загруженные документы по именам слотов.
func (d *OrderDraft) DocumentReferences() map[SlotName]string {
	refs := make(map[SlotName]string, len(d.Documents))
	for _, slot := range d.Documents {
		if slot.Attached() {
			refs[slot.Name] = slot.AssetReference
		}
	}
	return refs
}

// Order - принятый внешним сервисом заказ.
type Order struct {
	ID          int64       `json:"id"`
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
}
