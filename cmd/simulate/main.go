package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"storefront/internal/checkout"
	"storefront/internal/generator"
	"storefront/internal/model"
)

// Simulator прогоняет полные сценарии оформления через HTTP API работающего
// сервиса: создание сессии, выбор доставки и оплаты, загрузка документов,
// отправка заказа.
type Simulator struct {
	client *resty.Client
}

// NewSimulator создает и настраивает новый экземпляр симулятора.
func NewSimulator(baseURL string) *Simulator {
	return &Simulator{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
	}
}

// runOnce выполняет один полный сценарий оформления.
func (s *Simulator) runOnce(ctx context.Context) error {
	governorate := generator.NewGovernorate()

	// 1. Создание сессии из случайной корзины
	var state checkout.SessionState
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"lines":       generator.NewCart(),
			"governorate": governorate,
		}).
		SetResult(&state).
		Post("/api/checkout")
	if err != nil {
		return fmt.Errorf("создание сессии: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("создание сессии: %s", resp.String())
	}

	sessionID := state.SessionID
	log.Printf("Сессия %s: доставка %s, оплата %s", sessionID, state.DeliveryMethod, state.Payment.Method)

	// 2. Выбор доставки
	deliveryBody := map[string]interface{}{"method": state.DeliveryMethod}
	switch state.DeliveryMethod {
	case model.DeliveryHome:
		deliveryBody["address"] = generator.NewAddress(governorate)
	case model.DeliveryPickup:
		deliveryBody["pickup_location"] = model.PickupLocation{Address: "Branch 1, Downtown Cairo"}
	default:
		return fmt.Errorf("сессия %s: нет допустимых способов доставки", sessionID)
	}
	resp, err = s.client.R().
		SetContext(ctx).
		SetBody(deliveryBody).
		SetResult(&state).
		Put(fmt.Sprintf("/api/checkout/%s/delivery", sessionID))
	if err != nil {
		return fmt.Errorf("выбор доставки: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("выбор доставки: %s", resp.String())
	}

	// 3. Выбор оплаты (начальный метод уже допустим; для кошелька нужен провайдер)
	paymentBody := map[string]interface{}{"method": state.Payment.Method}
	if state.Payment.Method == model.PaymentEWalletTransfer {
		paymentBody["e_wallet_provider"] = model.WalletVodafoneCash
	}
	resp, err = s.client.R().
		SetContext(ctx).
		SetBody(paymentBody).
		SetResult(&state).
		Put(fmt.Sprintf("/api/checkout/%s/payment", sessionID))
	if err != nil {
		return fmt.Errorf("выбор оплаты: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("выбор оплаты: %s", resp.String())
	}

	// 4. Загрузка документов во все обязательные слоты
	for _, slot := range state.Documents {
		if !slot.Required {
			continue
		}
		resp, err = s.client.R().
			SetContext(ctx).
			SetFileReader("file", "receipt.png", bytes.NewReader(generator.ReceiptImage())).
			Post(fmt.Sprintf("/api/checkout/%s/documents/%s", sessionID, slot.Name))
		if err != nil {
			return fmt.Errorf("загрузка документа %s: %w", slot.Name, err)
		}
		if resp.IsError() {
			return fmt.Errorf("загрузка документа %s: %s", slot.Name, resp.String())
		}
		log.Printf("Сессия %s: документ %s загружен", sessionID, slot.Name)
	}

	// 5. Отправка заказа
	var order model.Order
	resp, err = s.client.R().
		SetContext(ctx).
		SetResult(&order).
		Post(fmt.Sprintf("/api/checkout/%s/submit", sessionID))
	if err != nil {
		return fmt.Errorf("отправка заказа: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("отправка заказа: %s", resp.String())
	}

	fmt.Printf("Размещен заказ %s (статус %s)\n", order.OrderNumber, order.Status)
	return nil
}

// Run запускает цикл сценариев с заданным интервалом.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	log.Println("Симулятор запущен. Нажмите CTRL+C для остановки.")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Симулятор останавливается.")
			return
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				log.Printf("Сценарий завершился с ошибкой: %v", err)
			}
		}
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	simulator := NewSimulator("http://localhost:8081")
	simulator.Run(ctx, 2*time.Second)
}
