package generator

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// категории, из которых собираются случайные корзины: обычные COD-категории,
// нейтральные и требующие предоплату.
var categories = []string{
	"clothing", "shoes", "accessories",
	"electronics", "furniture",
	"dropship", "imported",
}

var governorates = []string{
	"Cairo", "Giza", "Alexandria", "Qalyubia", "Aswan", "Luxor",
}

// NewCart создает случайный снимок корзины из 1-4 позиций.
func NewCart() []model.CartLine {
	gofakeit.Seed(0)

	lineCount := gofakeit.Number(1, 4)
	lines := make([]model.CartLine, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		price := decimal.NewFromFloat(gofakeit.Price(50, 5000)).Round(2)
		lines = append(lines, model.CartLine{
			ProductID:           fmt.Sprintf("SKU-%d", gofakeit.Number(100000, 999999)),
			Quantity:            gofakeit.Number(1, 3),
			UnitPrice:           price,
			CategoryTag:         model.CategoryTag(gofakeit.RandomString(categories)),
			InstallmentEligible: gofakeit.Bool(),
		})
	}
	return lines
}

// NewGovernorate возвращает случайное губернаторство.
func NewGovernorate() string {
	return gofakeit.RandomString(governorates)
}

// NewAddress создает случайный адрес доставки с согласованными полями.
func NewAddress(governorate string) model.Address {
	addr := gofakeit.Address()

	return model.Address{
		Title:       gofakeit.RandomString([]string{"Home", "Work"}),
		FullName:    gofakeit.Name(),
		Phone:       fmt.Sprintf("+2010%08d", gofakeit.Number(0, 99999999)),
		Governorate: governorate,
		City:        addr.City,
		District:    addr.Street,
		Street:      addr.Address,
		Building:    fmt.Sprintf("%d", gofakeit.Number(1, 200)),
		Floor:       fmt.Sprintf("%d", gofakeit.Number(1, 12)),
		PostalCode:  addr.Zip,
		IsDefault:   true,
	}
}

// ReceiptImage возвращает минимальный валидный PNG для загрузки в слот
// документа (сигнатура изображения важна для MIME-сниффинга).
func ReceiptImage() []byte {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}
}
