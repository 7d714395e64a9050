package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMethodNotAllowed - попытка выбрать метод вне допустимого набора.
	ErrMethodNotAllowed = errors.New("метод не входит в допустимый набор")
	// ErrUnknownSlot - обращение к слоту документа, не требуемому текущим методом.
	ErrUnknownSlot = errors.New("слот документа не требуется текущим методом оплаты")
	// ErrProviderNotApplicable - провайдер кошелька задан для неподходящего метода.
	ErrProviderNotApplicable = errors.New("провайдер кошелька применим только к переводу на кошелек")
	// ErrSubmissionInFlight - повторная отправка, пока предыдущая не завершилась.
	ErrSubmissionInFlight = errors.New("отправка заказа уже выполняется")
)

// ValidationError собирает все нарушения инвариантов, найденные при сборке
// черновика. Черновик не создается, пока список не пуст.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("черновик заказа не прошел проверку: %s", strings.Join(e.Violations, "; "))
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}
