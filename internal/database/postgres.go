package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/metrics"
	"storefront/internal/model"
)

//go:generate mockgen -source=postgres.go -destination=./mocks/store_mock.go -package=mocks Store

// Store определяет интерфейс конфигурационного хранилища: зоны доставки,
// настройки и признаки доступности рассрочки. Ядро оформления читает эти
// данные один раз на сессию и никогда их не изменяет.
type Store interface {
	GetDeliveryZones(ctx context.Context) ([]model.DeliveryZone, error)
	GetSettings(ctx context.Context) (model.Settings, error)
	GetInstallmentEligible(ctx context.Context, productIDs []string) (map[string]bool, error)
	Close() error
}

// postgresStore обеспечивает взаимодействие с базой данных PostgreSQL.
// Это конкретная реализация интерфейса Store.
type postgresStore struct {
	db     *sqlx.DB
	tracer trace.Tracer // Для трассировки
}

// New создает подключение к БД, применяет миграции и возвращает
// экземпляр, реализующий интерфейс Store.
func New(dbURL, migrationsPath string) (Store, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// Запуск миграций
	if err := runMigrations(dbURL, migrationsPath); err != nil {
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return &postgresStore{
		db:     db,
		tracer: otel.Tracer("postgres-store"),
	}, nil
}

// runMigrations выполняет миграции БД до последней версии.
func runMigrations(dbURL, migrationsPath string) error {
	log.Println("Поиск и применение миграций...")

	// Важно: 'file://' префикс
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dbURL)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр миграции: %w", err)
	}

	// Применяем миграции "вверх"
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("не удалось получить версию миграции: %w", err)
	}

	if dirty {
		log.Printf("БД в 'грязном' состоянии (dirty). Версия: %d. Рекомендуется проверка.", version)
	}

	log.Printf("Миграции успешно применены. Текущая версия БД: %d", version)
	return nil
}

// GetDeliveryZones извлекает все зоны доставки, включая неактивные:
// фильтрация по активности - дело вычислений, а не хранилища.
func (s *postgresStore) GetDeliveryZones(ctx context.Context) ([]model.DeliveryZone, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetDeliveryZones")
	defer span.End()

	var zones []model.DeliveryZone
	query := `SELECT governorate, delivery_fee, min_order_value, active FROM delivery_zones ORDER BY governorate`
	if err := s.db.SelectContext(ctx, &zones, query); err != nil {
		metrics.DBErrors.WithLabelValues("get_zones").Inc()
		return nil, fmt.Errorf("не удалось получить зоны доставки: %w", err)
	}
	return zones, nil
}

// settingRow - строка таблицы настроек.
type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// GetSettings читает key/value-настройки и раскладывает их поверх значений
// по умолчанию: отсутствующий ключ не меняет умолчание.
func (s *postgresStore) GetSettings(ctx context.Context) (model.Settings, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetSettings")
	defer span.End()

	var rows []settingRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		metrics.DBErrors.WithLabelValues("get_settings").Inc()
		return model.Settings{}, fmt.Errorf("не удалось получить настройки: %w", err)
	}

	settings := model.DefaultSettings()
	for _, row := range rows {
		applySetting(&settings, row.Key, row.Value)
	}
	return settings, nil
}

// applySetting применяет один ключ настроек. Неизвестные ключи и значения,
// которые не удалось разобрать, логируются и пропускаются.
func applySetting(settings *model.Settings, key, value string) {
	parseBool := func() (bool, bool) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Настройка %s: не удалось разобрать значение %q, оставлено умолчание", key, value)
			return false, false
		}
		return b, true
	}

	switch key {
	case "delivery_method_home":
		if b, ok := parseBool(); ok {
			settings.HomeDeliveryEnabled = b
		}
	case "delivery_method_store_pickup":
		if b, ok := parseBool(); ok {
			settings.StorePickupEnabled = b
		}
	case "payment_method_cod":
		if b, ok := parseBool(); ok {
			settings.CashOnDeliveryEnabled = b
		}
	case "payment_method_bank_transfer":
		if b, ok := parseBool(); ok {
			settings.BankTransferEnabled = b
		}
	case "payment_method_ewallet":
		if b, ok := parseBool(); ok {
			settings.EWalletTransferEnabled = b
		}
	case "payment_method_we_pay":
		if b, ok := parseBool(); ok {
			settings.WePayEnabled = b
		}
	case "payment_method_google_pay":
		if b, ok := parseBool(); ok {
			settings.GooglePayEnabled = b
		}
	case "payment_method_installment":
		if b, ok := parseBool(); ok {
			settings.InstallmentEnabled = b
		}
	case "payment_method_partial":
		if b, ok := parseBool(); ok {
			settings.PartialPaymentEnabled = b
		}
	case "payment_method_full":
		if b, ok := parseBool(); ok {
			settings.FullPaymentEnabled = b
		}
	case "min_down_payment_percent":
		if d, err := decimal.NewFromString(value); err == nil {
			settings.MinDownPaymentPercent = d
		} else {
			log.Printf("Настройка %s: не удалось разобрать значение %q, оставлено умолчание", key, value)
		}
	case "default_delivery_fee":
		if d, err := decimal.NewFromString(value); err == nil {
			settings.DefaultDeliveryFee = d
		} else {
			log.Printf("Настройка %s: не удалось разобрать значение %q, оставлено умолчание", key, value)
		}
	case "cod_eligible_categories":
		settings.CODEligibleCategories = parseCategoryList(value)
	case "prepay_required_categories":
		settings.PrepayRequiredCategories = parseCategoryList(value)
	default:
		log.Printf("Неизвестный ключ настроек: %s", key)
	}
}

// parseCategoryList разбирает список категорий, разделенный запятыми.
func parseCategoryList(value string) []model.CategoryTag {
	parts := strings.Split(value, ",")
	tags := make([]model.CategoryTag, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, model.CategoryTag(trimmed))
		}
	}
	return tags
}

// GetInstallmentEligible возвращает для каждого запрошенного товара признак
// доступности рассрочки. Товары, отсутствующие в таблице, получают false.
func (s *postgresStore) GetInstallmentEligible(ctx context.Context, productIDs []string) (map[string]bool, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetInstallmentEligible")
	defer span.End()

	result := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		result[id] = false
	}
	if len(productIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT product_id FROM installment_products WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("не удалось построить запрос рассрочки: %w", err)
	}
	query = s.db.Rebind(query)

	var eligible []string
	if err := s.db.SelectContext(ctx, &eligible, query, args...); err != nil {
		metrics.DBErrors.WithLabelValues("get_installment").Inc()
		return nil, fmt.Errorf("не удалось получить признаки рассрочки: %w", err)
	}

	for _, id := range eligible {
		result[id] = true
	}
	return result, nil
}

// Close закрывает соединение с БД.
func (s *postgresStore) Close() error {
	return s.db.Close()
}
