package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/session"
	"storefront/internal/submit"
	"storefront/internal/tracing"
	"storefront/internal/uploads"
)

func main() {
	cfg := config.Get()

	// Трассировка
	shutdownTracer := tracing.InitTracerProvider("storefront-checkout")
	defer shutdownTracer()

	// Инициализация конфигурационного хранилища (зоны, настройки, рассрочка)
	store, err := database.New(cfg.Postgres.URL, cfg.Postgres.MigrationsPath)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}
	defer store.Close()

	// Хранилище сессий оформления
	sessions := session.NewLRUStore(cfg.Sessions.Capacity)

	// Клиенты внешних коллабораторов
	uploader := uploads.NewClient(cfg.AssetStorage.BaseURL)
	submitter := submit.NewSubmitter(cfg.OrderService.BaseURL)

	// Продюсер событий о размещенных заказах
	publisher := events.NewProducer(cfg.Kafka)
	defer publisher.Close()

	// Запуск HTTP-сервера
	server := api.NewServer(cfg.HTTP.Port, store, sessions, uploader, submitter, publisher)
	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("Ошибка запуска HTTP-сервера: %v", err)
		}
	}()

	// Ожидание сигнала для корректного завершения работы
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Println("Сервис останавливается...")
	log.Println("Сервис успешно остановлен.")
}
