package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MagnunAVF/qr-tracker/internal/geo"
	applog "github.com/MagnunAVF/qr-tracker/internal/logger"
	"github.com/MagnunAVF/qr-tracker/internal/scan"
	"github.com/MagnunAVF/qr-tracker/internal/store"
)

// recordTimeout bounds one event end to end: geolocation plus both writes.
const recordTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not found, relying on env vars", "err", err)
	}

	applog.InitFromEnv()

	db, err := gorm.Open(postgres.Open(os.Getenv("DB_URL")), &gorm.Config{
		Logger:         applog.NewGormLogger(os.Getenv("GORM_LOG_LEVEL")),
		TranslateError: true,
	})
	if err != nil {
		slog.Error("Unable to connect to database", "err", err)
		os.Exit(1)
	}

	rabbitConn, err := amqp091.Dial(os.Getenv("RABBITMQ_URL"))
	if err != nil {
		slog.Error("Unable to connect to RabbitMQ", "err", err)
		os.Exit(1)
	}
	defer rabbitConn.Close()

	rabbitCH, err := rabbitConn.Channel()
	if err != nil {
		slog.Error("Unable to open RabbitMQ channel", "err", err)
		os.Exit(1)
	}
	defer rabbitCH.Close()

	q, err := scan.DeclareQueue(rabbitCH, os.Getenv("SCAN_QUEUE_NAME"))
	if err != nil {
		slog.Error("Failed to declare queue", "err", err)
		os.Exit(1)
	}

	// Each in-flight message holds a geolocation call, so keep the window
	// modest.
	if err := rabbitCH.Qos(50, 0, false); err != nil {
		slog.Error("Failed to set QoS", "err", err)
		os.Exit(1)
	}

	msgs, err := rabbitCH.Consume(
		q.Name, "", false, false, false, false, nil,
	)
	if err != nil {
		slog.Error("Failed to register consumer", "err", err)
		os.Exit(1)
	}

	geoClient := geo.NewClient(geoBaseURL(), 5*time.Second)
	recorder := scan.NewRecorder(store.NewGormStore(db), geoClient)

	slog.Info("Scan Worker started. Waiting for scan events...")

	for d := range msgs {
		handleDelivery(recorder, d)
	}
	slog.Warn("RabbitMQ channel closed, shutting down")
}

func handleDelivery(recorder *scan.Recorder, d amqp091.Delivery) {
	var ev scan.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		slog.Error("Error decoding scan event. Rejecting.", "err", err)
		// 'false' means don't re-queue
		d.Reject(false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	err := recorder.Record(ctx, ev)
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, store.ErrNotFound):
		// Code deleted between redirect and recording; nothing to retry
		slog.Info("Dropping scan for deleted code", "qr_code_id", ev.QRCodeID)
		d.Ack(false)
	default:
		slog.Error("Failed to record scan. Requeueing.", "qr_code_id", ev.QRCodeID, "err", err)
		d.Nack(false, true)
	}
}

func geoBaseURL() string {
	if u := os.Getenv("GEO_API_URL"); u != "" {
		return u
	}
	return "http://ip-api.com"
}
