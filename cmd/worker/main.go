package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/calmchat/internal/config"
	"github.com/suPer8Hu/calmchat/internal/logging"
	"github.com/suPer8Hu/calmchat/internal/store/rabbitmq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.RabbitURL == "" {
		logger.Fatal("RABBIT_URL is required for the crisis alert worker")
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		logger.Fatal("queue declare", zap.Error(err))
	}

	// retries are republished on their own connection
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		logger.Fatal("rabbit publisher", zap.Error(err))
	}
	defer pub.Close()

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	if err := ch.Qos(concurrency, 0, false); err != nil {
		logger.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	esc := logEscalator{log: logger}

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := logger.With(zap.Int("worker", workerID))
			for d := range jobs {
				start := time.Now()
				attempt := rabbitmq.AttemptOf(d)
				act, err := decide(ctx, esc, d.Body, attempt)
				switch act {
				case actionAck:
					if err := d.Ack(false); err != nil {
						wlog.Error("ack failed", zap.Error(err))
					}
				case actionRetry:
					wlog.Warn("escalation failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
					if perr := pub.PublishRetry(ctx, d.Body, attempt+1, retryDelay(attempt)); perr != nil {
						wlog.Error("publish retry", zap.Error(perr))
						_ = d.Nack(false, false)
						continue
					}
					_ = d.Ack(false)
				case actionDeadLetter:
					wlog.Error("alert dead-lettered", zap.Int("attempt", attempt), zap.Duration("cost", time.Since(start)), zap.Error(err))
					_ = d.Nack(false, false)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}
