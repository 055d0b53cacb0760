package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"therapia/config"
	"therapia/models"
	"therapia/services/notification"

	"github.com/hibiken/asynq"
)

// InitEventWorker runs the async worker that drains queued domain events
// into the wired notifier.
func InitEventWorker(notifier notification.Notifier) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisEventQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeDomainEvent, handleDomainEvent(notifier))

	go func() {
		log.Println("[EventWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[EventWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[EventWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleDomainEvent(notifier notification.Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var event models.Event
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			log.Printf("[EventWorker] invalid payload: %v", err)
			return err
		}
		if err := notifier.Deliver(ctx, event); err != nil {
			log.Printf("[EventWorker] delivery failed for %s: %v", event.Type, err)
			return err
		}
		return nil
	}
}
