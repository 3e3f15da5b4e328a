package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/motoauto/auction-backend/internal/config"
	"github.com/motoauto/auction-backend/internal/db"
	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/server"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := conn.AutoMigrate(&model.Listing{}, &model.Auction{}, &model.Bid{}, &model.Notification{}); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	// Redis and RabbitMQ are optional sinks. The engine keeps working when
	// either is down, it just loses cross-process fan-out.
	var rdb *redis.Client
	var extra []event.Broadcaster
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unavailable, continuing without it: %v", err)
			rdb = nil
		} else {
			extra = append(extra, event.NewRedisBroadcaster(rdb))
		}
	}
	if cfg.AMQPURL != "" {
		if mq, err := amqp.Dial(cfg.AMQPURL); err != nil {
			log.Printf("amqp unavailable, continuing without it: %v", err)
		} else if pub, err := event.NewQueuePublisher(mq, cfg.AMQPEventExchange); err != nil {
			log.Printf("amqp exchange setup error: %v", err)
		} else {
			extra = append(extra, pub)
			defer pub.Close()
		}
	}

	srv := server.New(conn, cfg, rdb, extra, gitSHA, buildTime)

	// Settlement sweep, so auctions end on time even with zero traffic.
	ticker := time.NewTicker(time.Duration(cfg.SettleTickSeconds) * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
			if n, err := srv.Auctions().SettleDue(ctx); err != nil {
				log.Printf("settle sweep error: %v", err)
			} else if n > 0 {
				log.Printf("settled %d auctions", n)
			}
			cancel()
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
