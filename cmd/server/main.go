package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-ticket-server/internal/booking"
	"github.com/iliyamo/cinema-ticket-server/internal/cache"
	"github.com/iliyamo/cinema-ticket-server/internal/config"
	"github.com/iliyamo/cinema-ticket-server/internal/database"
	"github.com/iliyamo/cinema-ticket-server/internal/handler"
	"github.com/iliyamo/cinema-ticket-server/internal/queue"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
	"github.com/iliyamo/cinema-ticket-server/internal/server"
	"github.com/iliyamo/cinema-ticket-server/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := database.InitSchema(ctx, db, cfg.BcryptCost); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	// Optional collaborators: catalog cache and ticket event log.
	catalog := cache.New(config.NewRedisClient(), time.Duration(cfg.CacheTTLSec)*time.Second)
	if catalog == nil {
		log.Printf("redis not configured, catalog cache disabled")
	}
	if cfg.RabbitURL != "" {
		go func() {
			if err := queue.StartTicketConsumer(cfg.RabbitURL); err != nil {
				log.Printf("ticket consumer stopped: %v", err)
			}
		}()
	}

	sessions := session.New(time.Duration(cfg.SessionTTLMin) * time.Minute)
	seats := repository.NewSeatRepo(db)
	tickets := repository.NewTicketRepo(db)
	engine := booking.New(db, seats, tickets, cfg.SeatRows, cfg.SeatCols)

	h := handler.New(
		sessions,
		repository.NewUserRepo(db),
		repository.NewMovieRepo(db),
		repository.NewShowtimeRepo(db),
		seats,
		tickets,
		engine,
		catalog,
		cfg.BcryptCost,
	)

	log.Printf("starting on %s (env=%s, grid=%dx%d)", cfg.Addr, cfg.Env, cfg.SeatRows, cfg.SeatCols)
	if err := server.New(h).ListenAndServe(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
