// Command seed inserts demo movies and showtimes so the server has
// something to show right after a fresh install. Seeding is skipped when
// showtimes already exist, so running it twice never duplicates data.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-ticket-server/internal/booking"
	"github.com/iliyamo/cinema-ticket-server/internal/config"
	"github.com/iliyamo/cinema-ticket-server/internal/database"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	ctx := context.Background()
	if err := database.InitSchema(ctx, db, cfg.BcryptCost); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM showtimes").Scan(&count); err != nil {
		log.Fatalf("count showtimes: %v", err)
	}
	if count > 0 {
		log.Printf("database already has %d showtimes, skipping seeding", count)
		return
	}

	movies := repository.NewMovieRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	engine := booking.New(db, repository.NewSeatRepo(db), repository.NewTicketRepo(db), cfg.SeatRows, cfg.SeatCols)

	demo := []struct {
		title, desc string
		duration    int
	}{
		{"The Socket Adventure", "A demo feature about network programming.", 110},
		{"Go & Friends", "Building a ticket system from scratch.", 95},
		{"Cinema Nights", "Weekend movie night: quick booking, right seat.", 105},
	}
	ids := make([]uint64, 0, len(demo))
	for _, m := range demo {
		id, err := movies.Create(ctx, m.title, m.desc, m.duration)
		if err != nil {
			log.Fatalf("seed movie %q: %v", m.title, err)
		}
		ids = append(ids, id)
	}

	now := time.Now().UTC().Truncate(time.Minute)
	shows := []struct {
		movie uint64
		start time.Time
		hall  string
		price int64
	}{
		{ids[0], now.Add(2 * time.Hour), "P1", 75000},
		{ids[0], now.Add(26 * time.Hour), "P2", 80000},
		{ids[1], now.Add(4 * time.Hour), "P1", 70000},
		{ids[2], now.Add(6 * time.Hour), "P3", 90000},
	}
	for _, s := range shows {
		id, err := showtimes.Create(ctx, s.movie, s.start.Format(time.RFC3339), s.hall, s.price)
		if err != nil {
			log.Fatalf("seed showtime: %v", err)
		}
		if err := engine.ProvisionSeats(ctx, id); err != nil {
			log.Fatalf("provision seats for showtime %d: %v", id, err)
		}
		log.Printf("seeded showtime %d (movie %d, hall %s)", id, s.movie, s.hall)
	}
	log.Printf("seeded %d movies and %d showtimes", len(ids), len(shows))
}
