package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"seatstudio/internal/designer"
	"seatstudio/internal/layout"
	"seatstudio/internal/seating"
	"seatstudio/internal/shared/config"
	"seatstudio/internal/shared/database"

	"github.com/joho/godotenv"
)

type Seeder struct {
	client  *seating.Client
	drafts  designer.DraftRepository
	pricing layout.Pricing
	force   bool
}

func main() {
	fmt.Println("🌱 Starting seatstudio layout seeder...")

	events := flag.String("events", "", "comma separated event ids to seed")
	capacity := flag.Int("capacity", 100, "seats per event")
	vipCount := flag.Int("vip", 20, "number of VIP seats")
	vipPrice := flag.Float64("vip-price", 150, "VIP seat price")
	regularPrice := flag.Float64("regular-price", 75, "regular seat price")
	token := flag.String("token", "", "bearer token for the seating service")
	force := flag.Bool("force", false, "overwrite layouts that already exist")
	flag.Parse()

	eventIDs := splitEvents(*events)
	if len(eventIDs) == 0 {
		log.Fatal("No events given, use -events evt-1,evt-2")
	}

	_ = godotenv.Load()
	cfg := config.Load()

	db := database.InitDB(cfg)
	defer db.Close()

	seeder := &Seeder{
		client: seating.NewClient(seating.Config{BaseURL: cfg.Seating.BaseURL, Timeout: cfg.Seating.Timeout}),
		drafts: designer.NewDraftRepository(db.GetPostgreSQL()),
		pricing: layout.Pricing{
			Capacity:     *capacity,
			VIPCount:     *vipCount,
			VIPPrice:     *vipPrice,
			RegularPrice: *regularPrice,
		},
		force: *force,
	}

	ctx := seating.ContextWithToken(context.Background(), *token)
	seeded := 0
	for _, eventID := range eventIDs {
		ok, err := seeder.SeedEvent(ctx, eventID)
		if err != nil {
			log.Printf("❌ %s: %v", eventID, err)
			continue
		}
		if ok {
			seeded++
		}
	}

	fmt.Printf("\n🎉 Seeding completed! %d of %d layouts written.\n", seeded, len(eventIDs))
}

// SeedEvent writes the default grid for eventID unless a layout already
// exists. Stale drafts for the event are removed.
func (s *Seeder) SeedEvent(ctx context.Context, eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if !s.force {
		_, err := s.client.GetLayout(ctx, eventID)
		switch {
		case err == nil:
			fmt.Printf("⏭️  %s already has a layout, skipping\n", eventID)
			return false, nil
		case !errors.Is(err, seating.ErrLayoutNotFound):
			return false, err
		}
	}

	grid := layout.GenerateDefaultGrid(eventID, s.pricing)
	raw, err := grid.Serialize()
	if err != nil {
		return false, err
	}
	if err := s.client.SaveLayout(ctx, eventID, raw); err != nil {
		return false, err
	}

	if s.drafts != nil {
		if err := s.drafts.DeleteByEventID(ctx, eventID); err != nil {
			log.Printf("⚠️  %s: failed to clear draft: %v", eventID, err)
		}
	}

	fmt.Printf("✅ %s: %d seats (%d VIP)\n", eventID, grid.Len(), min(s.pricing.VIPCount, grid.Len()))
	return true, nil
}

func splitEvents(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
