package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/motoauto/auction-backend/internal/config"
	"github.com/motoauto/auction-backend/internal/db"
	"github.com/motoauto/auction-backend/internal/model"
)

type seedVehicle struct {
	Title         string
	Description   string
	Brand         string
	Model         string
	Year          int
	MileageKM     int
	StartingPrice int64 // rappen
	ReservePrice  int64 // 0 = no reserve
	Hours         int   // auction duration from now
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.Listing{}, &model.Auction{}, &model.Bid{}, &model.Notification{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	var count int64
	if err := gdb.Model(&model.Listing{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count listings: %w", err)
	}
	if count > 0 && !strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		log.Printf("listings already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	sellerUID := os.Getenv("SEED_SELLER_UID")
	if sellerUID == "" {
		sellerUID = "seed-seller"
	}

	now := time.Now()
	for _, v := range buildSeedVehicles() {
		listing := &model.Listing{
			SellerUID:   sellerUID,
			Title:       v.Title,
			Description: v.Description,
			Brand:       v.Brand,
			Model:       v.Model,
			Year:        v.Year,
			MileageKM:   v.MileageKM,
			Currency:    "CHF",
		}
		if err := gdb.Create(listing).Error; err != nil {
			return fmt.Errorf("insert listing %q: %w", v.Title, err)
		}

		auction := &model.Auction{
			ListingID:         listing.ID,
			SellerUID:         sellerUID,
			StartingPrice:     v.StartingPrice,
			CurrentBid:        v.StartingPrice,
			EndTime:           now.Add(time.Duration(v.Hours) * time.Hour),
			AutoExtendMinutes: 5,
			MaxExtensions:     3,
			Status:            model.AuctionStatusActive,
		}
		if v.ReservePrice > 0 {
			reserve := v.ReservePrice
			auction.ReservePrice = &reserve
		}
		if err := gdb.Create(auction).Error; err != nil {
			return fmt.Errorf("insert auction for %q: %w", v.Title, err)
		}
		log.Printf("seeded %q, auction %d ends %s", v.Title, auction.ID, auction.EndTime.Format(time.RFC3339))
	}
	return nil
}

func buildSeedVehicles() []seedVehicle {
	return []seedVehicle{
		{
			Title:         "BMW 320d Touring, frisch ab MFK",
			Description:   "Gepflegter Kombi mit Serviceheft, 8-fach bereift.",
			Brand:         "BMW",
			Model:         "320d Touring",
			Year:          2018,
			MileageKM:     98_000,
			StartingPrice: 1_200_000,
			ReservePrice:  1_500_000,
			Hours:         72,
		},
		{
			Title:         "VW Golf 7 GTI Performance",
			Description:   "Unfallfrei, DSG, Winterräder inklusive.",
			Brand:         "VW",
			Model:         "Golf GTI",
			Year:          2017,
			MileageKM:     64_500,
			StartingPrice: 1_800_000,
			ReservePrice:  2_100_000,
			Hours:         48,
		},
		{
			Title:         "Fiat Panda 4x4, Liebhaberstück",
			Description:   "Zweite Hand, rostfrei, ideal für die Berge.",
			Brand:         "Fiat",
			Model:         "Panda 4x4",
			Year:          2012,
			MileageKM:     112_000,
			StartingPrice: 450_000,
			Hours:         24,
		},
		{
			Title:         "Tesla Model 3 Long Range",
			Description:   "Autopilot, Anhängerkupplung, Batterie-Check vorhanden.",
			Brand:         "Tesla",
			Model:         "Model 3",
			Year:          2021,
			MileageKM:     41_000,
			StartingPrice: 2_500_000,
			ReservePrice:  2_900_000,
			Hours:         96,
		},
	}
}
