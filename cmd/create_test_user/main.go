package main

import (
	"context"
	"flag"
	"log"

	"mine_economy/internal/config"
	"mine_economy/internal/db"
	"mine_economy/internal/domain"
	"mine_economy/internal/service"

	"github.com/jonboulle/clockwork"
)

func main() {
	userID := flag.Int64("user", 1234567890, "user id")
	gold := flag.Int64("gold", 500, "gold to grant")
	crystals := flag.Int64("crystals", 200, "crystals to grant")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ledger := service.NewLedgerService(store, clockwork.NewRealClock())
	for currency, amount := range map[domain.Currency]int64{domain.CurrencyGold: *gold, domain.CurrencyCrystals: *crystals} {
		if amount <= 0 {
			continue
		}
		if _, err := ledger.Grant(ctx, *userID, currency, amount, "test user"); err != nil {
			log.Fatalf("grant %s failed: %v", currency, err)
		}
	}

	acc, err := ledger.GetAccount(ctx, *userID)
	if err != nil {
		log.Fatalf("get account failed: %v", err)
	}
	log.Printf("account user_id=%d gold=%d crystals=%d xp=%d\n", acc.UserID, acc.Gold, acc.Crystals, acc.XP)

	if err := service.InitJWT(cfg.JWTSecret, cfg.JWTTTL); err != nil {
		log.Fatalf("jwt: %v", err)
	}
	token, err := service.GenerateJWT(acc.UserID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
