package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"mine_economy/internal/db"
	"mine_economy/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migration")
	flag.Parse()

	_ = godotenv.Load()

	if !*apply {
		names, err := postgres.Migrations()
		if err != nil {
			log.Fatal(err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
}
