package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"brainquest/config"
	"brainquest/db"
	"brainquest/utils"
)

func main() {
	grant := flag.String("grant", "", "User id to grant an admin role to")
	role := flag.String("role", "admin", "Admin role: 'admin' or 'moderator' (default: admin)")
	seed := flag.Bool("seed", false, "Upsert the default badge and challenge catalog")
	token := flag.String("token", "", "Print a signed development token for this user id")
	configPath := flag.String("config", config.Path(), "Path to config file")
	flag.Parse()

	if *grant == "" && !*seed && *token == "" {
		fmt.Println("Error: one of -grant, -seed or -token is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *role != "admin" && *role != "moderator" {
		fmt.Println("Error: role must be 'admin' or 'moderator'")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *token != "" {
		utils.SetJWTSecret(cfg.JWT.Secret)
		signed, err := utils.GenerateJWTToken(*token, *token, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(signed)
		if *grant == "" && !*seed {
			return
		}
	}

	database, err := db.ConnectMongoDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *seed {
		if err := db.EnsureIndexes(ctx, database); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		if err := db.SeedCatalog(ctx, db.NewBadgeRepository(database), db.NewChallengeRepository(database)); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		fmt.Printf("Seeded %d badges and %d challenges\n", len(db.DefaultBadges), len(db.DefaultChallenges))
	}

	if *grant != "" {
		if err := db.NewAdminRepository(database).Grant(ctx, *grant, *role); err != nil {
			log.Fatalf("Failed to grant role: %v", err)
		}
		fmt.Printf("Granted role %q to user %s\n", *role, *grant)
	}
}
