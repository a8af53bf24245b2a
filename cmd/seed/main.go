package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pricely/backend/internal/config"
	"github.com/pricely/backend/internal/repository/postgres"
	"github.com/pricely/backend/internal/repository/redis"
)

type seedStore struct {
	name    string
	domain  string
	country string
	logoURL string
}

type seedPrice struct {
	store string
	price float64
}

type seedProduct struct {
	name        string
	brand       string
	category    string
	description string
	imageURL    string
	prices      []seedPrice
}

var stores = []seedStore{
	{"Amazon", "amazon.de", "DE", "https://upload.wikimedia.org/wikipedia/commons/a/a9/Amazon_logo.svg"},
	{"Thomann", "thomann.de", "DE", "https://www.thomann.de/pics/tm/thomann-logo.svg"},
}

var products = []seedProduct{
	{
		name:        "DeLonghi Magnifica S ECAM 22.110.B",
		brand:       "DeLonghi",
		category:    "Coffee Machines",
		description: "Automatic coffee machine with milk frother",
		prices:      []seedPrice{{"Amazon", 299.99}, {"Thomann", 289.99}},
	},
	{
		name:        "Philips 3200 Series LatteGo",
		brand:       "Philips",
		category:    "Coffee Machines",
		description: "Fully automatic espresso machine",
		prices:      []seedPrice{{"Amazon", 449.99}},
	},
	{
		name:        "Fender Player Stratocaster",
		brand:       "Fender",
		category:    "Electric Guitars",
		description: "Classic electric guitar, made in Mexico",
		prices:      []seedPrice{{"Thomann", 699.00}, {"Amazon", 729.00}},
	},
	{
		name:        "Gibson Les Paul Standard",
		brand:       "Gibson",
		category:    "Electric Guitars",
		description: "Premium electric guitar, made in USA",
		prices:      []seedPrice{{"Thomann", 2299.00}},
	},
	{
		name:        "Sony WH-1000XM5",
		brand:       "Sony",
		category:    "Headphones",
		description: "Wireless noise-canceling headphones",
		prices:      []seedPrice{{"Amazon", 379.00}, {"Thomann", 399.00}},
	},
	{
		name:        "Bose QuietComfort 45",
		brand:       "Bose",
		category:    "Headphones",
		description: "Premium wireless headphones",
		prices:      []seedPrice{{"Amazon", 299.00}},
	},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		fatal("failed to connect to database: %v", err)
	}
	defer db.Close()

	storeIDs := make(map[string]uuid.UUID, len(stores))
	for _, s := range stores {
		var id uuid.UUID
		err := db.Pool.QueryRow(ctx, `
			INSERT INTO stores (name, domain, country, logo_url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (domain) DO UPDATE SET name = EXCLUDED.name, logo_url = EXCLUDED.logo_url
			RETURNING id
		`, s.name, s.domain, s.country, s.logoURL).Scan(&id)
		if err != nil {
			fatal("failed to seed store %s: %v", s.name, err)
		}
		storeIDs[s.name] = id
		fmt.Printf("store: %s (%s)\n", s.name, s.domain)
	}

	pricesCreated := 0
	for _, p := range products {
		var productID uuid.UUID
		err := db.Pool.QueryRow(ctx, `
			INSERT INTO products (name, brand, category, description, image_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, p.name, p.brand, p.category, p.description, p.imageURL).Scan(&productID)
		if err != nil {
			fatal("failed to seed product %s: %v", p.name, err)
		}

		for _, pr := range p.prices {
			storeID, ok := storeIDs[pr.store]
			if !ok {
				fatal("unknown store %q for product %s", pr.store, p.name)
			}
			url := fmt.Sprintf("https://%s/product/%s", storeDomain(pr.store), productID)
			_, err := db.Pool.Exec(ctx, `
				INSERT INTO prices (product_id, store_id, price, currency, availability, url)
				VALUES ($1, $2, $3, 'EUR', TRUE, $4)
			`, productID, storeID, pr.price, url)
			if err != nil {
				fatal("failed to seed price for %s: %v", p.name, err)
			}
			pricesCreated++
		}
		fmt.Printf("product: %s\n", p.name)
	}

	// Cached cheapest listings are stale now
	if redisClient, err := redis.NewClient(cfg.Redis); err == nil {
		defer redisClient.Close()
		if deleted, err := redis.NewListingCache(redisClient).FlushAll(ctx); err == nil {
			fmt.Printf("flushed %d cached listings\n", deleted)
		}
	}

	fmt.Printf("seeded %d products with %d prices\n", len(products), pricesCreated)
}

func storeDomain(name string) string {
	for _, s := range stores {
		if s.name == name {
			return s.domain
		}
	}
	return "example.com"
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
