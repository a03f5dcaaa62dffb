package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/Tousif070/Point-Of-Sales-Backend/internal/api"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/config"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/database"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/migrations"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.Bootstrap(db, cfg.AdminPassword)

	handler := api.New(db, cfg.Secret)

	log.Printf("POS server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
