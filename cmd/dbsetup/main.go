// Command dbsetup creates the database schema and optionally seeds the
// default plans.
package main

import (
	"context"
	"flag"
	"io"
	"log"

	"github.com/google/logger"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"loterias/internal/config"
	"loterias/internal/database"
	"loterias/internal/models"
)

var defaultPlans = []models.Plan{
	{ID: "mensal", Nome: "Mensal", Descricao: "Geração inteligente de cartões por 30 dias", Preco: decimal.RequireFromString("29.90"), DuracaoDias: 30, Ativo: true},
	{ID: "trimestral", Nome: "Trimestral", Descricao: "Geração inteligente de cartões por 90 dias", Preco: decimal.RequireFromString("79.90"), DuracaoDias: 90, Ativo: true},
	{ID: "anual", Nome: "Anual", Descricao: "Geração inteligente e envio diário por 365 dias", Preco: decimal.RequireFromString("249.90"), DuracaoDias: 365, Ativo: true},
}

func main() {
	seed := flag.Bool("seed", false, "insert the default plans")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	defer logger.Init("dbsetup", true, false, io.Discard).Close()

	db, err := database.New(cfg.DBType, cfg.DSN())
	if err != nil {
		logger.Fatalf("Failed to set up %s database: %v", cfg.DBType, err)
	}
	defer db.Close()
	logger.Infof("Schema ready on %s", cfg.DBType)

	if !*seed {
		return
	}
	repo := database.NewRepository(db)
	for i := range defaultPlans {
		p := defaultPlans[i]
		if err := repo.UpsertPlan(context.Background(), &p); err != nil {
			logger.Fatalf("Failed to seed plan %s: %v", p.Nome, err)
		}
		logger.Infof("Plan %s: R$ %s / %d dias", p.Nome, p.Preco.StringFixed(2), p.DuracaoDias)
	}
}
