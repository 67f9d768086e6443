package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDatabase implementa a interface Database para PostgreSQL usando pgx
type PostgresDatabase struct {
	connString string
	db         *sql.DB
}

// NewPostgresDatabase cria uma nova instância do database PostgreSQL
func NewPostgresDatabase(connString string) *PostgresDatabase {
	return &PostgresDatabase{
		connString: connString,
	}
}

// Open abre a conexão com o banco de dados
func (p *PostgresDatabase) Open() error {
	log.Printf("Connecting to PostgreSQL using pgx driver: %s", maskPassword(p.connString))

	db, err := sql.Open("pgx", p.connString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	p.db = db
	return nil
}

// maskPassword oculta a senha de uma URL de conexão para logs
func maskPassword(connString string) string {
	u, err := url.Parse(connString)
	if err != nil || u.User == nil {
		return connString
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

// Close fecha a conexão com o banco de dados
func (p *PostgresDatabase) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping verifica se a conexão está ativa
func (p *PostgresDatabase) Ping() error {
	if p.db == nil {
		return fmt.Errorf("database not connected")
	}
	return p.db.Ping()
}

// GetDB retorna a instância *sql.DB subjacente
func (p *PostgresDatabase) GetDB() *sql.DB {
	return p.db
}

// Rebind converte ? para $N
func (p *PostgresDatabase) Rebind(query string) string {
	return convertPlaceholders(query)
}

// CreateTables cria as tabelas necessárias para PostgreSQL
func (p *PostgresDatabase) CreateTables() error {
	return createTables(p.db, schema)
}
