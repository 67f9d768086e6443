package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("registro não encontrado")

// Database define a interface comum aos drivers suportados.
type Database interface {
	Open() error
	Close() error
	Ping() error
	GetDB() *sql.DB

	// Rebind converte os placeholders ? para o formato do driver.
	Rebind(query string) string

	// CreateTables cria o schema se ainda não existir.
	CreateTables() error
}

// New abre e inicializa o banco conforme o tipo configurado ("sqlite" ou
// "postgres").
func New(dbType, connString string) (Database, error) {
	var db Database
	switch dbType {
	case "postgres":
		db = NewPostgresDatabase(connString)
	case "sqlite", "":
		db = NewSQLiteDatabase(connString)
	default:
		return nil, fmt.Errorf("tipo de banco desconhecido: %s", dbType)
	}

	if err := db.Open(); err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := db.CreateTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("criar tabelas: %w", err)
	}
	return db, nil
}

// convertPlaceholders converte ? em $1, $2, ... (PostgreSQL).
func convertPlaceholders(query string) string {
	var b strings.Builder
	index := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", index)
			index++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// createTables executa cada DDL do schema.
func createTables(db *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
