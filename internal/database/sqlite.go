package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDatabase implementa a interface Database para SQLite
type SQLiteDatabase struct {
	connString string
	db         *sql.DB
}

// NewSQLiteDatabase cria uma nova instância do database SQLite
func NewSQLiteDatabase(connString string) *SQLiteDatabase {
	return &SQLiteDatabase{
		connString: connString,
	}
}

// Open abre a conexão com o banco de dados, com chaves estrangeiras ativas
func (s *SQLiteDatabase) Open() error {
	dsn := s.connString
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}
	// SQLite serializa escritas; uma conexão evita "database is locked".
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

// Close fecha a conexão com o banco de dados
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifica se a conexão está ativa
func (s *SQLiteDatabase) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database not connected")
	}
	return s.db.Ping()
}

// GetDB retorna a instância *sql.DB subjacente
func (s *SQLiteDatabase) GetDB() *sql.DB {
	return s.db
}

// Rebind não altera a query: SQLite usa ?
func (s *SQLiteDatabase) Rebind(query string) string {
	return query
}

// CreateTables cria as tabelas necessárias para SQLite
func (s *SQLiteDatabase) CreateTables() error {
	return createTables(s.db, schema)
}
