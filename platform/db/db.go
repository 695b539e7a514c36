package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"zapcast/platform/logger"
)

// DB wrapper para sqlx.DB com helpers do zapcast
type DB struct {
	*sqlx.DB
}

// New conecta ao PostgreSQL e valida a conexão
func New(databaseURL string) (*DB, error) {
	sqlxDB, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := sqlxDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlxDB}, nil
}

// NewWithMigrations conecta e executa migrações pendentes
func NewWithMigrations(databaseURL string, log *logger.Logger) (*DB, error) {
	database, err := New(databaseURL)
	if err != nil {
		return nil, err
	}

	migrator := NewMigrator(database, log)
	if err := migrator.RunMigrations(); err != nil {
		if closeErr := database.Close(); closeErr != nil {
			log.Error("Failed to close database after migration error: " + closeErr.Error())
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// Transaction executa fn dentro de uma transação com rollback automático
func (db *DB) Transaction(fn func(*sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				_ = rollbackErr
			}
			panic(p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				_ = rollbackErr
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

// Health verifica saúde da conexão
func (db *DB) Health() error {
	return db.Ping()
}
