package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"opinions-migrate/internal/config"
	"opinions-migrate/internal/model"
)

func getLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// dialectorFor picks the gorm driver exactly once from the resolved
// descriptor. Everything downstream (DDL, upsert clauses) goes through the
// dialector, so no call site branches on the dialect again.
func dialectorFor(desc *config.Descriptor) gorm.Dialector {
	if desc.Dialect == config.DialectMySQL {
		return mysql.Open(desc.MySQLDSN())
	}
	return postgres.Open(desc.PostgresDSN())
}

func Open(desc *config.Descriptor) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(desc), &gorm.Config{
		Logger: getLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", desc.Dialect, err)
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// EnsureSchema creates the target tables, indexes and foreign keys if they
// are missing. Safe to run on every startup; existing data is untouched.
// On PostgreSQL it additionally prepares the pgvector extension and the
// vectorized_knowledge table.
func EnsureSchema(db *gorm.DB, dialect config.Dialect) error {
	models := []interface{}{
		&model.SavedSession{},
		&model.SessionRevision{},
		&model.GeneratedReport{},
		&model.KnowledgeResource{},
	}

	if dialect == config.DialectPostgres {
		// Extensions may require superuser rights; the vector migration below
		// surfaces the real failure if pgvector is genuinely unavailable.
		setupSQL := []string{
			`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
			`CREATE EXTENSION IF NOT EXISTS vector;`,
		}
		for _, sql := range setupSQL {
			if err := db.Exec(sql).Error; err != nil {
				log.Printf("Warn: failed to execute setup SQL: %v. Continuing...", err)
			}
		}
		models = append(models, &model.VectorizedKnowledge{})
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
