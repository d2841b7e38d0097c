package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ConfigError marks a fatal connection-configuration problem. Runs fail
// before any database access; there is nothing to retry.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "database configuration: " + e.Reason
}

// Descriptor is the single canonical description of the target database.
// It is resolved exactly once per process and never changes afterwards.
type Descriptor struct {
	Dialect  Dialect `validate:"required,oneof=mysql postgres"`
	Host     string  `validate:"required"`
	Port     string  `validate:"required"`
	User     string  `validate:"required"`
	Password string
	Database string `validate:"required"`
	SSLMode  string // postgres only
	Charset  string // mysql only
}

// MySQLDSN renders the descriptor in go-sql-driver/mysql format.
func (d *Descriptor) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Charset)
}

// PostgresDSN renders the descriptor as a key/value libpq connection string.
func (d *Descriptor) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Database, d.Port, d.SSLMode)
}

var validate = validator.New()

// ResolveDatabase derives the target connection descriptor. Precedence: the
// explicit override DSN (from a CLI flag), then DATABASE_URL, then whichever
// discrete variable family (MYSQL_* or POSTGRES_*) is fully populated. If
// both families are complete and no URL decides between them, resolution
// fails instead of silently picking one.
func (c *Config) ResolveDatabase(override string) (*Descriptor, error) {
	dsn := override
	if dsn == "" {
		dsn = c.Database.URL
	}
	if dsn != "" {
		return parseDSN(dsn)
	}

	mysqlReady := c.Database.MySQL.complete()
	postgresReady := c.Database.Postgres.complete()
	switch {
	case mysqlReady && postgresReady:
		return nil, &ConfigError{Reason: "both MYSQL_* and POSTGRES_* variable sets are complete; set DATABASE_URL to choose one"}
	case mysqlReady:
		m := c.Database.MySQL
		return checked(&Descriptor{
			Dialect:  DialectMySQL,
			Host:     m.Host,
			Port:     m.Port,
			User:     m.User,
			Password: m.Password,
			Database: m.Database,
			Charset:  "utf8mb4",
		})
	case postgresReady:
		p := c.Database.Postgres
		return checked(&Descriptor{
			Dialect:  DialectPostgres,
			Host:     p.Host,
			Port:     p.Port,
			User:     p.User,
			Password: p.Password,
			Database: p.Database,
			SSLMode:  p.SSLMode,
		})
	}
	return nil, &ConfigError{Reason: "no database configured; set DATABASE_URL or a complete MYSQL_*/POSTGRES_* variable set"}
}

func (m MySQLConfig) complete() bool {
	return m.Host != "" && m.User != "" && m.Password != "" && m.Database != ""
}

func (p PostgresConfig) complete() bool {
	return p.Host != "" && p.User != "" && p.Password != "" && p.Database != ""
}

func parseDSN(dsn string) (*Descriptor, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid DSN: %v", err)}
	}

	desc := &Descriptor{
		Host:     u.Hostname(),
		Port:     u.Port(),
		Database: strings.TrimPrefix(u.Path, "/"),
	}
	if u.User != nil {
		desc.User = u.User.Username()
		desc.Password, _ = u.User.Password()
	}

	query := u.Query()
	switch {
	case strings.HasPrefix(u.Scheme, "mysql"):
		desc.Dialect = DialectMySQL
		if desc.Port == "" {
			desc.Port = "3306"
		}
		desc.Charset = query.Get("charset")
		if desc.Charset == "" {
			desc.Charset = "utf8mb4"
		}
	case u.Scheme == "postgresql" || u.Scheme == "postgres":
		desc.Dialect = DialectPostgres
		if desc.Port == "" {
			desc.Port = "5432"
		}
		desc.SSLMode = query.Get("sslmode")
		if desc.SSLMode == "" {
			desc.SSLMode = "prefer"
		}
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported DSN scheme %q; expected mysql:// or postgresql://", u.Scheme)}
	}
	return checked(desc)
}

func checked(desc *Descriptor) (*Descriptor, error) {
	if err := validate.Struct(desc); err != nil {
		return nil, &ConfigError{Reason: "incomplete connection settings: " + err.Error()}
	}
	return desc, nil
}
