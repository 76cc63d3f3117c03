package pg

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

const driverName = "nrpgx"

// Config configures a postgres connection pool
type Config struct {
	User               string        `mapstructure:"user"`
	Host               string        `mapstructure:"host"`
	Password           string        `mapstructure:"password"`
	Port               int           `mapstructure:"port"`
	DbName             string        `mapstructure:"db_name"`
	MaxOpenConnections int           `mapstructure:"max_open_connections"`
	MaxIdleConnections int           `mapstructure:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
}

// New opens a connection pool using username/password credentials and
// verifies connectivity.
func New(config Config) (*sql.DB, error) {
	if len(config.Host) == 0 || len(config.DbName) == 0 {
		return nil, errors.New("postgres host and db name are required")
	}

	port := config.Port
	if port == 0 {
		port = 5432
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		config.User, config.Password, config.Host, port, config.DbName,
	)

	// The "nrpgx" driver is the pgx stdlib driver instrumented for New Relic
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening postgres connection pool")
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error pinging postgres")
	}

	return db, nil
}
