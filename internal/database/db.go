// Package database opens the MySQL pool backing the principal and
// artist stores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config carries connection and pool parameters. Pool limits and the
// ping timeout come from the environment so an operator can size the
// pool without a rebuild.
type Config struct {
	User string
	Pass string
	Host string
	Port string
	Name string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DSN renders the driver connection string. parseTime maps DATETIME
// columns onto time.Time; loc=UTC keeps every timestamp in one zone
// regardless of the server's session default.
func (c Config) DSN() string {
	cred := c.User
	if c.Pass != "" {
		cred += ":" + c.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		cred, c.Host, c.Port, c.Name)
}

// Open connects to MySQL, applies the pool limits and verifies the
// connection with a bounded ping. The pool is closed again on ping
// failure so a misconfigured startup does not leak connections.
func Open(c Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), c.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
