package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/internal/config"
)

const connectRetryDelay = 2 * time.Second

type Conn interface {
	Queryer
	BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	Close() error
	Ping(context.Context) error
	RunInTransaction(context.Context, func(*sql.Tx) error) error
}

type Connection struct {
	*sql.DB
}

// NewConnection abre o pool e espera o banco responder, tentando de novo
// até DATABASE_CONNECT_RETRIES vezes.
func NewConnection(ctx context.Context, cfg config.Database) (*Connection, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: erro ao abrir conexão")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	conn := &Connection{DB: db}
	if err := conn.waitReady(ctx, cfg.ConnectRetries); err != nil {
		_ = db.Close()
		return nil, err
	}

	return conn, nil
}

// FromDB embrulha um *sql.DB já aberto (usado com sqlmock nos testes).
func FromDB(db *sql.DB) *Connection {
	return &Connection{DB: db}
}

func (c *Connection) waitReady(ctx context.Context, retries int) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = c.Ping(ctx); err == nil {
			return nil
		}

		logrus.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("postgres: banco ainda não respondeu")

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "postgres: conexão cancelada")
		case <-time.After(connectRetryDelay):
		}
	}
	return errors.Wrap(err, "postgres: banco indisponível")
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// RunInTransaction executa fn numa transação; erro ou panic desfazem tudo.
func (c *Connection) RunInTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "postgres: erro ao iniciar transação")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback também falhou: %v", rbErr)
		}
		return err
	}

	return tx.Commit()
}
