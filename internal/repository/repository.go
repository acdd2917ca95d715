package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db       *sqlx.DB
	inTx     bool
	campaign CampaignRepository
	message  MessageRepository
	contact  ContactRepository
	company  CompanyRepository
	delivery DeliveryRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return newScoped(db, db, false)
}

func newScoped(db *sqlx.DB, q dbtx, inTx bool) *repositoryImpl {
	return &repositoryImpl{
		db:       db,
		inTx:     inTx,
		campaign: &campaignRepository{db: q},
		message:  &messageRepository{db: q},
		contact:  &contactRepository{db: q},
		company:  &companyRepository{db: q},
		delivery: &deliveryRepository{db: q},
	}
}

func (r *repositoryImpl) Campaign() CampaignRepository { return r.campaign }

func (r *repositoryImpl) Message() MessageRepository { return r.message }

func (r *repositoryImpl) Contact() ContactRepository { return r.contact }

func (r *repositoryImpl) Company() CompanyRepository { return r.company }

func (r *repositoryImpl) Delivery() DeliveryRepository { return r.delivery }

// Ping checks if the database connection is healthy.
func (r *repositoryImpl) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}

// WithTx implements Repository.
func (r *repositoryImpl) WithTx(ctx context.Context, fn func(tx Repository) error) (err error) {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(newScoped(r.db, tx, true))
}
