package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/varunm24/socialflow/internal/models"
)

type PostAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pa *models.PostAccount) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostAccount, error)
	Remove(ctx context.Context, postID, accountID int64) error
}

type postAccountRepository struct {
	db *sql.DB
}

func NewPostAccountRepository(db *sql.DB) PostAccountRepository {
	return &postAccountRepository{db: db}
}

func (r *postAccountRepository) Create(ctx context.Context, tx *sql.Tx, pa *models.PostAccount) error {
	var err error

	query := `
		INSERT INTO post_accounts (post_id, account_id)
		VALUES ($1, $2)
	`
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, pa.PostID, pa.AccountID)
	} else {
		_, err = r.db.ExecContext(ctx, query, pa.PostID, pa.AccountID)
	}

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postAccountRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostAccount, error) {
	query := "SELECT post_id, account_id FROM post_accounts WHERE post_id = $1"

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var accounts []*models.PostAccount
	for rows.Next() {
		var pa models.PostAccount
		if err := rows.Scan(&pa.PostID, &pa.AccountID); err != nil {
			slog.Info(err.Error())
			return nil, fmt.Errorf("scan row: %w", err)
		}
		accounts = append(accounts, &pa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return accounts, nil
}

func (r *postAccountRepository) Remove(ctx context.Context, postID, accountID int64) error {
	query := `DELETE FROM post_accounts WHERE post_id = $1 AND account_id = $2`
	_, err := r.db.ExecContext(ctx, query, postID, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
