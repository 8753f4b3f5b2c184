package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
)

type Repository interface {
	Create(ctx context.Context, record *models.AnalysisRecord) error
	GetByID(ctx context.Context, id string) (*models.AnalysisRecord, error)
	List(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		INSERT INTO analyses (id, filename, file_size, content_type, language, extraction_method,
		                      text_length, document_type, risk_level, model, fallback, translated,
		                      storage_key, created_at)
		VALUES (:id, :filename, :file_size, :content_type, :language, :extraction_method,
		        :text_length, :document_type, :risk_level, :model, :fallback, :translated,
		        :storage_key, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, record)
	return err
}

// GetByID returns nil and no error when the record does not exist.
func (r *repository) GetByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord

	query := `
		SELECT id, filename, file_size, content_type, language, extraction_method, text_length,
		       document_type, risk_level, model, fallback, translated, storage_key, created_at
		FROM analyses
		WHERE id = ?
	`

	err := r.db.GetContext(ctx, &record, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// List returns the most recent records first.
func (r *repository) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	records := []models.AnalysisRecord{}

	query := `
		SELECT id, filename, file_size, content_type, language, extraction_method, text_length,
		       document_type, risk_level, model, fallback, translated, storage_key, created_at
		FROM analyses
		ORDER BY created_at DESC, id
		LIMIT ?
	`

	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, err
	}
	return records, nil
}
