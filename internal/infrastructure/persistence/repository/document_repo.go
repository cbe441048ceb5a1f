package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/persistence/sqlite"
)

const documentColumns = `
	id, original_name, stored_name, fingerprint, kind, size_bytes, status,
	wages, federal_withheld, interest_income, nec_income, uploaded_at
`

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRepository{db: db, logger: logger}
}

// Create inserts a registry record and sets its ID
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO documents (
			original_name, stored_name, fingerprint, kind, size_bytes, status,
			wages, federal_withheld, interest_income, nec_income, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		doc.OriginalName,
		doc.StoredName,
		doc.Fingerprint,
		string(doc.Kind),
		doc.SizeBytes,
		doc.Status,
		doc.Fields.Wages,
		doc.Fields.FederalWithheld,
		doc.Fields.InterestIncome,
		doc.Fields.NECIncome,
		doc.UploadedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", port.ErrDuplicateDocument, doc.OriginalName)
		}
		r.logger.Error("Failed to create document", zap.String("name", doc.OriginalName), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	doc.ID = id
	return nil
}

// GetByFingerprint returns nil, nil when no record matches
func (r *DocumentRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*entity.Document, error) {
	return r.getOne(ctx, "fingerprint", fingerprint)
}

// GetByOriginalName returns nil, nil when no record matches
func (r *DocumentRepository) GetByOriginalName(ctx context.Context, name string) (*entity.Document, error) {
	return r.getOne(ctx, "original_name", name)
}

func (r *DocumentRepository) getOne(ctx context.Context, column, value string) (*entity.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE %s = ?", documentColumns, column)

	doc, err := scanDocument(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String(column, value), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// List returns every record in upload order
func (r *DocumentRepository) List(ctx context.Context) ([]*entity.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents ORDER BY uploaded_at, id", documentColumns)

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of registry records
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// DeleteAll removes every record and returns how many were deleted
func (r *DocumentRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		r.logger.Error("Failed to delete documents", zap.Error(err))
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	var kind string
	err := row.Scan(
		&doc.ID,
		&doc.OriginalName,
		&doc.StoredName,
		&doc.Fingerprint,
		&kind,
		&doc.SizeBytes,
		&doc.Status,
		&doc.Fields.Wages,
		&doc.Fields.FederalWithheld,
		&doc.Fields.InterestIncome,
		&doc.Fields.NECIncome,
		&doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Kind = entity.DocumentKind(kind)
	return &doc, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
