package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"phraseguard/internal/dictionary/models"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/platform/sentinel"
	"phraseguard/pkg/platform/tx"
)

const table = "dictionary_items"

var columns = []string{
	"id", "organization_id", "phrase", "category", "notes", "embedding", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres persists items in dictionary_items. Vectors live in a pgvector
// column without a fixed dimension.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func vectorValue(it *models.Item) any {
	if !it.HasVector() {
		return nil
	}
	return pgvector.NewVector(it.Vector().Values())
}

// Save upserts the item's content and vector.
func (s *Postgres) Save(ctx context.Context, it *models.Item) error {
	query, args, err := psql.Insert(table).
		Columns(columns...).
		Values(
			uuid.UUID(it.ID()),
			uuid.UUID(it.OrganizationID()),
			it.Phrase(),
			string(it.Category()),
			it.Notes(),
			vectorValue(it),
			it.CreatedAt(),
			it.UpdatedAt(),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			phrase = EXCLUDED.phrase,
			category = EXCLUDED.category,
			notes = EXCLUDED.notes,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert dictionary item: %w", err)
	}
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert dictionary item: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, itemID id.DictionaryItemID) (*models.Item, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(sq.Eq{"id": uuid.UUID(itemID)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find dictionary item: %w", err)
	}
	it, err := scanItem(tx.Executor(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find dictionary item: %w", err)
	}
	return it, nil
}

func (s *Postgres) ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Item, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(sq.Eq{"organization_id": uuid.UUID(orgID)}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list dictionary items: %w", err)
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dictionary items: %w", err)
	}
	defer rows.Close()

	var out []*models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dictionary item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dictionary items: %w", err)
	}
	return out, nil
}

// SaveVector writes the vector only while the stored phrase and category
// still match the item.
func (s *Postgres) SaveVector(ctx context.Context, it *models.Item) error {
	query, args, err := psql.Update(table).
		Set("embedding", vectorValue(it)).
		Set("updated_at", it.UpdatedAt()).
		Where(sq.Eq{
			"id":       uuid.UUID(it.ID()),
			"phrase":   it.Phrase(),
			"category": string(it.Category()),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save vector: %w", err)
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	if n == 0 {
		// Either the row is gone or its content changed since it was read.
		if _, ferr := s.FindByID(ctx, it.ID()); errors.Is(ferr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	var (
		itemID, orgID        uuid.UUID
		phrase, cat, notes   string
		embedding            *pgvector.Vector
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&itemID, &orgID, &phrase, &cat, &notes, &embedding, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var vec id.EmbeddingVector
	if embedding != nil {
		v, err := id.NewEmbeddingVector(embedding.Slice())
		if err != nil {
			return nil, fmt.Errorf("stored embedding for %s: %w", itemID, err)
		}
		vec = v
	}
	return models.Rehydrate(models.RehydrateParams{
		NewItemParams: models.NewItemParams{
			ID:             id.DictionaryItemID(itemID),
			OrganizationID: id.OrganizationID(orgID),
			Phrase:         phrase,
			Category:       models.Category(cat),
			Notes:          notes,
		},
		Vector:    vec,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}), nil
}
