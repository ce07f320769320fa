package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"phraseguard/internal/check/models"
	"phraseguard/internal/queue"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/platform/sentinel"
	"phraseguard/pkg/platform/tx"
)

const (
	checksTable     = "checks"
	violationsTable = "violations"
)

var checkColumns = []string{
	"id", "user_id", "organization_id", "input_text", "extracted_text", "input_type", "image_ref",
	"status", "violation_count", "rewritten_text", "error_message", "created_at", "completed_at",
}

var violationColumns = []string{
	"id", "check_id", "position", "dictionary_item_id", "original_text", "suggested_text",
	"reasoning", "start_offset", "end_offset", "created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// terminalStatuses is the set no write may move a check out of.
var terminalStatuses = []string{
	string(models.StatusCompleted),
	string(models.StatusFailed),
	string(models.StatusCancelled),
}

func stringsToArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// Postgres persists checks in checks and their violations in violations.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Save upserts the check row and replaces its violations in one transaction.
// A row already in a terminal state is left untouched and Save reports
// sentinel.ErrConflict.
func (s *Postgres) Save(ctx context.Context, c *models.Check) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		if err := s.upsertCheck(ctx, c); err != nil {
			return err
		}
		return s.replaceViolations(ctx, c)
	})
}

func (s *Postgres) upsertCheck(ctx context.Context, c *models.Check) error {
	query, args, err := psql.Insert(checksTable).
		Columns(checkColumns...).
		Values(
			uuid.UUID(c.ID()),
			uuid.UUID(c.UserID()),
			uuid.UUID(c.OrganizationID()),
			c.InputText(),
			c.ExtractedText(),
			string(c.InputType()),
			c.ImageRef(),
			string(c.Status()),
			c.ViolationCount(),
			c.RewrittenText(),
			c.ErrorMessage(),
			c.CreatedAt(),
			c.CompletedAt(),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			violation_count = EXCLUDED.violation_count,
			rewritten_text = EXCLUDED.rewritten_text,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at
		WHERE checks.status NOT IN (?, ?, ?)`, stringsToArgs(terminalStatuses)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert check: %w", err)
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert check: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert check rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) replaceViolations(ctx context.Context, c *models.Check) error {
	del, args, err := psql.Delete(violationsTable).
		Where(sq.Eq{"check_id": uuid.UUID(c.ID())}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete violations: %w", err)
	}
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, del, args...); err != nil {
		return fmt.Errorf("delete violations: %w", err)
	}

	violations := c.Violations()
	if len(violations) == 0 {
		return nil
	}
	insert := psql.Insert(violationsTable).Columns(violationColumns...)
	for i, v := range violations {
		var itemID *uuid.UUID
		if v.DictionaryItemID != nil {
			u := uuid.UUID(*v.DictionaryItemID)
			itemID = &u
		}
		insert = insert.Values(
			uuid.UUID(v.ID),
			uuid.UUID(c.ID()),
			i,
			itemID,
			v.OriginalText,
			v.SuggestedText,
			v.Reasoning,
			v.Range.Start(),
			v.Range.End(),
			v.CreatedAt,
		)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert violations: %w", err)
	}
	if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert violations: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	query, args, err := psql.Select(checkColumns...).
		From(checksTable).
		Where(sq.Eq{"id": uuid.UUID(checkID)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find check: %w", err)
	}
	p, err := scanCheck(tx.Executor(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find check: %w", err)
	}
	violations, err := s.findViolations(ctx, checkID)
	if err != nil {
		return nil, err
	}
	p.Violations = violations
	return models.Rehydrate(p), nil
}

func (s *Postgres) findViolations(ctx context.Context, checkID id.CheckID) ([]models.Violation, error) {
	query, args, err := psql.Select(violationColumns...).
		From(violationsTable).
		Where(sq.Eq{"check_id": uuid.UUID(checkID)}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find violations: %w", err)
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find violations: %w", err)
	}
	defer rows.Close()

	var out []models.Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find violations: %w", err)
	}
	return out, nil
}

// UpdateCheckStatus records a terminal failure from the queue. Checks already
// in a terminal state are left unchanged.
func (s *Postgres) UpdateCheckStatus(ctx context.Context, checkID id.CheckID, update queue.StatusUpdate) error {
	query, args, err := psql.Update(checksTable).
		Set("status", string(update.Status)).
		Set("error_message", update.ErrorMessage).
		Set("completed_at", update.CompletedAt).
		Where(sq.Eq{"id": uuid.UUID(checkID)}).
		Where(sq.NotEq{"status": terminalStatuses}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update check status: %w", err)
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update check status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update check status: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, checkID); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheck(row scanner) (models.RehydrateParams, error) {
	var (
		checkID, userID, orgID  uuid.UUID
		inputText, extracted    string
		inputType, imageRef     string
		status, rewritten, errm string
		count                   int
		createdAt               time.Time
		completedAt             sql.NullTime
	)
	if err := row.Scan(&checkID, &userID, &orgID, &inputText, &extracted, &inputType, &imageRef,
		&status, &count, &rewritten, &errm, &createdAt, &completedAt); err != nil {
		return models.RehydrateParams{}, err
	}
	p := models.RehydrateParams{
		NewCheckParams: models.NewCheckParams{
			ID:             id.CheckID(checkID),
			UserID:         id.UserID(userID),
			OrganizationID: id.OrganizationID(orgID),
			InputText:      inputText,
			ExtractedText:  extracted,
			InputType:      id.InputType(inputType),
			ImageRef:       imageRef,
		},
		Status:         models.Status(status),
		ViolationCount: count,
		RewrittenText:  rewritten,
		ErrorMessage:   errm,
		CreatedAt:      createdAt,
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}

func scanViolation(row scanner) (models.Violation, error) {
	var (
		violationID, checkID uuid.UUID
		position             int
		itemID               uuid.NullUUID
		original, suggested  string
		reasoning            string
		start, end           int
		createdAt            time.Time
	)
	if err := row.Scan(&violationID, &checkID, &position, &itemID, &original, &suggested,
		&reasoning, &start, &end, &createdAt); err != nil {
		return models.Violation{}, err
	}
	r, err := id.NewTextRange(start, end)
	if err != nil {
		return models.Violation{}, fmt.Errorf("stored violation %s: %w", violationID, err)
	}
	v := models.Violation{
		ID:            id.ViolationID(violationID),
		CheckID:       id.CheckID(checkID),
		OriginalText:  original,
		SuggestedText: suggested,
		Reasoning:     reasoning,
		Range:         r,
		CreatedAt:     createdAt,
	}
	if itemID.Valid {
		dictID := id.DictionaryItemID(itemID.UUID)
		v.DictionaryItemID = &dictID
	}
	return v, nil
}
