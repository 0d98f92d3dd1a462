package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"godoor/domain/core"
	"godoor/domain/door"
)

// uniqueViolation is the SQLSTATE for a duplicate primary key
const uniqueViolation = "23505"

// analysisRow mirrors the door_analyses table
type analysisRow struct {
	ID           string    `db:"id"`
	TreatmentArm string    `db:"treatment_arm"`
	ControlArm   string    `db:"control_arm"`
	Hierarchy    string    `db:"hierarchy"` // JSON text; pq sends []byte as bytea
	Result       string    `db:"result"`
	Distribution string    `db:"distribution"`
	NPairs       int64     `db:"n_pairs"`
	NetBenefit   float64   `db:"net_benefit"`
	PValue       float64   `db:"p_value"`
	CreatedAt    time.Time `db:"created_at"`
}

const analysisColumns = `id, treatment_arm, control_arm, hierarchy, result, distribution,
		n_pairs, net_benefit, p_value, created_at`

// AnalysisRepository stores analyses in door_analyses. The result and
// distribution are kept as JSONB; headline numbers are duplicated into
// columns for querying.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts a new analysis
func (r *AnalysisRepository) Save(ctx context.Context, analysis *door.Analysis) error {
	row, err := toRow(analysis)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO door_analyses (` + analysisColumns + `)
		VALUES (:id, :treatment_arm, :control_arm, :hierarchy, :result, :distribution,
			:n_pairs, :net_benefit, :p_value, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("analysis %s already exists", analysis.ID)
		}
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// Get loads one analysis
func (r *AnalysisRepository) Get(ctx context.Context, id core.AnalysisID) (*door.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM door_analyses WHERE id = $1`

	var row analysisRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return fromRow(row)
}

// List returns the newest analyses first
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]*door.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM door_analyses ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	analyses := make([]*door.Analysis, 0, len(rows))
	for _, row := range rows {
		a, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, nil
}

// Delete removes an analysis
func (r *AnalysisRepository) Delete(ctx context.Context, id core.AnalysisID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM door_analyses WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	return nil
}

func toRow(a *door.Analysis) (analysisRow, error) {
	hierarchy, err := json.Marshal(a.Hierarchy)
	if err != nil {
		return analysisRow{}, fmt.Errorf("failed to marshal hierarchy: %w", err)
	}
	result, err := json.Marshal(a.Result)
	if err != nil {
		return analysisRow{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	distribution, err := json.Marshal(a.Distribution)
	if err != nil {
		return analysisRow{}, fmt.Errorf("failed to marshal distribution: %w", err)
	}

	return analysisRow{
		ID:           a.ID.String(),
		TreatmentArm: a.TreatmentArm,
		ControlArm:   a.ControlArm,
		Hierarchy:    string(hierarchy),
		Result:       string(result),
		Distribution: string(distribution),
		NPairs:       a.Result.NPairs,
		NetBenefit:   a.Result.NetBenefit,
		PValue:       a.Result.PValue,
		CreatedAt:    a.CreatedAt,
	}, nil
}

func fromRow(row analysisRow) (*door.Analysis, error) {
	a := &door.Analysis{
		ID:           core.AnalysisID(row.ID),
		TreatmentArm: row.TreatmentArm,
		ControlArm:   row.ControlArm,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Hierarchy), &a.Hierarchy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hierarchy: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Result), &a.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Distribution), &a.Distribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}
	if err := a.Result.Check(); err != nil {
		return nil, fmt.Errorf("stored analysis %s is inconsistent: %w", row.ID, err)
	}
	return a, nil
}
