package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// WorkflowFilter captures workflow query parameters. Zero-value fields are
// ignored when building the query.
type WorkflowFilter struct {
	Status           *domain.WorkflowStatus
	AssignedTo       *string
	AssignedToRole   *domain.Role
	AssignedToRoleIn []domain.Role
	CreatedBy        *string
}

// WorkflowRepository encapsulates workflow persistence.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *domain.Workflow) error
	Update(ctx context.Context, workflow *domain.Workflow) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Workflow, error)
	ListWithFilter(ctx context.Context, filter WorkflowFilter) ([]domain.Workflow, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository instantiates repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

const workflowColumns = `id, title, description, status, assigned_to, assigned_to_role,
               created_by, created_at, updated_at, due_date`

func (r *workflowRepository) Create(ctx context.Context, workflow *domain.Workflow) error {
	// created_at and updated_at default to the same NOW() in a single
	// statement, so a fresh workflow always satisfies createdAt == updatedAt.
	const query = `
        INSERT INTO workflows (title, description, status, assigned_to, assigned_to_role, created_by, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		workflow.Title,
		workflow.Description,
		workflow.Status,
		workflow.AssignedTo,
		workflow.AssignedToRole,
		workflow.CreatedBy,
		workflow.DueDate,
	).Scan(&workflow.ID, &workflow.CreatedAt, &workflow.UpdatedAt)
}

func (r *workflowRepository) Update(ctx context.Context, workflow *domain.Workflow) error {
	const query = `
        UPDATE workflows SET title=$1, description=$2, status=$3, assigned_to=$4,
            assigned_to_role=$5, due_date=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query,
		workflow.Title,
		workflow.Description,
		workflow.Status,
		workflow.AssignedTo,
		workflow.AssignedToRole,
		workflow.DueDate,
		workflow.ID,
	).Scan(&workflow.UpdatedAt); err != nil {
		return err
	}
	return nil
}

func (r *workflowRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workflowRepository) GetByID(ctx context.Context, id string) (*domain.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflows WHERE id=$1`, workflowColumns)

	var workflow domain.Workflow
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&workflow.ID,
		&workflow.Title,
		&workflow.Description,
		&workflow.Status,
		&workflow.AssignedTo,
		&workflow.AssignedToRole,
		&workflow.CreatedBy,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&workflow.DueDate,
	); err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (r *workflowRepository) ListWithFilter(ctx context.Context, filter WorkflowFilter) ([]domain.Workflow, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.AssignedToRole != nil {
		args = append(args, *filter.AssignedToRole)
		clauses = append(clauses, fmt.Sprintf("assigned_to_role=$%d", len(args)))
	}
	if len(filter.AssignedToRoleIn) > 0 {
		placeholders := make([]string, len(filter.AssignedToRoleIn))
		for i, role := range filter.AssignedToRoleIn {
			args = append(args, role)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("assigned_to_role IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM workflows WHERE %s ORDER BY updated_at DESC`,
		workflowColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

func scanWorkflows(rows pgx.Rows) ([]domain.Workflow, error) {
	var result []domain.Workflow
	for rows.Next() {
		var workflow domain.Workflow
		if err := rows.Scan(
			&workflow.ID,
			&workflow.Title,
			&workflow.Description,
			&workflow.Status,
			&workflow.AssignedTo,
			&workflow.AssignedToRole,
			&workflow.CreatedBy,
			&workflow.CreatedAt,
			&workflow.UpdatedAt,
			&workflow.DueDate,
		); err != nil {
			return nil, err
		}
		result = append(result, workflow)
	}
	return result, rows.Err()
}
