package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// fakeUserRepository is an in-memory stand-in for the Postgres user store.
type fakeUserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]domain.User)}
}

func (r *fakeUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, nil
}

func (r *fakeUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.ListByRoleIn(ctx, []domain.Role{role})
}

func (r *fakeUserRepository) ListByRoleIn(_ context.Context, roles []domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	result := []domain.User{}
	for _, user := range r.users {
		if _, ok := allowed[user.Role]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

func (r *fakeUserRepository) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// seed inserts a user directly, bypassing policy, and returns it.
func (r *fakeUserRepository) seed(name, email string, role domain.Role) *domain.User {
	user := &domain.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	_ = r.Create(context.Background(), user)
	return user
}

// fakeWorkflowRepository is an in-memory stand-in for the workflow store.
type fakeWorkflowRepository struct {
	mu        sync.Mutex
	workflows map[string]domain.Workflow
}

func newFakeWorkflowRepository() *fakeWorkflowRepository {
	return &fakeWorkflowRepository{workflows: make(map[string]domain.Workflow)}
}

func (r *fakeWorkflowRepository) Create(_ context.Context, workflow *domain.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	workflow.ID = uuid.NewString()
	now := time.Now()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	r.workflows[workflow.ID] = *workflow
	return nil
}

func (r *fakeWorkflowRepository) Update(_ context.Context, workflow *domain.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workflows[workflow.ID]; !ok {
		return pgx.ErrNoRows
	}
	workflow.UpdatedAt = time.Now()
	r.workflows[workflow.ID] = *workflow
	return nil
}

func (r *fakeWorkflowRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workflows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.workflows, id)
	return nil
}

func (r *fakeWorkflowRepository) GetByID(_ context.Context, id string) (*domain.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workflow, ok := r.workflows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &workflow, nil
}

func (r *fakeWorkflowRepository) ListWithFilter(_ context.Context, filter repository.WorkflowFilter) ([]domain.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []domain.Workflow{}
	for _, workflow := range r.workflows {
		if filter.Status != nil && workflow.Status != *filter.Status {
			continue
		}
		if filter.AssignedTo != nil && workflow.AssignedTo != *filter.AssignedTo {
			continue
		}
		if filter.AssignedToRole != nil && workflow.AssignedToRole != *filter.AssignedToRole {
			continue
		}
		if len(filter.AssignedToRoleIn) > 0 {
			match := false
			for _, role := range filter.AssignedToRoleIn {
				if workflow.AssignedToRole == role {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.CreatedBy != nil && workflow.CreatedBy != *filter.CreatedBy {
			continue
		}
		result = append(result, workflow)
	}
	return result, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []events.Event{}
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
