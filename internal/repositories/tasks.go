package repositories

import (
	"context"
	"errors"
	"fmt"

	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository is the only path to the tasks table. Every read and delete
// takes a TaskScope.
type TaskRepository interface {
	List(ctx context.Context, scope TaskScope, filter TaskFilter, limit, offset int) ([]models.Task, int64, error)
	Get(ctx context.Context, scope TaskScope, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, scope TaskScope, task *models.Task) error
	Delete(ctx context.Context, scope TaskScope, id uuid.UUID) (bool, error)
}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) scoped(ctx context.Context, scope TaskScope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Task{}).Scopes(scope.apply)
}

func (r *GormTaskRepository) List(ctx context.Context, scope TaskScope, filter TaskFilter, limit, offset int) ([]models.Task, int64, error) {
	var count int64
	if err := r.scoped(ctx, scope).Scopes(filter.apply).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	tasks := make([]models.Task, 0, limit)
	if count == 0 {
		return tasks, 0, nil
	}

	err := r.scoped(ctx, scope).
		Scopes(filter.apply).
		Preload("User").
		Order("tasks.created_at DESC").
		Order("tasks.id").
		Limit(limit).
		Offset(offset).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, count, nil
}

func (r *GormTaskRepository) Get(ctx context.Context, scope TaskScope, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.scoped(ctx, scope).Preload("User").Where("tasks.id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &task, nil
}

func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update writes the client-settable columns of a task inside scope. A task
// that is out of scope, or was deleted since it was read, yields ErrNotFound
// and is never re-inserted.
func (r *GormTaskRepository) Update(ctx context.Context, scope TaskScope, task *models.Task) error {
	now := r.db.NowFunc()
	result := r.scoped(ctx, scope).
		Where("tasks.id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"completed":   task.Completed,
			"updated_at":  now,
		})
	if result.Error != nil {
		return fmt.Errorf("update task %s: %w", task.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	task.UpdatedAt = now
	return nil
}

func (r *GormTaskRepository) Delete(ctx context.Context, scope TaskScope, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Scopes(scope.apply).Where("tasks.id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return false, fmt.Errorf("delete task %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}
