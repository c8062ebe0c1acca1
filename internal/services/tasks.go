package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"

	"github.com/gofrs/uuid"
)

type TaskListQuery struct {
	Completed *bool
	UserID    *uuid.UUID
	Page      int
}

// TaskInput is the client-settable part of a task. Nil fields are left
// unchanged on update. DescriptionSet distinguishes an explicit null
// description from an absent one.
type TaskInput struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Completed      *bool
}

type TaskService interface {
	List(ctx context.Context, p *models.Principal, q TaskListQuery) (*Page[models.Task], error)
	Get(ctx context.Context, p *models.Principal, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, p *models.Principal, in TaskInput) (*models.Task, error)
	Update(ctx context.Context, p *models.Principal, id uuid.UUID, in TaskInput) (*models.Task, error)
	Delete(ctx context.Context, p *models.Principal, id uuid.UUID) error
}

type TaskServiceImpl struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	pageSize int
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, pageSize int) *TaskServiceImpl {
	if pageSize < 1 {
		pageSize = 5
	}
	return &TaskServiceImpl{tasks: tasks, users: users, pageSize: pageSize}
}

func (s *TaskServiceImpl) List(ctx context.Context, p *models.Principal, q TaskListQuery) (*Page[models.Task], error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	if q.UserID != nil {
		exists, err := s.users.Exists(ctx, *q.UserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, FieldError("user", MsgInvalidChoice)
		}
	}

	number := q.Page
	if number == 0 {
		number = 1
	}
	offset, err := pageOffset(number, s.pageSize)
	if err != nil {
		return nil, err
	}

	filter := repositories.TaskFilter{Completed: q.Completed, UserID: q.UserID}
	tasks, count, err := s.tasks.List(ctx, VisibleTasks(p), filter, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	if err := checkPage(number, s.pageSize, count); err != nil {
		return nil, err
	}

	return &Page[models.Task]{Items: tasks, Count: count, Number: number, Size: s.pageSize}, nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, p *models.Principal, id uuid.UUID) (*models.Task, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	task, err := s.tasks.Get(ctx, VisibleTasks(p), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

func (s *TaskServiceImpl) Create(ctx context.Context, p *models.Principal, in TaskInput) (*models.Task, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	verr := NewValidationError()
	if in.Title == nil {
		verr.Add("title", MsgRequired)
	}
	in = normalizeTaskInput(in, verr)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:      p.ID,
		Title:       *in.Title,
		Description: in.Description,
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	task.User = models.User{ID: p.ID, Username: p.Username, Role: p.Role}

	monitoring.TasksCreatedTotal.Inc()
	return task, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, p *models.Principal, id uuid.UUID, in TaskInput) (*models.Task, error) {
	task, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	verr := NewValidationError()
	in = normalizeTaskInput(in, verr)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.DescriptionSet {
		task.Description = in.Description
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	if err := s.tasks.Update(ctx, VisibleTasks(p), task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, p *models.Principal, id uuid.UUID) error {
	if p == nil {
		return ErrUnauthenticated
	}

	deleted, err := s.tasks.Delete(ctx, VisibleTasks(p), id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}

	monitoring.TasksDeletedTotal.Inc()
	return nil
}

// normalizeTaskInput trims text fields and records violations in verr.
func normalizeTaskInput(in TaskInput, verr *ValidationError) TaskInput {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			verr.Add("title", MsgBlank)
		case utf8.RuneCountInString(title) > models.TaskTitleMaxLength:
			verr.Add("title", MsgMaxLength(models.TaskTitleMaxLength))
		}
		in.Title = &title
	}

	if in.Description != nil {
		in.DescriptionSet = true
		description := strings.TrimSpace(*in.Description)
		in.Description = &description
	}

	return in
}
