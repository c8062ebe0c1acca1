package services_test

import (
	"context"
	"testing"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/services"
	"task-manager/api/internal/testutil"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TaskServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	service *services.TaskServiceImpl
	ctx     context.Context

	u1 *models.User
	u2 *models.User
	a1 *models.User
}

func (s *TaskServiceSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.service = services.NewTaskService(
		repositories.NewTaskRepository(s.db),
		repositories.NewUserRepository(s.db),
		5,
	)
	s.ctx = context.Background()
	s.u1 = testutil.CreateUser(s.T(), s.db, "u1", "pw1", models.RoleRegular)
	s.u2 = testutil.CreateUser(s.T(), s.db, "u2", "pw1", models.RoleRegular)
	s.a1 = testutil.CreateUser(s.T(), s.db, "a1", "pw1", models.RoleAdmin)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func (s *TaskServiceSuite) create(u *models.User, title string) *models.Task {
	task, err := s.service.Create(s.ctx, u.Principal(), services.TaskInput{Title: strPtr(title)})
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceSuite) titles(page *services.Page[models.Task]) []string {
	out := make([]string, 0, len(page.Items))
	for _, t := range page.Items {
		out = append(out, t.Title)
	}
	return out
}

func (s *TaskServiceSuite) TestScenario_RegularSeesOwnAdminSeesAll() {
	s.create(s.u1, "A")
	s.create(s.a1, "B")

	page, err := s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"A"}, s.titles(page))

	page, err = s.service.List(s.ctx, s.a1.Principal(), services.TaskListQuery{})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"A", "B"}, s.titles(page))
}

func (s *TaskServiceSuite) TestCreate_AssignsOwnerAndDefaults() {
	task := s.create(s.u1, "  write report  ")

	s.Equal(s.u1.ID, task.UserID)
	s.Equal("u1", task.User.Username)
	s.Equal("write report", task.Title)
	s.False(task.Completed)
	s.Nil(task.Description)
	s.False(task.CreatedAt.IsZero())
}

func (s *TaskServiceSuite) TestCreate_Validation() {
	_, err := s.service.Create(s.ctx, s.u1.Principal(), services.TaskInput{})
	var verr *services.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{services.MsgRequired}, verr.Fields["title"])

	_, err = s.service.Create(s.ctx, s.u1.Principal(), services.TaskInput{Title: strPtr("   ")})
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{services.MsgBlank}, verr.Fields["title"])

	long := make([]byte, models.TaskTitleMaxLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.service.Create(s.ctx, s.u1.Principal(), services.TaskInput{Title: strPtr(string(long))})
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{services.MsgMaxLength(255)}, verr.Fields["title"])

	_, err = s.service.Create(s.ctx, nil, services.TaskInput{Title: strPtr("x")})
	s.ErrorIs(err, services.ErrUnauthenticated)
}

func (s *TaskServiceSuite) TestForeignTaskIsNotFound() {
	task := s.create(s.u2, "private")
	p := s.u1.Principal()

	_, err := s.service.Get(s.ctx, p, task.ID)
	s.ErrorIs(err, services.ErrTaskNotFound)

	_, err = s.service.Update(s.ctx, p, task.ID, services.TaskInput{Completed: boolPtr(true)})
	s.ErrorIs(err, services.ErrTaskNotFound)

	err = s.service.Delete(s.ctx, p, task.ID)
	s.ErrorIs(err, services.ErrTaskNotFound)

	got, err := s.service.Get(s.ctx, s.u2.Principal(), task.ID)
	s.Require().NoError(err)
	s.False(got.Completed)
}

func (s *TaskServiceSuite) TestAdminCanManageAnyTask() {
	task := s.create(s.u1, "A")

	updated, err := s.service.Update(s.ctx, s.a1.Principal(), task.ID, services.TaskInput{Completed: boolPtr(true)})
	s.Require().NoError(err)
	s.True(updated.Completed)
	s.Equal(s.u1.ID, updated.UserID, "owner must not change")

	s.NoError(s.service.Delete(s.ctx, s.a1.Principal(), task.ID))
	_, err = s.service.Get(s.ctx, s.u1.Principal(), task.ID)
	s.ErrorIs(err, services.ErrTaskNotFound)
}

func (s *TaskServiceSuite) TestUpdate_PartialAndNullDescription() {
	task, err := s.service.Create(s.ctx, s.u1.Principal(), services.TaskInput{
		Title:       strPtr("A"),
		Description: strPtr("details"),
	})
	s.Require().NoError(err)
	s.Require().NotNil(task.Description)

	updated, err := s.service.Update(s.ctx, s.u1.Principal(), task.ID, services.TaskInput{Completed: boolPtr(true)})
	s.Require().NoError(err)
	s.Equal("A", updated.Title)
	s.Equal("details", *updated.Description)

	updated, err = s.service.Update(s.ctx, s.u1.Principal(), task.ID, services.TaskInput{DescriptionSet: true})
	s.Require().NoError(err)
	s.Nil(updated.Description)

	_, err = s.service.Update(s.ctx, s.u1.Principal(), task.ID, services.TaskInput{Title: strPtr("")})
	var verr *services.ValidationError
	s.ErrorAs(err, &verr)
}

func (s *TaskServiceSuite) TestList_CompletedFilter() {
	done := s.create(s.u1, "done")
	s.create(s.u1, "todo")
	_, err := s.service.Update(s.ctx, s.u1.Principal(), done.ID, services.TaskInput{Completed: boolPtr(true)})
	s.Require().NoError(err)

	page, err := s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{Completed: boolPtr(true)})
	s.Require().NoError(err)
	s.Equal([]string{"done"}, s.titles(page))
	for _, t := range page.Items {
		s.True(t.Completed)
	}
}

func (s *TaskServiceSuite) TestList_UserFilterAppliedAfterVisibility() {
	s.create(s.u2, "theirs")
	u2 := s.u2.ID

	page, err := s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{UserID: &u2})
	s.Require().NoError(err)
	s.Zero(page.Count)
	s.Empty(page.Items)

	page, err = s.service.List(s.ctx, s.a1.Principal(), services.TaskListQuery{UserID: &u2})
	s.Require().NoError(err)
	s.Equal([]string{"theirs"}, s.titles(page))
}

func (s *TaskServiceSuite) TestList_UnknownUserFilter() {
	missing := uuid.Must(uuid.NewV4())

	_, err := s.service.List(s.ctx, s.a1.Principal(), services.TaskListQuery{UserID: &missing})
	var verr *services.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{services.MsgInvalidChoice}, verr.Fields["user"])
}

func (s *TaskServiceSuite) TestList_Pagination() {
	for i := 0; i < 6; i++ {
		s.create(s.u1, "t")
	}

	page, err := s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{})
	s.Require().NoError(err)
	s.Len(page.Items, 5)
	s.Equal(int64(6), page.Count)
	s.True(page.HasNext())
	s.False(page.HasPrevious())

	page, err = s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{Page: 2})
	s.Require().NoError(err)
	s.Len(page.Items, 1)
	s.False(page.HasNext())
	s.True(page.HasPrevious())

	_, err = s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{Page: 3})
	s.ErrorIs(err, services.ErrInvalidPage)

	_, err = s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{Page: -1})
	s.ErrorIs(err, services.ErrInvalidPage)
}

func (s *TaskServiceSuite) TestList_EmptyFirstPage() {
	page, err := s.service.List(s.ctx, s.u1.Principal(), services.TaskListQuery{Page: 1})
	s.Require().NoError(err)
	s.Zero(page.Count)
	s.Empty(page.Items)
	s.False(page.HasNext())
}

// deleteBeforeUpdate removes the task right before the write, as a
// concurrent DELETE landing between Update's read and write would.
type deleteBeforeUpdate struct {
	*repositories.GormTaskRepository
}

func (r deleteBeforeUpdate) Update(ctx context.Context, scope repositories.TaskScope, task *models.Task) error {
	if _, err := r.GormTaskRepository.Delete(ctx, repositories.AllTasks(), task.ID); err != nil {
		return err
	}
	return r.GormTaskRepository.Update(ctx, scope, task)
}

func (s *TaskServiceSuite) TestUpdate_ConcurrentDeleteWins() {
	task := s.create(s.u1, "A")
	racing := services.NewTaskService(
		deleteBeforeUpdate{repositories.NewTaskRepository(s.db)},
		repositories.NewUserRepository(s.db),
		5,
	)

	_, err := racing.Update(s.ctx, s.u1.Principal(), task.ID, services.TaskInput{Completed: boolPtr(true)})
	s.ErrorIs(err, services.ErrTaskNotFound)

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	s.Zero(count)
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceSuite))
}
