package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type mockUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) (int64, error) {
	if m.users == nil {
		m.users = make(map[int64]*models.User)
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == login {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id int64, name, email *string, program *models.Program, status *models.AccountStatus) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	if name != nil {
		u.Name = *name
	}
	if email != nil {
		u.Email = *email
	}
	if program != nil {
		u.Program = program
	}
	if status != nil {
		u.AccountStatus = *status
	}
	return true, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}

func (m *mockUserRepo) ListInactive(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.AccountStatus == models.AccountInactive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) ApproveAllInactive(ctx context.Context) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.AccountStatus == models.AccountInactive {
			u.AccountStatus = models.AccountActive
			count++
		}
	}
	return count, nil
}

func (m *mockUserRepo) DeleteAllInactive(ctx context.Context) (int, error) {
	count := 0
	for id, u := range m.users {
		if u.AccountStatus == models.AccountInactive {
			delete(m.users, id)
			count++
		}
	}
	return count, nil
}

func (m *mockUserRepo) GetLastLogin(ctx context.Context, userID int64) (*time.Time, error) {
	return nil, nil
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, userID int64, ts time.Time) error {
	return nil
}

func newUserFixture() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{}
	return NewUserService(repo, nil, zap.NewNop()), repo
}

func TestCreateStudentStartsInactive(t *testing.T) {
	svc, _ := newUserFixture()
	program := models.ProgramBIO

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Dana", Email: "dana@example.edu", Password: "long enough",
		Role: models.RoleStudent, Program: &program,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccountInactive, user.AccountStatus)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long enough")))
}

func TestCreateStaffStartsActive(t *testing.T) {
	svc, _ := newUserFixture()

	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleInstructor} {
		user, err := svc.Create(context.Background(), CreateUserRequest{
			Name: "Staff", Email: string(role) + "@example.edu", Password: "long enough", Role: role,
		})
		require.NoError(t, err)
		assert.Equal(t, models.AccountActive, user.AccountStatus)
	}
}

func TestCreateStudentRequiresProgram(t *testing.T) {
	svc, repo := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Dana", Email: "dana@example.edu", Password: "long enough", Role: models.RoleStudent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.users)
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Dana", Email: "dana@example.edu", Password: "short", Role: models.RoleAdmin,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestApproveAllInactive(t *testing.T) {
	svc, repo := newUserFixture()
	program := models.ProgramCOMM
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateUserRequest{
			Name: "Student", Email: string(rune('a'+i)) + "@example.edu", Password: "long enough",
			Role: models.RoleStudent, Program: &program,
		})
		require.NoError(t, err)
	}

	count, err := svc.ApproveAllInactive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	for _, u := range repo.users {
		assert.Equal(t, models.AccountActive, u.AccountStatus)
	}
}

func TestUpdateUnknownUser(t *testing.T) {
	svc, _ := newUserFixture()
	name := "Renamed"

	err := svc.Update(context.Background(), 404, UpdateUserRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUpdateNothingToDo(t *testing.T) {
	svc, _ := newUserFixture()

	err := svc.Update(context.Background(), 1, UpdateUserRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
