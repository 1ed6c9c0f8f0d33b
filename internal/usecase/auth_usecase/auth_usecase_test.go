package auth_test

import (
	"context"
	"testing"
	"time"

	"smartshop/internal/domain/model"
	"smartshop/internal/repository"
	auth "smartshop/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// =====================
// 部品のフェイク
// =====================

type fixedIDGen struct{ id string }

func (g *fixedIDGen) NewID() string { return g.id }

type fixedClock struct{ at time.Time }

func (c *fixedClock) Now() time.Time { return c.at }

type fakeIssuer struct{}

func (i *fakeIssuer) Issue(userID string, email string, now time.Time) (string, time.Time, error) {
	return "token-" + userID, now.Add(15 * time.Minute), nil
}

// =====================
// RegisterUserUsecase
// =====================

func TestRegisterUser_InvalidEmail(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewRegisterUserUsecase(repo, auth.NewBcryptPasswordHasher(4), &fixedIDGen{id: "u1"}, &fixedClock{at: time.Now()})

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "not-an-email",
		Password: "password123",
	})

	assert.ErrorIs(t, err, auth.ErrInvalidEmailFormat)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterUser_PasswordTooShort(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewRegisterUserUsecase(repo, auth.NewBcryptPasswordHasher(4), &fixedIDGen{id: "u1"}, &fixedClock{at: time.Now()})

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "a@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewRegisterUserUsecase(repo, auth.NewBcryptPasswordHasher(4), &fixedIDGen{id: "u1"}, &fixedClock{at: time.Now()})

	repo.On("FindByEmail", mock.Anything, "a@example.com").
		Return(&model.User{ID: "existing"}, nil)

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "a@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterUser_Success(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := new(MockUserRepository)
	uc := auth.NewRegisterUserUsecase(repo, auth.NewBcryptPasswordHasher(4), &fixedIDGen{id: "u1"}, &fixedClock{at: now})

	repo.On("FindByEmail", mock.Anything, "a@example.com").
		Return(nil, repository.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		// ハッシュが保存され、平文は残らない
		return u.ID == "u1" &&
			u.Email == "a@example.com" &&
			u.IsActive &&
			u.PasswordHash != "" &&
			u.PasswordHash != "password123"
	})).Return(nil)

	out, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "a@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "u1", out.User.ID)
	// レスポンスにはハッシュを含めない
	assert.Equal(t, "", out.User.PasswordHash)
	repo.AssertExpectations(t)
}

// =====================
// LoginUsecase
// =====================

func hashFor(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), 4)
	assert.NoError(t, err)
	return string(b)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewLoginUsecase(repo, auth.NewBcryptPasswordVerifier(), &fakeIssuer{}, &fixedClock{at: time.Now()})

	repo.On("FindByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.ErrUserNotFound)

	_, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever123",
	})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewLoginUsecase(repo, auth.NewBcryptPasswordVerifier(), &fakeIssuer{}, &fixedClock{at: time.Now()})

	repo.On("FindByEmail", mock.Anything, "a@example.com").
		Return(&model.User{ID: "u1", Email: "a@example.com", IsActive: true, PasswordHash: hashFor(t, "correct-pass")}, nil)

	_, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "a@example.com",
		Password: "wrong-pass",
	})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := new(MockUserRepository)
	uc := auth.NewLoginUsecase(repo, auth.NewBcryptPasswordVerifier(), &fakeIssuer{}, &fixedClock{at: time.Now()})

	repo.On("FindByEmail", mock.Anything, "a@example.com").
		Return(&model.User{ID: "u1", IsActive: false, PasswordHash: hashFor(t, "correct-pass")}, nil)

	_, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "a@example.com",
		Password: "correct-pass",
	})

	assert.ErrorIs(t, err, auth.ErrUserInactive)
}

func TestLogin_Success(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := new(MockUserRepository)
	uc := auth.NewLoginUsecase(repo, auth.NewBcryptPasswordVerifier(), &fakeIssuer{}, &fixedClock{at: now})

	repo.On("FindByEmail", mock.Anything, "a@example.com").
		Return(&model.User{ID: "u1", Email: "a@example.com", IsActive: true, PasswordHash: hashFor(t, "correct-pass")}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.LastLoginAt != nil && u.LastLoginAt.Equal(now)
	})).Return(nil)

	out, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "a@example.com",
		Password: "correct-pass",
	})

	assert.NoError(t, err)
	assert.Equal(t, "token-u1", out.Token.AccessToken)
	assert.Equal(t, int(15*time.Minute/time.Second), out.Token.ExpiresIn)
	assert.Equal(t, "", out.User.PasswordHash)
	repo.AssertExpectations(t)
}
