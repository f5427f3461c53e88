package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"anoa.com/devconnector/internal/modules/user/dto"
	"anoa.com/devconnector/internal/modules/user/repository"
	"anoa.com/devconnector/internal/testutil"
	"anoa.com/devconnector/pkg/apperror"
	"anoa.com/devconnector/pkg/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (UserService, *token.Service) {
	db := testutil.NewDB(t)
	tokens := token.NewService("test-secret", time.Hour)
	return NewUserService(repository.NewUserRepository(db), tokens, bcrypt.MinCost), tokens
}

func requireFieldError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, msg, appErr.Errors[0].Msg)
}

func TestRegister(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, dto.RegisterInput{Name: "Ann", Email: " Ann@X.com ", Password: "secret1"})
	require.NoError(t, err)

	userID, err := tokens.Verify(res.Token)
	require.NoError(t, err)

	user, err := svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Contains(t, user.Avatar, "gravatar.com/avatar/")
	assert.NotEqual(t, "secret1", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, dto.RegisterInput{Name: "Ann2", Email: "ann@x.com", Password: "secret2"})
		requireFieldError(t, err, http.StatusBadRequest, "User already exists")
	})
}

func TestAuthenticate(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, dto.RegisterInput{Name: "Bob", Email: "bob@x.com", Password: "hunter22"})
	require.NoError(t, err)
	regID, err := tokens.Verify(reg.Token)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		res, err := svc.Authenticate(ctx, dto.LoginInput{Email: "BOB@x.com", Password: "hunter22"})
		require.NoError(t, err)

		id, err := tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, regID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, dto.LoginInput{Email: "bob@x.com", Password: "nope"})
		requireFieldError(t, err, http.StatusBadRequest, "Invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, dto.LoginInput{Email: "who@x.com", Password: "hunter22"})
		requireFieldError(t, err, http.StatusBadRequest, "Invalid credentials")
	})
}

func TestGetCurrent_MissingUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetCurrent(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, apperror.MapErrorToStatus(err))
}

func TestRegister_MissingSecret(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(repository.NewUserRepository(db), token.NewService("", time.Hour), bcrypt.MinCost)

	_, err := svc.Register(context.Background(), dto.RegisterInput{Name: "Cy", Email: "cy@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, token.ErrMissingSecret)
	assert.Equal(t, http.StatusInternalServerError, apperror.MapErrorToStatus(err))
}

func TestRegister_PasswordOverBcryptLimit(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), dto.RegisterInput{Name: "Ann", Email: "ann@x.com", Password: strings.Repeat("é", 40)})
	requireFieldError(t, err, http.StatusBadRequest, "Please enter a password with 72 or fewer bytes")
}
