package user

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/justeunpeu/storefront-backend/internal/config"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	cfg := &config.Config{
		App: config.AppConfig{Name: "Juste Un Peu"},
		JWT: config.JWTConfig{
			Secret:               "test-secret-key-that-is-long-enough",
			AccessTokenExpiry:    15 * time.Minute,
			RefreshTokenExpiry:   7 * 24 * time.Hour,
			RefreshTokenRotation: true,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewService(db, cfg, log)
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Email:           "camille@example.com",
		Password:        "Correct1Horse",
		ConfirmPassword: "Correct1Horse",
		FirstName:       "Camille",
		LastName:        "Dupont",
	}
}

func TestService_Register(t *testing.T) {
	svc := setupService(t)

	resp, err := svc.Register(registerRequest())
	require.NoError(t, err)

	assert.NotZero(t, resp.User.ID)
	assert.Equal(t, "camille@example.com", resp.User.Email)
	assert.Empty(t, resp.User.Password)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user:"+fmt.Sprint(resp.User.ID), resp.User.Identity())
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Register(registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(registerRequest())
	assert.ErrorContains(t, err, "already exists")
}

func TestService_RegisterPasswordMismatch(t *testing.T) {
	svc := setupService(t)

	req := registerRequest()
	req.ConfirmPassword = "Different1Pass"

	_, err := svc.Register(req)
	assert.ErrorContains(t, err, "passwords do not match")
}

func TestService_Login(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Register(registerRequest())
	require.NoError(t, err)

	resp, err := svc.Login(&LoginRequest{
		Email:    "camille@example.com",
		Password: "Correct1Horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotNil(t, resp.User.LastLoginAt)
}

func TestService_LoginWrongPassword(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Register(registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{
		Email:    "camille@example.com",
		Password: "Wrong1Password",
	})
	assert.ErrorContains(t, err, "invalid email or password")
}

func TestService_LoginUnknownEmail(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Login(&LoginRequest{
		Email:    "nobody@example.com",
		Password: "Correct1Horse",
	})
	assert.ErrorContains(t, err, "invalid email or password")
}

func TestService_RefreshTokenRotation(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(registered.RefreshToken)
	require.NoError(t, err)

	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)
}

func TestService_RefreshTokenRejectsAccessToken(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	_, err = svc.RefreshToken(registered.AccessToken)
	assert.Error(t, err)
}

func TestService_UpdateProfileStripsProtectedFields(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(registered.User.ID, map[string]interface{}{
		"first_name": "Claire",
		"email":      "hacked@example.com",
		"is_active":  false,
	})
	require.NoError(t, err)

	assert.Equal(t, "Claire", updated.FirstName)
	assert.Equal(t, "camille@example.com", updated.Email)
	assert.True(t, updated.IsActive)
}

func TestService_ChangePassword(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	err = svc.ChangePassword(registered.User.ID, "Wrong1Pass", "Fresh1Password")
	assert.ErrorContains(t, err, "current password is incorrect")

	err = svc.ChangePassword(registered.User.ID, "Correct1Horse", "Fresh1Password")
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{
		Email:    "camille@example.com",
		Password: "Fresh1Password",
	})
	assert.NoError(t, err)
}

func TestService_ResetPassword(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(registered.User.ID, "Fresh1Password"))

	_, err = svc.Login(&LoginRequest{
		Email:    "camille@example.com",
		Password: "Fresh1Password",
	})
	assert.NoError(t, err)
}

func TestService_InactiveFlagSurvivesCreate(t *testing.T) {
	svc := setupService(t)

	// A struct-based Create with IsActive false must store false; a column
	// default would overwrite the zero value and resurrect the account.
	dormant := User{Email: "dormant@example.com", Password: "irrelevant", IsActive: false}
	require.NoError(t, svc.db.Create(&dormant).Error)

	var stored User
	require.NoError(t, svc.db.First(&stored, dormant.ID).Error)
	assert.False(t, stored.IsActive)

	_, err := svc.GetProfile(dormant.ID)
	assert.ErrorContains(t, err, "user not found")
}

func TestService_VerifyEmail(t *testing.T) {
	svc := setupService(t)

	registered, err := svc.Register(registerRequest())
	require.NoError(t, err)
	assert.False(t, registered.User.EmailVerified)

	require.NoError(t, svc.VerifyEmail(registered.User.ID))

	profile, err := svc.GetProfile(registered.User.ID)
	require.NoError(t, err)
	assert.True(t, profile.EmailVerified)
	assert.NotNil(t, profile.EmailVerifiedAt)
}
