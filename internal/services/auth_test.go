package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/repository/memory"
	"github.com/harentsoaR/telehealth-api/internal/utils"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return NewAuthService(memory.NewUserStore(), tokens, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(t)

	user, err := svc.Register(ctx, RegisterCommand{
		FullName:       "Dr. Rabe",
		Email:          "Rabe@Example.com",
		Password:       "s3cretpass",
		Role:           models.RoleDoctor,
		Specialization: "Cardiology",
	})
	require.NoError(t, err)
	assert.Equal(t, "rabe@example.com", user.Email)
	assert.NotEqual(t, "s3cretpass", user.Password)

	_, err = svc.Register(ctx, RegisterCommand{FullName: "Other", Email: "rabe@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	token, logged, err := svc.Login(ctx, "rabe@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = svc.Login(ctx, "rabe@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(t)
	var ve *ValidationError

	_, err := svc.Register(ctx, RegisterCommand{Email: "a@example.com", Password: "password1", Role: "admin"})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Register(ctx, RegisterCommand{Email: "b@example.com", Password: "password1", Role: models.RoleDoctor})
	assert.ErrorAs(t, err, &ve)

	user, err := svc.Register(ctx, RegisterCommand{FullName: "Patient", Email: "c@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, user.Role)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(t)
	var ve *ValidationError

	patient, err := svc.Register(ctx, RegisterCommand{FullName: "Patient", Email: "p@example.com", Password: "password1"})
	require.NoError(t, err)

	name := "Patient Renamed"
	updated, err := svc.UpdateProfile(ctx, patient.ID, models.ProfilePatch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)

	specialty := "Surgery"
	_, err = svc.UpdateProfile(ctx, patient.ID, models.ProfilePatch{Specialization: &specialty})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.UpdateProfile(ctx, patient.ID, models.ProfilePatch{})
	assert.ErrorAs(t, err, &ve)
}
