package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 60)

	token, expiresAt, err := manager.GenerateToken("s-1", domain.SubjectTypeStudent, nil)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now().Add(59*time.Minute)))

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeStudent, claims.Subject)
	assert.Nil(t, claims.Role)
}

func TestTokenCarriesStaffRole(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 60)
	role := domain.StaffRoleAdmin

	token, _, err := manager.GenerateToken("st-1", domain.SubjectTypeStaff, &role)
	require.NoError(t, err)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeStaff, claims.Subject)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.StaffRoleAdmin, *claims.Role)
}

func TestParseTokenRejectsOtherSecrets(t *testing.T) {
	issuer := auth.NewTokenManager("issuer-secret", 60)
	verifier := auth.NewTokenManager("other-secret", 60)

	token, _, err := issuer.GenerateToken("s-1", domain.SubjectTypeStudent, nil)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 60)
	_, err := manager.ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenManagerDefaultsTTL(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", 0)
	assert.Equal(t, time.Hour, manager.TTL())
}
