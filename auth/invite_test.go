package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := CreateInviteToken("grp_abc123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	groupID, err := VerifyInviteToken(token)
	require.NoError(t, err)
	assert.Equal(t, "grp_abc123", groupID)
}

func TestInviteTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	token, err := CreateInviteToken("grp_abc123")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET_KEY", "other-secret")
	_, err = VerifyInviteToken(token)
	assert.Error(t, err)
}

func TestInviteTokenGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	_, err := VerifyInviteToken("not.a.token")
	assert.Error(t, err)
}
