package auth

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	orig := bcryptCost
	bcryptCost = bcrypt.MinCost
	defer func() { bcryptCost = orig }()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	require.NoError(t, CheckPassword(hash, "correct horse"))

	err = CheckPassword(hash, "battery staple")
	require.True(t, errors.Is(err, common.ErrorUnauthorized), "got %v", err)
}

func TestCheckPassword_BadHash(t *testing.T) {
	err := CheckPassword("not-a-bcrypt-hash", "x")
	require.Error(t, err)
	require.False(t, errors.Is(err, common.ErrorUnauthorized))
}
