package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	t.Run("簽發後可解析", func(t *testing.T) {
		iss, err := NewIssuer("secret", "mock_backend", time.Hour)
		require.NoError(t, err)

		tok, err := iss.GenerateJWT(42)
		require.NoError(t, err)

		claims, err := iss.ParseJWT(tok)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "mock_backend", claims.Issuer)
	})

	t.Run("不同 secret 失敗", func(t *testing.T) {
		a, _ := NewIssuer("a", "x", 0)
		b, _ := NewIssuer("b", "x", 0)
		tok, err := a.GenerateJWT(1)
		require.NoError(t, err)

		_, err = b.ParseJWT(tok)
		assert.Error(t, err)
		assert.Equal(t, DefaultExpiration, a.Expiration())
	})

	t.Run("過期", func(t *testing.T) {
		iss, _ := NewIssuer("s", "x", time.Nanosecond)
		tok, err := iss.GenerateJWT(1)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)

		_, err = iss.ParseJWT(tok)
		assert.Error(t, err)
	})

	t.Run("空 secret", func(t *testing.T) {
		_, err := NewIssuer("", "x", 0)
		assert.Error(t, err)
	})
}
