package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	t.Run("should accept a token for the key it was issued for", func(t *testing.T) {
		s := New("secret", time.Hour)

		token, err := s.Sign("service_job/1/a.png")
		require.NoError(t, err)
		assert.NoError(t, s.Verify(token, "service_job/1/a.png"))
	})

	t.Run("should reject a token presented for another key", func(t *testing.T) {
		s := New("secret", time.Hour)

		token, err := s.Sign("service_job/1/a.png")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Verify(token, "service_job/2/b.png"), ErrInvalidToken)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		token, err := New("other", time.Hour).Sign("k")
		require.NoError(t, err)
		assert.ErrorIs(t, New("secret", time.Hour).Verify(token, "k"), ErrInvalidToken)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		s := New("secret", time.Minute)
		issued := time.Now()
		s.now = func() time.Time { return issued }

		token, err := s.Sign("k")
		require.NoError(t, err)

		s.now = func() time.Time { return issued.Add(2 * time.Minute) }
		assert.ErrorIs(t, s.Verify(token, "k"), ErrInvalidToken)
	})
}
