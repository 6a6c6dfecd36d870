package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret-key-32-bytes-long!!!", time.Hour)

	token, err := m.Generate("bill-1", "abc123")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "bill-1", claims.BillID)
	assert.Equal(t, "abc123", claims.Slug)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret-one", time.Hour)
	other := NewManager("secret-two", time.Hour)

	token, err := m.Generate("bill-1", "abc123")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidLink, "wrong key")

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidLink, "garbage")

	_, err = m.Validate(token + "x")
	assert.ErrorIs(t, err, ErrInvalidLink, "tampered")
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager("secret", time.Minute)
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	token, err := m.Generate("bill-1", "abc123")
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(30 * time.Second) }
	_, err = m.Validate(token)
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestManager_NoExpiry(t *testing.T) {
	m := NewManager("secret", 0)
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	token, err := m.Generate("bill-1", "abc123")
	require.NoError(t, err)

	m.now = func() time.Time { return start.AddDate(5, 0, 0) }
	_, err = m.Validate(token)
	assert.NoError(t, err)
}
