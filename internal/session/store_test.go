package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLookupDelete(t *testing.T) {
	s := New(0)
	alice := User{ID: 1, Username: "alice", Role: "user"}

	token, err := s.Create(alice)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, ok := s.Lookup(token)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	s.Delete(token)
	_, ok = s.Lookup(token)
	assert.False(t, ok)

	// Deleting again must not panic.
	s.Delete(token)
}

func TestLookupUnknownToken(t *testing.T) {
	s := New(0)
	_, ok := s.Lookup("deadbeef")
	assert.False(t, ok)
	_, ok = s.Lookup("")
	assert.False(t, ok)
}

func TestTokensAreUnique(t *testing.T) {
	s := New(0)
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		token, err := s.Create(User{ID: uint64(i)})
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
	assert.Equal(t, 200, s.Len())
}

func TestTTLExpiry(t *testing.T) {
	s := New(10 * time.Millisecond)
	token, err := s.Create(User{ID: 1, Username: "alice", Role: "user"})
	require.NoError(t, err)

	_, ok := s.Lookup(token)
	require.True(t, ok, "fresh token must resolve")

	time.Sleep(25 * time.Millisecond)
	_, ok = s.Lookup(token)
	assert.False(t, ok, "expired token must not resolve")
	assert.Equal(t, 0, s.Len(), "expired token must be dropped")
}

// Connections create, look up and delete sessions concurrently; the store
// must survive that without lost updates or torn reads (run with -race).
func TestConcurrentAccess(t *testing.T) {
	s := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				token, err := s.Create(User{ID: id, Username: "u", Role: "user"})
				if err != nil {
					t.Error(err)
					return
				}
				if u, ok := s.Lookup(token); !ok || u.ID != id {
					t.Errorf("lookup after create failed for user %d", id)
					return
				}
				s.Delete(token)
			}
		}(uint64(i))
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}
