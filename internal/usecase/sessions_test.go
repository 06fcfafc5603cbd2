package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ops-agent/internal/domain"
)

func TestSessionRegistry_ReusesAndExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewSessionRegistry(10 * time.Minute)
	r.now = func() time.Time { return now }

	s, release := r.Acquire("a")
	s.Context.LastTopic = domain.Topic{Kind: domain.TopicDelays}
	release()

	now = now.Add(9 * time.Minute)
	s, release = r.Acquire("a")
	require.Equal(t, domain.TopicDelays, s.Context.LastTopic.Kind)
	release()

	now = now.Add(11 * time.Minute)
	require.Equal(t, 1, r.Sweep())
	require.Zero(t, r.Len())

	s, release = r.Acquire("a")
	require.True(t, s.Context.LastTopic.IsZero())
	release()
}

func TestSessionRegistry_DefaultTTL(t *testing.T) {
	require.Equal(t, defaultSessionTTL, NewSessionRegistry(0).ttl)
}

func TestSessionRegistry_TrimsTranscript(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	s, release := r.Acquire("a")
	for i := 0; i < maxTranscriptTurns+10; i++ {
		s.Append(domain.RoleUser, fmt.Sprint(i))
	}
	release()

	require.Len(t, s.Transcript, maxTranscriptTurns)
	require.Equal(t, "10", s.Transcript[0].Text)
}

func TestSessionRegistry_SerializesSameSession(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, release := r.Acquire("shared")
			defer release()
			s.Append(domain.RoleUser, "hi")
		}()
	}
	wg.Wait()

	s, release := r.Acquire("shared")
	defer release()
	require.Len(t, s.Transcript, 50)
	require.Equal(t, 1, r.Len())
}
