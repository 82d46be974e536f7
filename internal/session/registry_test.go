package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
)

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil, nil)

	s := r.Create(catalog.FormStandard)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, catalog.FormStandard, s.Form)
	assert.NotNil(t, s.Capture)
	assert.False(t, s.Verified)
	assert.Nil(t, s.Interview)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestGetUnknownSession(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil, nil)

	_, err := r.Get("no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil, nil)
	s := r.Create(catalog.FormStandard)

	r.Remove(s.ID)
	assert.Equal(t, 0, r.Len())
	_, err := r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyAttachesInterview(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil, nil)
	s := r.Create(catalog.FormStandard)

	cctx := catalog.CaseContext{
		PrescriptionID: "rx-1001",
		PatientRef:     "pt-42",
		Form:           catalog.FormStandard,
	}
	ctrl := interview.New(catalog.Standard(), cctx, interview.DefaultConfig(), nil)

	s.Lock()
	s.Verify(cctx, ctrl)
	s.Unlock()

	assert.True(t, s.Verified)
	assert.Same(t, ctrl, s.Interview)
	assert.Equal(t, "rx-1001", s.Context.PrescriptionID)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	var expired []string
	cfg := DefaultConfig()
	cfg.TTL = time.Minute

	r := NewRegistry(cfg, nil, func(s *Session) {
		expired = append(expired, s.ID)
	})

	stale := r.Create(catalog.FormStandard)
	stale.Lock()
	stale.LastSeen = time.Now().Add(-2 * time.Minute)
	stale.Unlock()

	fresh := r.Create(catalog.FormStandard)

	r.sweep()

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{stale.ID}, expired)
	_, err := r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestGetRefreshesIdleTimer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = time.Minute

	r := NewRegistry(cfg, nil, nil)
	s := r.Create(catalog.FormStandard)
	s.Lock()
	s.LastSeen = time.Now().Add(-2 * time.Minute)
	s.Unlock()

	// Touching the session keeps it alive past the cutoff.
	_, err := r.Get(s.ID)
	require.NoError(t, err)

	r.sweep()
	assert.Equal(t, 1, r.Len())
}
