package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/circuitbreaker"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	v, err := New(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	require.NoError(t, err)
	return v
}

func TestVerifyAcceptedCode(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/verify", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sess-1", req["session_id"])
		assert.Equal(t, "7309", req["code"])

		json.NewEncoder(w).Encode(Result{
			PrescriptionID: "rx-1001",
			PatientRef:     "pt-42",
			Medicine:       "Amoxicillin 500mg",
			Condition:      "sinus infection",
		})
	})

	result, err := v.Verify(context.Background(), "sess-1", "7309")
	require.NoError(t, err)
	assert.Equal(t, "rx-1001", result.PrescriptionID)
	assert.Equal(t, "pt-42", result.PatientRef)
	assert.Equal(t, "Amoxicillin 500mg", result.Medicine)
}

func TestVerifyRejectionMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrInvalidCode},
		{http.StatusGone, ErrExpired},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tc := range cases {
		v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := v.Verify(context.Background(), "sess-1", "0000")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestRejectionsLeaveBreakerClosed(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	// A patient fat-fingering the code is not a service outage.
	for i := 0; i < 20; i++ {
		_, err := v.Verify(context.Background(), "sess-1", "0000")
		require.ErrorIs(t, err, ErrInvalidCode)
	}
	assert.Equal(t, circuitbreaker.StateClosed, v.BreakerState())
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 6; i++ {
		_, err := v.Verify(context.Background(), "sess-1", "7309")
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, v.BreakerState())

	_, err := v.Verify(context.Background(), "sess-1", "7309")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyTransportError(t *testing.T) {
	v, err := New(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "sess-1", "7309")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCode))
}
