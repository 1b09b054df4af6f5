package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventparticipation/internal/delivery/http/helpers"
	"eventparticipation/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID  = "5b1f1b0e-3c55-4b7a-9d2b-8c7f6d0b2a11"
	otherEventID = "0d8e7c3a-61f2-4f45-a1d8-2f4b9e6c7d30"
)

// fakeParticipationService implements domain.ParticipationService for handler tests.
type fakeParticipationService struct {
	joinResult  *domain.Participation
	joinErr     error
	leaveResult *domain.Participation
	leaveErr    error
	statuses    map[string]domain.ParticipationStatus
	statusesErr error

	lastUserID   string
	lastEventID  string
	lastEventIDs []string
}

func (f *fakeParticipationService) JoinEvent(_ context.Context, userID, eventID string) (*domain.Participation, error) {
	f.lastUserID, f.lastEventID = userID, eventID
	return f.joinResult, f.joinErr
}

func (f *fakeParticipationService) LeaveEvent(_ context.Context, userID, eventID string) (*domain.Participation, error) {
	f.lastUserID, f.lastEventID = userID, eventID
	return f.leaveResult, f.leaveErr
}

func (f *fakeParticipationService) GetParticipationsForEvents(_ context.Context, userID string, eventIDs []string) (map[string]domain.ParticipationStatus, error) {
	f.lastUserID, f.lastEventIDs = userID, eventIDs
	return f.statuses, f.statusesErr
}

func (f *fakeParticipationService) HandleEventCancelled(context.Context, string) (int, error) {
	return 0, nil
}

// fakeStatisticsService implements domain.StatisticsService for handler tests.
type fakeStatisticsService struct {
	authErr        error
	eventStats     *domain.EventStatistics
	eventErr       error
	organizerStats *domain.OrganizerStatistics
	organizerErr   error

	authCalled      bool
	lastCaller      domain.Identity
	lastEventID     string
	lastOrganizerID string
}

func (f *fakeStatisticsService) GetEventStatistics(_ context.Context, eventID string) (*domain.EventStatistics, error) {
	f.lastEventID = eventID
	return f.eventStats, f.eventErr
}

func (f *fakeStatisticsService) GetOrganizerStatistics(_ context.Context, organizerID string) (*domain.OrganizerStatistics, error) {
	f.lastOrganizerID = organizerID
	return f.organizerStats, f.organizerErr
}

func (f *fakeStatisticsService) AuthorizeEventAccess(_ context.Context, eventID string, caller domain.Identity) error {
	f.authCalled = true
	f.lastEventID, f.lastCaller = eventID, caller
	return f.authErr
}

// decodeEnvelope decodes the {data, error} envelope, decoding data into out when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, out any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	if out != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Error
}
