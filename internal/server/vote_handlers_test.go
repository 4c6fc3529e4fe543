package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"foros/internal/models"
	"foros/internal/repository"
	"foros/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVoteRepository is a mock of the VoteRepository interface
type MockVoteRepository struct {
	mock.Mock
}

func (m *MockVoteRepository) GetTally(ctx context.Context, hiloID uint) (*repository.HiloTally, error) {
	args := m.Called(ctx, hiloID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.HiloTally), args.Error(1)
}

func (m *MockVoteRepository) GetVote(ctx context.Context, userID, hiloID uint) (*models.Vote, error) {
	args := m.Called(ctx, userID, hiloID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vote), args.Error(1)
}

func (m *MockVoteRepository) GetUserVotes(ctx context.Context, userID uint, hiloIDs []uint) (map[uint]int, error) {
	args := m.Called(ctx, userID, hiloIDs)
	return args.Get(0).(map[uint]int), args.Error(1)
}

func (m *MockVoteRepository) ApplyVote(ctx context.Context, mut repository.VoteMutation) error {
	args := m.Called(ctx, mut)
	return args.Error(0)
}

func (m *MockVoteRepository) LedgerSum(ctx context.Context, hiloID uint) (int, error) {
	args := m.Called(ctx, hiloID)
	return args.Int(0), args.Error(1)
}

func newVoteTestApp(repo repository.VoteRepository, userID uint) *fiber.App {
	app := fiber.New()
	s := &Server{
		voteService: service.NewVoteService(repo, nil, nil, nil,
			service.VoteRetryPolicy{MaxAttempts: 3, BaseDelay: 0}),
	}
	if userID != 0 {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("userID", userID)
			return c.Next()
		})
	}
	app.Post("/Hilos/:id/vote", s.VoteHilo)
	app.Get("/me/votes", s.GetMyVotes)
	return app
}

func postVote(t *testing.T, app *fiber.App, path, body string) (int, models.ErrorResponse, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var errBody models.ErrorResponse
	_ = json.Unmarshal(raw, &errBody)
	return resp.StatusCode, errBody, raw
}

func TestVoteHilo_CreatesVote(t *testing.T) {
	repo := new(MockVoteRepository)
	repo.On("GetTally", mock.Anything, uint(7)).
		Return(&repository.HiloTally{HiloID: 7, AuthorID: 2, VoteCount: 4, Version: 3}, nil)
	repo.On("GetVote", mock.Anything, uint(1), uint(7)).Return(nil, nil)
	repo.On("ApplyVote", mock.Anything, mock.MatchedBy(func(m repository.VoteMutation) bool {
		return m.Action == models.VoteActionCreate && m.NewCount == 5 && m.ReadVersion == 3 && m.NewValue == 1
	})).Return(nil)

	status, _, raw := postVote(t, newVoteTestApp(repo, 1), "/Hilos/7/vote", `{"direction":"up"}`)

	assert.Equal(t, fiber.StatusOK, status)
	var result models.VoteResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 5, result.NewVoteCount)
	repo.AssertExpectations(t)
}

func TestVoteHilo_TogglesOff(t *testing.T) {
	repo := new(MockVoteRepository)
	repo.On("GetTally", mock.Anything, uint(7)).
		Return(&repository.HiloTally{HiloID: 7, AuthorID: 2, VoteCount: -3, Version: 9}, nil)
	repo.On("GetVote", mock.Anything, uint(1), uint(7)).
		Return(&models.Vote{ID: 11, UserID: 1, HiloID: 7, Value: -1}, nil)
	repo.On("ApplyVote", mock.Anything, mock.MatchedBy(func(m repository.VoteMutation) bool {
		return m.Action == models.VoteActionToggleOff && m.NewCount == -2 && m.VoteID == 11 && m.ReadValue == -1
	})).Return(nil)

	status, _, raw := postVote(t, newVoteTestApp(repo, 1), "/Hilos/7/vote", `{"direction":"DOWN"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"newVoteCount":-2}`, string(raw))
}

func TestVoteHilo_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "sideways", path: "/Hilos/7/vote", body: `{"direction":"sideways"}`},
		{name: "missing direction", path: "/Hilos/7/vote", body: `{}`},
		{name: "non-numeric id", path: "/Hilos/abc/vote", body: `{"direction":"up"}`},
		{name: "zero id", path: "/Hilos/0/vote", body: `{"direction":"up"}`},
		{name: "malformed body", path: "/Hilos/7/vote", body: `{"direction":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockVoteRepository)
			status, body, _ := postVote(t, newVoteTestApp(repo, 1), tt.path, tt.body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, models.CodeValidation, body.Code)
			repo.AssertNotCalled(t, "GetTally", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "ApplyVote", mock.Anything, mock.Anything)
		})
	}
}

func TestVoteHilo_Anonymous(t *testing.T) {
	repo := new(MockVoteRepository)
	status, body, _ := postVote(t, newVoteTestApp(repo, 0), "/Hilos/7/vote", `{"direction":"up"}`)

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, body.Code)
	repo.AssertNotCalled(t, "GetTally", mock.Anything, mock.Anything)
}

func TestVoteHilo_UnknownHilo(t *testing.T) {
	repo := new(MockVoteRepository)
	repo.On("GetTally", mock.Anything, uint(404)).Return(nil, models.NewNotFoundError("Hilo", 404))

	status, body, _ := postVote(t, newVoteTestApp(repo, 1), "/Hilos/404/vote", `{"direction":"up"}`)

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, body.Code)
	repo.AssertNumberOfCalls(t, "GetTally", 1)
	repo.AssertNotCalled(t, "ApplyVote", mock.Anything, mock.Anything)
}

func TestVoteHilo_ConflictExhausted(t *testing.T) {
	repo := new(MockVoteRepository)
	repo.On("GetTally", mock.Anything, uint(7)).
		Return(&repository.HiloTally{HiloID: 7, AuthorID: 2, VoteCount: 0, Version: 1}, nil)
	repo.On("GetVote", mock.Anything, uint(1), uint(7)).Return(nil, nil)
	repo.On("ApplyVote", mock.Anything, mock.Anything).Return(repository.ErrConcurrencyConflict)

	status, body, _ := postVote(t, newVoteTestApp(repo, 1), "/Hilos/7/vote", `{"direction":"up"}`)

	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, body.Code)
	repo.AssertNumberOfCalls(t, "ApplyVote", 3)
}

func TestVoteHilo_StoreFailure(t *testing.T) {
	repo := new(MockVoteRepository)
	repo.On("GetTally", mock.Anything, uint(7)).Return(nil, errors.New("connection reset"))

	status, body, _ := postVote(t, newVoteTestApp(repo, 1), "/Hilos/7/vote", `{"direction":"up"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.Empty(t, body.Details)
	repo.AssertNumberOfCalls(t, "GetTally", 1)
}

func TestGetMyVotes(t *testing.T) {
	repo := new(MockVoteRepository)
	repo.On("GetUserVotes", mock.Anything, uint(1), []uint{3, 4, 5}).
		Return(map[uint]int{3: 1, 5: -1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/me/votes?hilos=3,4,%205", nil)
	resp, err := newVoteTestApp(repo, 1).Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"3":1,"5":-1}`, string(raw))
	repo.AssertExpectations(t)
}

func TestGetMyVotes_InvalidList(t *testing.T) {
	repo := new(MockVoteRepository)
	req := httptest.NewRequest(http.MethodGet, "/me/votes?hilos=3,x", nil)
	resp, err := newVoteTestApp(repo, 1).Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	repo.AssertNotCalled(t, "GetUserVotes", mock.Anything, mock.Anything, mock.Anything)
}
