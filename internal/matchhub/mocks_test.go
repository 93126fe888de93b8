package matchhub_test

import (
	"context"
	"fmt"
	"time"

	"linguamatch/backend/internal/matchhub"
	"linguamatch/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// fakeStorage is a functional in-memory implementation of storage.Storage,
// so tests exercise real queue semantics instead of expectation scripts.
type fakeStorage struct {
	queue     []string
	criteria  map[string]models.Criteria
	searching map[string]bool
	users     map[string]*models.User
	rooms     []*models.ChatRoom

	saveRoomErr error

	// When set, the next GetCriteria for this user fails once.
	getCriteriaErrUser string
	getCriteriaErr     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		criteria:  make(map[string]models.Criteria),
		searching: make(map[string]bool),
		users:     make(map[string]*models.User),
	}
}

func (f *fakeStorage) SaveUserIfNotExists(telegramID int64) (*models.User, error) {
	for _, u := range f.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	u := &models.User{ID: fmt.Sprintf("user-%d", telegramID), TelegramID: telegramID}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStorage) GetUserByID(userID string) (*models.User, error) {
	return f.users[userID], nil
}

func (f *fakeStorage) UserExists(userID string) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeStorage) EnqueueSearcher(userID string, criteria models.Criteria) error {
	f.removeFromQueue(userID)
	f.queue = append(f.queue, userID)
	f.criteria[userID] = criteria.Clone()
	return nil
}

func (f *fakeStorage) DequeueCandidatePair() (string, string, error) {
	if len(f.queue) < 2 {
		return "", "", nil
	}
	u1, u2 := f.queue[0], f.queue[1]
	f.queue = f.queue[2:]
	return u1, u2, nil
}

func (f *fakeStorage) RequeueSearcher(userID string) error {
	f.removeFromQueue(userID)
	f.queue = append(f.queue, userID)
	return nil
}

func (f *fakeStorage) RemoveSearcher(userID string) error {
	f.removeFromQueue(userID)
	delete(f.criteria, userID)
	return nil
}

func (f *fakeStorage) QueueSize() (int64, error) {
	return int64(len(f.queue)), nil
}

func (f *fakeStorage) GetCriteria(userID string) (models.Criteria, error) {
	if f.getCriteriaErr != nil && userID == f.getCriteriaErrUser {
		err := f.getCriteriaErr
		f.getCriteriaErr = nil
		return nil, err
	}
	if c, ok := f.criteria[userID]; ok {
		return c.Clone(), nil
	}
	return models.Criteria{}, nil
}

func (f *fakeStorage) SetCriteria(userID string, criteria models.Criteria) error {
	f.criteria[userID] = criteria.Clone()
	return nil
}

func (f *fakeStorage) SetSearching(userID string) error {
	f.searching[userID] = true
	return nil
}

func (f *fakeStorage) ClearSearching(userID string) error {
	delete(f.searching, userID)
	return nil
}

func (f *fakeStorage) IsSearching(userID string) (bool, error) {
	return f.searching[userID], nil
}

func (f *fakeStorage) SaveRoom(room *models.ChatRoom, ttl time.Duration) error {
	if f.saveRoomErr != nil {
		return f.saveRoomErr
	}
	f.rooms = append(f.rooms, room)
	return nil
}

func (f *fakeStorage) CloseRoom(roomID string) error {
	for _, r := range f.rooms {
		if r.RoomID == roomID {
			r.IsActive = false
		}
	}
	return nil
}

func (f *fakeStorage) GetActiveRoomIDForUser(userID string) (string, error) {
	for _, r := range f.rooms {
		if r.IsActive && (r.User1ID == userID || r.User2ID == userID) {
			return r.RoomID, nil
		}
	}
	return "", nil
}

func (f *fakeStorage) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	for _, r := range f.rooms {
		if r.RoomID == roomID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) removeFromQueue(userID string) {
	kept := f.queue[:0]
	for _, id := range f.queue {
		if id != userID {
			kept = append(kept, id)
		}
	}
	f.queue = kept
}

// MockNotifier records outcome signals via testify/mock.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyMatch(room *models.ChatRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockNotifier) NotifyExpired(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

// fakeStream collects republished requests and hands out scripted
// deliveries, standing in for the Redis stream.
type fakeStream struct {
	published  []*models.MatchRequest
	pending    []matchhub.Delivery
	acked      []string
	publishErr error
	nextID     int
}

func (f *fakeStream) Publish(req *models.MatchRequest) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	copied := *req
	copied.Criteria = req.Criteria.Clone()
	f.published = append(f.published, &copied)
	f.nextID++
	f.pending = append(f.pending, matchhub.Delivery{
		ID:      fmt.Sprintf("%d-0", f.nextID),
		Request: copied,
	})
	return nil
}

func (f *fakeStream) Fetch(ctx context.Context) ([]matchhub.Delivery, error) {
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeStream) Ack(id string) error {
	f.acked = append(f.acked, id)
	return nil
}
