package storage

import (
	"context"
	"errors"
	"time"

	"linguamatch/backend/internal/models"
	"linguamatch/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrRoomNotFound is returned when a room id resolves to nothing.
var ErrRoomNotFound = errors.New("chat room not found")

// Storage is the persistence boundary of the matcher: the Redis-backed wait
// queue and criteria store, plus durable rooms and user lookups in Postgres.
type Storage interface {
	// Users (read-mostly; profile data is owned by the bot layer)
	SaveUserIfNotExists(telegramID int64) (*models.User, error)
	GetUserByID(userID string) (*models.User, error)
	UserExists(userID string) (bool, error)

	// Wait queue. Enqueue strictly deduplicates: a user holds at most one
	// queue slot, and re-enqueueing replaces their stored criteria.
	EnqueueSearcher(userID string, criteria models.Criteria) error
	// DequeueCandidatePair pops the two oldest waiting users. It returns
	// ("", "") with a nil error when fewer than two users are waiting.
	DequeueCandidatePair() (string, string, error)
	// RequeueSearcher puts a popped candidate back at the queue tail. The
	// stored criteria are left untouched; they survived the pop.
	RequeueSearcher(userID string) error
	RemoveSearcher(userID string) error
	QueueSize() (int64, error)

	// Criteria store
	GetCriteria(userID string) (models.Criteria, error)
	SetCriteria(userID string, criteria models.Criteria) error

	// Searching flags, used by the bot layer to render the user's state
	SetSearching(userID string) error
	ClearSearching(userID string) error
	IsSearching(userID string) (bool, error)

	// Rooms
	SaveRoom(room *models.ChatRoom, ttl time.Duration) error
	CloseRoom(roomID string) error
	GetActiveRoomIDForUser(userID string) (string, error)
	GetRoomByID(roomID string) (*models.ChatRoom, error)
}

const (
	waitQueueKey      = "match:waitq"
	criteriaKeyPrefix = "match:criteria:"
	searchingPrefix   = "match:searching:"
	activeRoomPrefix  = "room:active:"
)

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveUserIfNotExists returns the user for a Telegram chat id, creating a
// fresh anonymous profile on first contact.
func (s *Service) SaveUserIfNotExists(telegramID int64) (*models.User, error) {
	var user models.User
	defaults := models.User{TelegramID: telegramID}

	result := s.DB.Where("telegram_id = ?", telegramID).FirstOrCreate(&user, defaults)
	if result.Error != nil {
		logger.Error("Failed to save user on first contact", "telegram_id", telegramID, "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info("New user saved", "user_id", user.ID, "telegram_id", telegramID)
	}
	return &user, nil
}

func (s *Service) GetUserByID(userID string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists validates a user id before it is admitted to the queue.
func (s *Service) UserExists(userID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

// EnqueueSearcher appends the user to the queue tail and stores their
// criteria. Any prior occurrence of the same user is removed first, so the
// queue never holds duplicate slots.
func (s *Service) EnqueueSearcher(userID string, criteria models.Criteria) error {
	if err := s.Redis.LRem(s.Ctx, waitQueueKey, 0, userID).Err(); err != nil {
		return err
	}
	if err := s.Redis.RPush(s.Ctx, waitQueueKey, userID).Err(); err != nil {
		return err
	}
	return s.SetCriteria(userID, criteria)
}

// DequeueCandidatePair pops the two oldest entries. The length check and the
// pop are not atomic; the matcher is the queue's only consumer, so that is
// safe.
func (s *Service) DequeueCandidatePair() (string, string, error) {
	size, err := s.Redis.LLen(s.Ctx, waitQueueKey).Result()
	if err != nil {
		return "", "", err
	}
	if size < 2 {
		return "", "", nil
	}

	popped, err := s.Redis.LPopCount(s.Ctx, waitQueueKey, 2).Result()
	if err != nil {
		return "", "", err
	}
	if len(popped) < 2 {
		// Queue shrank between the length check and the pop; put back
		// whatever came out.
		for i := len(popped) - 1; i >= 0; i-- {
			s.Redis.LPush(s.Ctx, waitQueueKey, popped[i])
		}
		return "", "", nil
	}
	return popped[0], popped[1], nil
}

// RequeueSearcher re-appends a popped candidate without writing criteria, so
// a requeue can never clobber what the user asked for.
func (s *Service) RequeueSearcher(userID string) error {
	if err := s.Redis.LRem(s.Ctx, waitQueueKey, 0, userID).Err(); err != nil {
		return err
	}
	return s.Redis.RPush(s.Ctx, waitQueueKey, userID).Err()
}

// RemoveSearcher removes a user from the queue and deletes their criteria.
// Calling it for an absent user is a no-op.
func (s *Service) RemoveSearcher(userID string) error {
	if err := s.Redis.LRem(s.Ctx, waitQueueKey, 0, userID).Err(); err != nil {
		return err
	}
	return s.Redis.Del(s.Ctx, criteriaKeyPrefix+userID).Err()
}

func (s *Service) QueueSize() (int64, error) {
	return s.Redis.LLen(s.Ctx, waitQueueKey).Result()
}

// GetCriteria loads a user's stored criteria. A user with nothing stored
// gets an empty set, which matches everything.
func (s *Service) GetCriteria(userID string) (models.Criteria, error) {
	values, err := s.Redis.HGetAll(s.Ctx, criteriaKeyPrefix+userID).Result()
	if err != nil {
		return nil, err
	}
	return models.Criteria(values), nil
}

func (s *Service) SetCriteria(userID string, criteria models.Criteria) error {
	key := criteriaKeyPrefix + userID
	if err := s.Redis.Del(s.Ctx, key).Err(); err != nil {
		return err
	}
	if len(criteria) == 0 {
		return nil
	}
	return s.Redis.HSet(s.Ctx, key, map[string]string(criteria)).Err()
}

func (s *Service) SetSearching(userID string) error {
	return s.Redis.Set(s.Ctx, searchingPrefix+userID, "1", 0).Err()
}

func (s *Service) ClearSearching(userID string) error {
	return s.Redis.Del(s.Ctx, searchingPrefix+userID).Err()
}

func (s *Service) IsSearching(userID string) (bool, error) {
	_, err := s.Redis.Get(s.Ctx, searchingPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveRoom persists the room durably and marks it active in Redis with the
// configured TTL, so an abandoned room expires on its own.
func (s *Service) SaveRoom(room *models.ChatRoom, ttl time.Duration) error {
	if err := s.DB.Save(room).Error; err != nil {
		return err
	}
	return s.Redis.Set(s.Ctx, activeRoomPrefix+room.RoomID, room.User1ID+":"+room.User2ID, ttl).Err()
}

// CloseRoom marks the room inactive.
func (s *Service) CloseRoom(roomID string) error {
	if err := s.Redis.Del(s.Ctx, activeRoomPrefix+roomID).Err(); err != nil {
		return err
	}
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Update("is_active", false).Error
}

// GetActiveRoomIDForUser finds the active room the user participates in, if
// any.
func (s *Service) GetActiveRoomIDForUser(userID string) (string, error) {
	var room models.ChatRoom
	err := s.DB.Where("is_active = ?", true).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		logger.Error("Failed to find active room", "user_id", userID, "error", err)
		return "", err
	}
	return room.RoomID, nil
}

func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}
