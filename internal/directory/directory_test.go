package directory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medchat/backend/internal/apperr"
	"medchat/backend/internal/directory"
	"medchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memoryCache is an in-process Cache used to observe directory caching.
type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", directory.ErrMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

// brokenCache fails every call.
type brokenCache struct {
	mock.Mock
}

func (c *brokenCache) Get(ctx context.Context, key string) (string, error) {
	args := c.Called(key)
	return args.String(0), args.Error(1)
}

func (c *brokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := c.Called(key, value, ttl)
	return args.Error(0)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Patient{}, &models.Clinician{}))
	return db
}

func seed(t *testing.T, s *directory.Service) (*models.Patient, *models.Clinician) {
	t.Helper()
	ctx := context.Background()
	p := &models.Patient{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	c := &models.Clinician{FirstName: "Gregory", LastName: "House", Email: "house@example.com", Specialty: "Diagnostics", LicenseNumber: "MD-1"}
	require.NoError(t, s.SavePatient(ctx, p))
	require.NoError(t, s.SaveClinician(ctx, c))
	return p, c
}

func TestResolveDisplayName(t *testing.T) {
	s := directory.NewService(newTestDB(t), nil, 0)
	p, c := seed(t, s)
	ctx := context.Background()

	name, err := s.ResolveDisplayName(ctx, p.ID, models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	name, err = s.ResolveDisplayName(ctx, c.ID, models.RoleClinician)
	require.NoError(t, err)
	assert.Equal(t, "Gregory House", name)
}

func TestResolveDisplayName_RoleScopesLookup(t *testing.T) {
	s := directory.NewService(newTestDB(t), nil, 0)
	p, _ := seed(t, s)

	_, err := s.ResolveDisplayName(context.Background(), p.ID, models.RoleClinician)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "a patient id is not a clinician")

	_, err = s.ResolveDisplayName(context.Background(), p.ID, models.Role("admin"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestResolveExists(t *testing.T) {
	s := directory.NewService(newTestDB(t), nil, 0)
	p, c := seed(t, s)
	ctx := context.Background()

	ok, err := s.ResolveExists(ctx, p.ID, models.RolePatient)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ResolveExists(ctx, c.ID, models.RoleClinician)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ResolveExists(ctx, "ghost", models.RolePatient)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveDisplayName_UsesCache(t *testing.T) {
	db := newTestDB(t)
	cache := newMemoryCache()
	s := directory.NewService(db, cache, 5*time.Minute)
	p, _ := seed(t, s)
	ctx := context.Background()

	_, err := s.ResolveDisplayName(ctx, p.ID, models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", cache.values["displayname:patient:"+p.ID])
	assert.Equal(t, 5*time.Minute, cache.ttls["displayname:patient:"+p.ID])

	// The cached value wins even after the record changes.
	require.NoError(t, db.Model(&models.Patient{}).Where("id = ?", p.ID).Update("first_name", "Janet").Error)
	name, err := s.ResolveDisplayName(ctx, p.ID, models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)
}

func TestResolveDisplayName_CacheFailureFallsBack(t *testing.T) {
	cache := new(brokenCache)
	s := directory.NewService(newTestDB(t), cache, time.Minute)
	p, _ := seed(t, s)
	key := "displayname:patient:" + p.ID

	cache.On("Get", key).Return("", errors.New("redis: connection refused"))
	cache.On("Set", key, "Jane Doe", time.Minute).Return(errors.New("redis: connection refused"))

	name, err := s.ResolveDisplayName(context.Background(), p.ID, models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)
	cache.AssertExpectations(t)
}

func TestResolveDisplayName_NotFoundIsNotCached(t *testing.T) {
	cache := newMemoryCache()
	s := directory.NewService(newTestDB(t), cache, time.Minute)

	_, err := s.ResolveDisplayName(context.Background(), "ghost", models.RoleClinician)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, cache.values)
}

func TestNewRedisCache_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := directory.NewRedisCache(ctx, "not a url")
	assert.Error(t, err)

	_, err = directory.NewRedisCache(ctx, "redis://127.0.0.1:1/0")
	assert.Error(t, err, "nothing listens on port 1")
}
