// Package directory resolves participant existence and display names from the
// patients and clinicians tables, optionally fronted by a cache.
package directory

import (
	"context"
	"errors"
	"time"

	"medchat/backend/internal/apperr"
	"medchat/backend/internal/config"
	"medchat/backend/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Directory is the participant lookup contract consumed by the chat core.
type Directory interface {
	ResolveDisplayName(ctx context.Context, id string, role models.Role) (string, error)
	ResolveExists(ctx context.Context, id string, role models.Role) (bool, error)
}

// Service implements Directory with gorm.
type Service struct {
	DB    *gorm.DB
	Cache Cache // optional
	TTL   time.Duration
}

var _ Directory = (*Service)(nil)

// NewService creates a directory service. cache may be nil.
func NewService(db *gorm.DB, cache Cache, ttl time.Duration) *Service {
	return &Service{DB: db, Cache: cache, TTL: ttl}
}

func cacheKey(id string, role models.Role) string {
	return config.DisplayNameCachePrefix + string(role) + ":" + id
}

// ResolveDisplayName returns "First Last" for the participant, or a not-found error.
func (s *Service) ResolveDisplayName(ctx context.Context, id string, role models.Role) (string, error) {
	if !role.Valid() {
		return "", apperr.NotFound("no %q participants in the directory", role)
	}

	key := cacheKey(id, role)
	if s.Cache != nil {
		name, err := s.Cache.Get(ctx, key)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrMiss) {
			// Cache trouble only costs a database round trip.
			log.WithError(err).WithField("key", key).Warn("display name cache read failed")
		}
	}

	name, err := s.lookup(ctx, id, role)
	if err != nil {
		return "", err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, name, s.TTL); err != nil {
			log.WithError(err).WithField("key", key).Warn("display name cache write failed")
		}
	}
	return name, nil
}

// ResolveExists reports whether the participant is in the directory.
func (s *Service) ResolveExists(ctx context.Context, id string, role models.Role) (bool, error) {
	_, err := s.ResolveDisplayName(ctx, id, role)
	if err == nil {
		return true, nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) lookup(ctx context.Context, id string, role models.Role) (string, error) {
	var (
		name string
		err  error
	)
	switch role {
	case models.RolePatient:
		var p models.Patient
		err = s.DB.WithContext(ctx).First(&p, "id = ?", id).Error
		name = p.DisplayName()
	case models.RoleClinician:
		var c models.Clinician
		err = s.DB.WithContext(ctx).First(&c, "id = ?", id).Error
		name = c.DisplayName()
	default:
		return "", apperr.NotFound("no %q participants in the directory", role)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.NotFound("%s %s not found", role, id)
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"user": id, "role": role}).Error("directory lookup failed")
		return "", apperr.Unavailable(err, "directory unavailable")
	}
	return name, nil
}

// SavePatient inserts or updates a patient record.
func (s *Service) SavePatient(ctx context.Context, p *models.Patient) error {
	return s.DB.WithContext(ctx).Save(p).Error
}

// SaveClinician inserts or updates a clinician record.
func (s *Service) SaveClinician(ctx context.Context, c *models.Clinician) error {
	return s.DB.WithContext(ctx).Save(c).Error
}
