package storage

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"medchat/backend/internal/apperr"
	"medchat/backend/internal/config"
	"medchat/backend/internal/models"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ConversationStore is the durable record of conversations and their message logs.
// It performs no authorization.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, patientID, clinicianID, patientName, clinicianName string) (*models.Conversation, error)
	FindByPair(ctx context.Context, patientID, clinicianID string) (*models.Conversation, error)
	Append(ctx context.Context, conversationID, senderID string, senderRole models.Role, senderName, body string) (*models.Message, error)
	ListForParticipant(ctx context.Context, identity models.Identity) ([]models.Conversation, error)
	Get(ctx context.Context, conversationID string) (*models.Conversation, error)
	GetMessage(ctx context.Context, conversationID string, seq uint) (*models.Message, error)
}

// Service implements ConversationStore on top of gorm.
type Service struct {
	DB *gorm.DB

	now       func() time.Time
	pairLocks keyedMutex
	convLocks keyedMutex
}

var _ ConversationStore = (*Service)(nil)

// errSeqTaken means another writer claimed the sequence position first.
var errSeqTaken = errors.New("sequence position already taken")

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{
		DB:  db,
		now: time.Now,
	}
}

// WithClock replaces the clock used for server timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Migrate creates or updates every table owned by the chat service.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.Patient{},
		&models.Clinician{},
	)
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// GetOrCreate returns the conversation for the pair, creating it on first contact.
// Creation attempts for one pair are serialized in process; across processes the
// unique pair index decides and the loser refetches the winner's row.
func (s *Service) GetOrCreate(ctx context.Context, patientID, clinicianID, patientName, clinicianName string) (*models.Conversation, error) {
	if patientID == "" || clinicianID == "" {
		return nil, apperr.Validation("patientId and clinicianId are required")
	}

	unlock := s.pairLocks.Lock(patientID + "\x00" + clinicianID)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= config.CreateConversationAttempts; attempt++ {
		conv, err := s.FindByPair(ctx, patientID, clinicianID)
		if err == nil {
			return conv, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}

		conv = &models.Conversation{
			PatientID:      patientID,
			ClinicianID:    clinicianID,
			PatientName:    patientName,
			ClinicianName:  clinicianName,
			LastActivityAt: s.timestamp(),
		}
		err = s.DB.WithContext(ctx).Create(conv).Error
		if err == nil {
			log.WithFields(log.Fields{
				"conversation": conv.ID,
				"patient":      patientID,
				"clinician":    clinicianID,
			}).Info("conversation created")
			return conv, nil
		}
		if !isUniqueViolation(err) {
			return nil, apperr.Unavailable(errors.Wrap(err, "create conversation"), "storage unavailable")
		}

		lastErr = err
		log.WithFields(log.Fields{
			"patient":   patientID,
			"clinician": clinicianID,
			"attempt":   attempt,
		}).Warn("lost conversation create race, refetching")
	}

	return nil, apperr.Conflict(lastErr, "conversation could not be created, retry later")
}

// FindByPair returns the conversation for the pair or a not-found error.
func (s *Service) FindByPair(ctx context.Context, patientID, clinicianID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.WithContext(ctx).
		Where("patient_id = ? AND clinician_id = ?", patientID, clinicianID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, apperr.Unavailable(errors.Wrap(err, "find conversation by pair"), "storage unavailable")
	}
	return &conv, nil
}

// Append adds a message to the end of a conversation and returns the stored record.
// Writers to one conversation are serialized; the compare-and-set on
// message_count keeps positions unique even if another process writes too.
func (s *Service) Append(ctx context.Context, conversationID, senderID string, senderRole models.Role, senderName, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("message body is empty")
	}
	if utf8.RuneCountInString(body) > config.MaxMessageBodyLength {
		return nil, apperr.Validation("message body exceeds %d characters", config.MaxMessageBodyLength)
	}
	if conversationID == "" || senderID == "" {
		return nil, apperr.Validation("conversationId and senderId are required")
	}
	if !senderRole.Valid() {
		return nil, apperr.Validation("sender role %q cannot post messages", senderRole)
	}

	unlock := s.convLocks.Lock(conversationID)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= config.AppendAttempts; attempt++ {
		msg, err := s.appendOnce(ctx, conversationID, senderID, senderRole, senderName, body)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, errSeqTaken) {
			return nil, err
		}
		lastErr = err
		log.WithFields(log.Fields{"conversation": conversationID, "attempt": attempt}).
			Warn("sequence position taken, retrying append")
	}

	return nil, apperr.Conflict(lastErr, "message could not be appended, retry later")
}

func (s *Service) appendOnce(ctx context.Context, conversationID, senderID string, senderRole models.Role, senderName, body string) (*models.Message, error) {
	var msg *models.Message

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, "id = ?", conversationID).Error; err != nil {
			return err
		}

		// Timestamps never run backwards within a conversation.
		ts := s.timestamp()
		if ts.Before(conv.LastActivityAt) {
			ts = conv.LastActivityAt
		}
		next := conv.MessageCount + 1

		res := tx.Model(&models.Conversation{}).
			Where("id = ? AND message_count = ?", conv.ID, conv.MessageCount).
			Updates(map[string]interface{}{
				"message_count":    next,
				"last_activity_at": ts,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errSeqTaken
		}

		msg = &models.Message{
			ConversationID: conv.ID,
			Seq:            next,
			SenderID:       senderID,
			SenderRole:     senderRole,
			SenderName:     senderName,
			Body:           body,
			Timestamp:      ts,
		}
		if err := tx.Create(msg).Error; err != nil {
			if isUniqueViolation(err) {
				return errSeqTaken
			}
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		return msg, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("conversation not found")
	case errors.Is(err, errSeqTaken):
		return nil, err
	default:
		log.WithError(err).WithField("conversation", conversationID).Error("failed to append message")
		return nil, apperr.Unavailable(errors.Wrap(err, "append message"), "storage unavailable")
	}
}

// ListForParticipant returns the participant's conversations, most recent activity first.
// Messages are not loaded.
func (s *Service) ListForParticipant(ctx context.Context, identity models.Identity) ([]models.Conversation, error) {
	var column string
	switch identity.Role {
	case models.RolePatient:
		column = "patient_id"
	case models.RoleClinician:
		column = "clinician_id"
	default:
		return nil, apperr.Forbidden("only patients and clinicians have conversations")
	}
	if identity.ID == "" {
		return nil, apperr.Validation("participant id is required")
	}

	convs := []models.Conversation{}
	err := s.DB.WithContext(ctx).
		Where(column+" = ?", identity.ID).
		Order("last_activity_at DESC").
		Order("id ASC").
		Find(&convs).Error
	if err != nil {
		return nil, apperr.Unavailable(errors.Wrap(err, "list conversations"), "storage unavailable")
	}
	return convs, nil
}

// Get returns a conversation with its full message history ordered by position.
func (s *Service) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, apperr.Validation("conversationId is required")
	}

	var conv models.Conversation
	err := s.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		First(&conv, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, apperr.Unavailable(errors.Wrap(err, "get conversation"), "storage unavailable")
	}
	return &conv, nil
}

// GetMessage returns one persisted message.
func (s *Service) GetMessage(ctx context.Context, conversationID string, seq uint) (*models.Message, error) {
	if conversationID == "" || seq == 0 {
		return nil, apperr.Validation("conversationId and a positive seq are required")
	}

	var msg models.Message
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ? AND seq = ?", conversationID, seq).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("message not found")
	}
	if err != nil {
		return nil, apperr.Unavailable(errors.Wrap(err, "get message"), "storage unavailable")
	}
	return &msg, nil
}

// isUniqueViolation recognizes duplicate-key errors from translated gorm
// drivers and from a raw lib/pq connection.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}
