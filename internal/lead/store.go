// Package lead persists the session-scoped collection of loan application
// drafts. Lead records share the session's TTL; the store never deep-merges
// formData — callers supply each step's record already merged whole.
package lead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lead-intake/internal/common/database"
	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
)

// Store is the lead collection for one browser session.
type Store struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

// Update carries the fields a step save may change. FormData entries
// replace the stored step record whole.
type Update struct {
	AppID          *string
	Status         *models.Status
	CurrentStep    *int
	ReturnToReview *bool
	FormData       map[string]models.StepRecord
}

func NewStore(rdb *database.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "lead-store"}),
	}
}

func (s *Store) leadKey(sessionID, leadID string) string {
	return fmt.Sprintf("intake:sess:%s:lead:%s", sessionID, leadID)
}

func (s *Store) indexKey(sessionID string) string {
	return fmt.Sprintf("intake:sess:%s:leads", sessionID)
}

func (s *Store) currentKey(sessionID string) string {
	return fmt.Sprintf("intake:sess:%s:lead:current", sessionID)
}

// Create allocates a fresh Draft lead at step 1 and makes it current.
func (s *Store) Create(ctx context.Context, sessionID string) (*models.Lead, error) {
	now := time.Now().UTC()
	l := &models.Lead{
		ID:          uuid.NewString(),
		Status:      models.StatusDraft,
		CurrentStep: 1,
		FormData:    make(map[string]models.StepRecord),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.persist(ctx, sessionID, l); err != nil {
		return nil, err
	}
	if err := s.redis.SAdd(ctx, s.indexKey(sessionID), l.ID); err != nil {
		return nil, commonerrors.NewStoreFailureError(err)
	}
	if err := s.SetCurrent(ctx, sessionID, l.ID); err != nil {
		return nil, err
	}
	// EXPIRE with a non-positive TTL deletes the key; zero means no expiry.
	if s.ttl > 0 {
		_ = s.redis.Expire(ctx, s.indexKey(sessionID), s.ttl)
	}

	s.logger.Info("lead created", map[string]interface{}{"leadId": l.ID})
	return l, nil
}

// Get returns the lead with the given id.
func (s *Store) Get(ctx context.Context, sessionID, leadID string) (*models.Lead, error) {
	raw, err := s.redis.Get(ctx, s.leadKey(sessionID, leadID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, commonerrors.NewLeadNotFoundError(leadID)
		}
		return nil, commonerrors.NewStoreFailureError(err)
	}

	var l models.Lead
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, commonerrors.NewStoreFailureError(err)
	}
	return &l, nil
}

// Apply shallow-merges an Update into the stored lead. A missing id is a
// typed LEAD_NOT_FOUND error rather than the silent no-op of the old
// client.
func (s *Store) Apply(ctx context.Context, sessionID, leadID string, upd Update) (*models.Lead, error) {
	l, err := s.Get(ctx, sessionID, leadID)
	if err != nil {
		return nil, err
	}

	if upd.AppID != nil {
		l.AppID = *upd.AppID
	}
	if upd.Status != nil {
		l.Status = *upd.Status
	}
	if upd.CurrentStep != nil {
		l.CurrentStep = *upd.CurrentStep
	}
	if upd.ReturnToReview != nil {
		l.ReturnToReview = *upd.ReturnToReview
	}
	for key, record := range upd.FormData {
		l.SetStepRecord(key, record)
	}
	l.UpdatedAt = time.Now().UTC()

	if err := s.persist(ctx, sessionID, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes the lead entirely; used only for abandoned drafts with no
// captured customer identity.
func (s *Store) Delete(ctx context.Context, sessionID, leadID string) error {
	if err := s.redis.Del(ctx, s.leadKey(sessionID, leadID)); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	if err := s.redis.SRem(ctx, s.indexKey(sessionID), leadID); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}

	current, err := s.redis.Get(ctx, s.currentKey(sessionID))
	if err == nil && current == leadID {
		_ = s.redis.Del(ctx, s.currentKey(sessionID))
	}

	s.logger.Info("lead deleted", map[string]interface{}{"leadId": leadID})
	return nil
}

// SetCurrent points the session's current-lead cursor at a lead.
func (s *Store) SetCurrent(ctx context.Context, sessionID, leadID string) error {
	if err := s.redis.Set(ctx, s.currentKey(sessionID), leadID, s.ttl); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	return nil
}

// ClearCurrent drops the current-lead pointer, e.g. after an exit back to
// the lead list.
func (s *Store) ClearCurrent(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.currentKey(sessionID)); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	return nil
}

// Current returns the most recently created or navigated-to lead, or a
// NO_CURRENT_LEAD error when the pointer is unset.
func (s *Store) Current(ctx context.Context, sessionID string) (*models.Lead, error) {
	leadID, err := s.redis.Get(ctx, s.currentKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, commonerrors.NewNoCurrentLeadError()
		}
		return nil, commonerrors.NewStoreFailureError(err)
	}
	return s.Get(ctx, sessionID, leadID)
}

// List returns all leads for dashboard aggregation.
func (s *Store) List(ctx context.Context, sessionID string) ([]*models.Lead, error) {
	ids, err := s.redis.SMembers(ctx, s.indexKey(sessionID))
	if err != nil {
		return nil, commonerrors.NewStoreFailureError(err)
	}

	leads := make([]*models.Lead, 0, len(ids))
	for _, id := range ids {
		l, err := s.Get(ctx, sessionID, id)
		if err != nil {
			// Index entries can outlive expired lead keys; skip them.
			if commonerrors.IsCode(err, commonerrors.ErrCodeLeadNotFound) {
				_ = s.redis.SRem(ctx, s.indexKey(sessionID), id)
				continue
			}
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, nil
}

// CountByStatus aggregates the lead list for the dashboard.
func (s *Store) CountByStatus(ctx context.Context, sessionID string) (map[models.Status]int, error) {
	leads, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int)
	for _, l := range leads {
		counts[l.Status]++
	}
	return counts, nil
}

func (s *Store) persist(ctx context.Context, sessionID string, l *models.Lead) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	if err := s.redis.Set(ctx, s.leadKey(sessionID, l.ID), raw, s.ttl); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	return nil
}
