package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	campaignDatamodel "github.com/frahmantamala/dialer-dashboard/internal/core/datamodel/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/dialer"
	"gorm.io/gorm"
)

// DefaultReclaimAfter is how long a call may sit in DIALING before another runner takes it back.
const DefaultReclaimAfter = 10 * time.Minute

type Store struct {
	db           *gorm.DB
	reclaimAfter time.Duration
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, reclaimAfter: DefaultReclaimAfter}
}

// WithReclaimAfter sets the stall window used by DueCalls. Zero or less keeps the default.
func (s *Store) WithReclaimAfter(d time.Duration) *Store {
	if d > 0 {
		s.reclaimAfter = d
	}
	return s
}

var _ dialer.Store = (*Store)(nil)

func (s *Store) Campaign(ctx context.Context, id string) (*dialer.CampaignInfo, error) {
	var c campaignDatamodel.Campaign
	err := s.db.WithContext(ctx).
		Select("id", "admin_id", "status", "system_message", "initial_message").
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dialer.CampaignInfo{
		ID:             c.ID,
		AdminID:        c.AdminID,
		Status:         c.Status,
		SystemMessage:  c.SystemMessage,
		InitialMessage: c.InitialMessage,
	}, nil
}

func (s *Store) Target(ctx context.Context, campaignID, contactID string) (*dialer.Target, error) {
	var rows []dialer.Target
	err := s.db.WithContext(ctx).
		Table("campaign_contacts").
		Select("contacts.id AS contact_id, contacts.name, contacts.phone, contacts.status, campaign_contacts.status AS link_status").
		Joins("JOIN contacts ON contacts.id = campaign_contacts.contact_id").
		Where("campaign_contacts.campaign_id = ? AND campaign_contacts.contact_id = ?", campaignID, contactID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) RecordCall(ctx context.Context, c *calllog.CallLog) error {
	dm := calllog.ToDataModel(c)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dm).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return calllog.ErrDuplicateCallSid
			}
			return err
		}
		return tx.Model(&campaignDatamodel.CampaignContact{}).
			Where("campaign_id = ? AND contact_id = ?", c.CampaignID, c.ContactID).
			Updates(map[string]interface{}{
				"call_attempts": gorm.Expr("call_attempts + 1"),
				"last_called":   dm.CreatedAt,
				"updated_at":    dm.CreatedAt,
			}).Error
	})
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = dm.ID, dm.CreatedAt, dm.UpdatedAt
	return nil
}

// DueCalls claims rows one by one so concurrent runners never dial the same call twice.
// Calls stuck in DIALING for longer than the stall window, left by a runner that died
// mid-call, are put back to PENDING first.
func (s *Store) DueCalls(ctx context.Context, now time.Time, limit int) ([]*campaign.ScheduledCall, error) {
	db := s.db.WithContext(ctx)
	if err := db.Model(&campaignDatamodel.ScheduledCall{}).
		Where("status = ? AND updated_at < ?", campaign.CallDialing, now.Add(-s.reclaimAfter)).
		Updates(map[string]interface{}{
			"status":     campaign.CallPending,
			"last_error": "reclaimed after a stalled dial",
			"updated_at": now,
		}).Error; err != nil {
		return nil, err
	}

	var due []campaignDatamodel.ScheduledCall
	if err := db.Where("status = ? AND scheduled_at <= ?", campaign.CallPending, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&due).Error; err != nil {
		return nil, err
	}

	claimed := make([]*campaign.ScheduledCall, 0, len(due))
	for i := range due {
		res := db.Model(&campaignDatamodel.ScheduledCall{}).
			Where("id = ? AND status = ?", due[i].ID, campaign.CallPending).
			Updates(map[string]interface{}{"status": campaign.CallDialing, "updated_at": now})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		due[i].Status = campaign.CallDialing
		claimed = append(claimed, campaign.ScheduledCallFromDataModel(&due[i]))
	}
	return claimed, nil
}

func (s *Store) CompleteScheduled(ctx context.Context, id, callSid string) error {
	return s.db.WithContext(ctx).Model(&campaignDatamodel.ScheduledCall{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     campaign.CallCompleted,
			"call_sid":   callSid,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": nil,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Store) RetryScheduled(ctx context.Context, id string, attempts int, lastErr string, final bool) error {
	status := campaign.CallPending
	if final {
		status = campaign.CallFailed
	}
	return s.db.WithContext(ctx).Model(&campaignDatamodel.ScheduledCall{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastErr,
			"updated_at": time.Now().UTC(),
		}).Error
}
