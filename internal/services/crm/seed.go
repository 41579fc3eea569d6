package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/praedium/internal/common"
	"github.com/ternarybob/praedium/internal/models"
)

// SeedProperty stores a CRM property, folding city and state to lowercase
// so candidate queries stay case-insensitive. Assigns an ID when missing.
func (s *Service) SeedProperty(ctx context.Context, property *models.CRMProperty) (*models.CRMProperty, error) {
	if property == nil {
		return nil, fmt.Errorf("crm property is required")
	}
	if property.ID == "" {
		property.ID = common.NewCRMPropertyID()
	}
	property.City = fold(property.City)
	property.State = fold(property.State)

	if err := s.storage.SaveProperty(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// SeedSkipTrace stores an owner lookup result for a CRM property
func (s *Service) SeedSkipTrace(ctx context.Context, crmPropertyID string, ownerNames []string, mailingAddress string, createdAt time.Time) (*models.SkipTraceRecord, error) {
	if crmPropertyID == "" {
		return nil, fmt.Errorf("crm property id is required")
	}
	record := &models.SkipTraceRecord{
		ID:             common.NewSkipTraceID(),
		CRMPropertyID:  crmPropertyID,
		OwnerNames:     ownerNames,
		MailingAddress: mailingAddress,
		CreatedAt:      createdAt,
	}
	if err := s.storage.SaveSkipTrace(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// SeedZillow stores a Zillow enrichment snapshot for a CRM property
func (s *Service) SeedZillow(ctx context.Context, record *models.ZillowRecord) (*models.ZillowRecord, error) {
	if record == nil || record.CRMPropertyID == "" {
		return nil, fmt.Errorf("zillow record requires a crm property id")
	}
	if record.ID == "" {
		record.ID = common.NewZillowID()
	}
	if err := s.storage.SaveZillow(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
