package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
	"github.com/qhosting/cloudsms/internal/sms"
)

type costEstimator struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewCostEstimator(repo repository.Repository, logger *zap.Logger) CostEstimator {
	return &costEstimator{
		repo:   repo,
		logger: logger,
	}
}

// Estimate renders the campaign for every recipient and sums the credits.
func (e *costEstimator) Estimate(ctx context.Context, campaignID int64) (*Estimate, error) {
	campaign, err := e.getCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return e.EstimateCampaign(ctx, e.repo, campaign)
}

func (e *costEstimator) EstimateCampaign(ctx context.Context, repo repository.Repository, campaign *models.Campaign) (*Estimate, error) {
	contacts, err := resolveRecipients(ctx, repo, campaign)
	if err != nil {
		return nil, err
	}

	estimate := &Estimate{
		CampaignID: campaign.ID,
		Recipients: make([]*RenderedMessage, 0, len(contacts)),
		ByEncoding: make(map[sms.EncodingType]int),
	}

	for _, contact := range contacts {
		msg := Render(campaign.Message, contact)
		estimate.Recipients = append(estimate.Recipients, msg)
		estimate.TotalCredits += msg.Credits()
		estimate.ByEncoding[msg.Encoding.Type]++
	}

	e.logger.Debug("Campaign estimated",
		zap.Int64("campaign_id", campaign.ID),
		zap.Int("recipients", len(estimate.Recipients)),
		zap.Int("credits", estimate.TotalCredits))

	return estimate, nil
}

// Preview renders the first limit recipients of a campaign.
func (e *costEstimator) Preview(ctx context.Context, campaignID int64, limit int) ([]*PreviewItem, error) {
	if limit < 1 {
		limit = 1
	}

	campaign, err := e.getCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	contacts, err := resolveRecipients(ctx, e.repo, campaign)
	if err != nil {
		return nil, err
	}
	if len(contacts) > limit {
		contacts = contacts[:limit]
	}

	items := make([]*PreviewItem, 0, len(contacts))
	for _, contact := range contacts {
		msg := Render(campaign.Message, contact)
		items = append(items, &PreviewItem{
			RenderedMessage:  msg,
			UnresolvedTokens: sms.UnresolvedTokens(msg.Text),
		})
	}

	return items, nil
}

func (e *costEstimator) getCampaign(ctx context.Context, campaignID int64) (*models.Campaign, error) {
	campaign, err := e.repo.Campaign().GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// Render interpolates template for contact and segments the result.
func Render(template string, contact *models.Contact) *RenderedMessage {
	text := sms.Interpolate(template, contact)
	enc, parts := sms.Segment(text)

	return &RenderedMessage{
		Contact:  contact,
		Text:     text,
		Encoding: enc,
		Parts:    parts,
	}
}

// resolveRecipients returns the valid contacts targeted by campaign,
// deduplicated by phone with the first occurrence kept.
func resolveRecipients(ctx context.Context, repo repository.Repository, campaign *models.Campaign) ([]*models.Contact, error) {
	var (
		contacts []*models.Contact
		err      error
	)

	switch campaign.TargetType {
	case models.TargetTypeList:
		if !campaign.ContactListID.Valid {
			return nil, nil
		}
		contacts, err = repo.Contact().GetValidByList(ctx, campaign.ContactListID.Int64)
	case models.TargetTypeAllContacts:
		contacts, err = repo.Contact().GetValidByCompany(ctx, campaign.CompanyID)
	default:
		return nil, fmt.Errorf("unknown target type %q", campaign.TargetType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	return dedupeByPhone(contacts), nil
}

func dedupeByPhone(contacts []*models.Contact) []*models.Contact {
	seen := make(map[string]struct{}, len(contacts))
	out := contacts[:0:0]
	for _, c := range contacts {
		if _, ok := seen[c.Phone]; ok {
			continue
		}
		seen[c.Phone] = struct{}{}
		out = append(out, c)
	}
	return out
}
