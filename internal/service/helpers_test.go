package service_test

import (
	"context"
	"database/sql"

	"go.uber.org/mock/gomock"

	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
	repomocks "github.com/qhosting/cloudsms/internal/repository/mocks"
)

// repoMocks bundles a mock Repository with its sub-repositories. WithTx runs
// fn against the same mock, as a joined transaction would.
type repoMocks struct {
	repo     *repomocks.MockRepository
	campaign *repomocks.MockCampaignRepository
	message  *repomocks.MockMessageRepository
	contact  *repomocks.MockContactRepository
	company  *repomocks.MockCompanyRepository
	delivery *repomocks.MockDeliveryRepository
}

func newRepoMocks(ctrl *gomock.Controller) *repoMocks {
	m := &repoMocks{
		repo:     repomocks.NewMockRepository(ctrl),
		campaign: repomocks.NewMockCampaignRepository(ctrl),
		message:  repomocks.NewMockMessageRepository(ctrl),
		contact:  repomocks.NewMockContactRepository(ctrl),
		company:  repomocks.NewMockCompanyRepository(ctrl),
		delivery: repomocks.NewMockDeliveryRepository(ctrl),
	}

	m.repo.EXPECT().Campaign().Return(m.campaign).AnyTimes()
	m.repo.EXPECT().Message().Return(m.message).AnyTimes()
	m.repo.EXPECT().Contact().Return(m.contact).AnyTimes()
	m.repo.EXPECT().Company().Return(m.company).AnyTimes()
	m.repo.EXPECT().Delivery().Return(m.delivery).AnyTimes()
	m.repo.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(tx repository.Repository) error) error {
			return fn(m.repo)
		}).AnyTimes()

	return m
}

func testContact(id int64, phone, firstName string) *models.Contact {
	c := &models.Contact{ID: id, ListID: 1, Phone: phone, IsValid: true}
	if firstName != "" {
		c.FirstName = sql.NullString{String: firstName, Valid: true}
	}
	return c
}

func testCampaign(id int64, status models.CampaignStatus, message string) *models.Campaign {
	return &models.Campaign{
		ID:            id,
		CompanyID:     10,
		Name:          "Spring sale",
		Message:       message,
		TargetType:    models.TargetTypeList,
		ContactListID: sql.NullInt64{Int64: 5, Valid: true},
		Status:        status,
	}
}
