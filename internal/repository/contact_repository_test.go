package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
)

func TestContactRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewContactRepository(db)
	ctx := context.Background()

	companyID, err := insertTestCompany(db.DB, "Acme", 0)
	require.NoError(t, err)
	otherID, err := insertTestCompany(db.DB, "Other", 0)
	require.NoError(t, err)

	now := time.Now()
	newer, err := insertTestList(db.DB, companyID, "Newer", now)
	require.NoError(t, err)
	older, err := insertTestList(db.DB, companyID, "Older", now.Add(-time.Hour))
	require.NoError(t, err)
	foreign, err := insertTestList(db.DB, otherID, "Foreign", now)
	require.NoError(t, err)

	_, err = insertTestContact(db.DB, newer, "+34600000003", ptr("Carla"), true)
	require.NoError(t, err)
	_, err = insertTestContact(db.DB, newer, "+34600000004", nil, false)
	require.NoError(t, err)
	_, err = insertTestContact(db.DB, older, "+34600000001", ptr("Ana"), true)
	require.NoError(t, err)
	_, err = insertTestContact(db.DB, older, "+34600000003", nil, true)
	require.NoError(t, err)
	_, err = insertTestContact(db.DB, foreign, "+34600000009", nil, true)
	require.NoError(t, err)

	phones := func(contacts []*models.Contact) []string {
		out := make([]string, 0, len(contacts))
		for _, c := range contacts {
			out = append(out, c.Phone)
		}
		return out
	}

	tests := []struct {
		name     string
		fetch    func() ([]*models.Contact, error)
		expected []string
	}{
		{
			name:     "list skips invalid contacts",
			fetch:    func() ([]*models.Contact, error) { return repo.GetValidByList(ctx, newer) },
			expected: []string{"+34600000003"},
		},
		{
			name:     "company walks lists oldest first",
			fetch:    func() ([]*models.Contact, error) { return repo.GetValidByCompany(ctx, companyID) },
			expected: []string{"+34600000001", "+34600000003", "+34600000003"},
		},
		{
			name:     "empty list",
			fetch:    func() ([]*models.Contact, error) { return repo.GetValidByList(ctx, 99999) },
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts, err := tt.fetch()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, phones(contacts))
		})
	}

	contacts, err := repo.GetValidByList(ctx, older)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Ana", contacts[0].FirstName.String)
	assert.False(t, contacts[1].FirstName.Valid)
}

func TestDeliveryRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewRepository(db)
	ctx := context.Background()

	_, pending := seedMessages(t, db, repo, 1)
	msgID := pending[0].ID

	first := &models.DeliveryReportRecord{
		MessageID: msgID, ExternalID: "ext-1", AckLevel: "carrier", Desc: "ACCEPTD",
		Outcome: models.DeliveryOutcomeInProgress,
	}
	second := &models.DeliveryReportRecord{
		MessageID: msgID, ExternalID: "ext-1", AckLevel: "handset", Desc: "DELIVRD",
		Outcome: models.DeliveryOutcomeDelivered, Applied: true,
	}
	second.MSISDN.String, second.MSISDN.Valid = "34600000000", true

	require.NoError(t, repo.Delivery().Record(ctx, first))
	require.NoError(t, repo.Delivery().Record(ctx, second))
	assert.NotZero(t, first.ID)
	assert.False(t, second.ReceivedAt.IsZero())

	records, err := repo.Delivery().GetByMessage(ctx, msgID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.DeliveryOutcomeInProgress, records[0].Outcome)
	assert.False(t, records[0].Applied)
	assert.Equal(t, "DELIVRD", records[1].Desc)
	assert.True(t, records[1].Applied)
	assert.Equal(t, "34600000000", records[1].MSISDN.String)
}

func TestDeliveryRepository_RecordKeepsLongCarrierFields(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := repository.NewRepository(db)
	ctx := context.Background()

	_, pending := seedMessages(t, db, repo, 1)
	msgID := pending[0].ID

	longDesc := strings.Repeat("D", 300)
	record := &models.DeliveryReportRecord{
		MessageID: msgID, ExternalID: "ext-1",
		AckLevel: strings.Repeat("a", 80), Type: strings.Repeat("t", 80),
		Desc: longDesc, Status: strings.Repeat("s", 40),
		Outcome: models.DeliveryOutcomeFailed, Applied: true,
	}
	record.Timestamp.String, record.Timestamp.Valid = strings.Repeat("9", 100), true
	record.MSISDN.String, record.MSISDN.Valid = strings.Repeat("3", 60), true

	require.NoError(t, repo.Delivery().Record(ctx, record))

	records, err := repo.Delivery().GetByMessage(ctx, msgID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, longDesc, records[0].Desc)
	assert.Len(t, records[0].MSISDN.String, 60)
	assert.Len(t, records[0].Timestamp.String, 100)
}
