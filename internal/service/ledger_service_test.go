package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
	"github.com/qhosting/cloudsms/internal/service"
)

func TestLedgerService_Charge(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(rm *repoMocks)
		wantErr   bool
		wantIs    error
		wantEntry *models.CreditLedgerEntry
	}{
		{
			name: "debits and appends usage entry",
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Debit(gomock.Any(), int64(10), 4).Return(96, nil)
				rm.company.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantEntry: &models.CreditLedgerEntry{
				CompanyID:    10,
				Type:         models.LedgerEntryUsage,
				Delta:        -4,
				BalanceAfter: 96,
				Description:  "Campaign",
				Reference:    "1",
			},
		},
		{
			name: "insufficient balance",
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Debit(gomock.Any(), int64(10), 4).Return(0, repository.ErrInsufficientBalance)
			},
			wantErr: true,
			wantIs:  service.ErrInsufficientCredits,
		},
		{
			name: "company missing",
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Debit(gomock.Any(), int64(10), 4).Return(0, repository.ErrNotFound)
			},
			wantErr: true,
			wantIs:  service.ErrNotFound,
		},
		{
			name: "ledger append fails",
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Debit(gomock.Any(), int64(10), 4).Return(96, nil)
				rm.company.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).Return(errors.New("constraint"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			rm := newRepoMocks(ctrl)
			tt.setup(rm)

			ledger := service.NewLedgerService(rm.repo, zap.NewNop())
			entry, err := ledger.Charge(context.Background(), rm.repo, 10, 4, "Campaign", "1")

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantIs != nil {
					assert.ErrorIs(t, err, tt.wantIs)
				}
				assert.Nil(t, entry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEntry, entry)
		})
	}
}

func TestLedgerService_TopUpAndRefund(t *testing.T) {
	tests := []struct {
		name     string
		amount   int
		refund   bool
		setup    func(rm *repoMocks)
		wantErr  error
		wantType models.LedgerEntryType
	}{
		{
			name:   "top up",
			amount: 500,
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Credit(gomock.Any(), int64(10), 500).Return(600, nil)
				rm.company.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantType: models.LedgerEntryTopUp,
		},
		{
			name:   "refund",
			amount: 3,
			refund: true,
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Credit(gomock.Any(), int64(10), 3).Return(103, nil)
				rm.company.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantType: models.LedgerEntryRefund,
		},
		{
			name:    "zero amount",
			amount:  0,
			setup:   func(rm *repoMocks) {},
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			amount:  -5,
			setup:   func(rm *repoMocks) {},
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:   "unknown company",
			amount: 5,
			setup: func(rm *repoMocks) {
				rm.company.EXPECT().Credit(gomock.Any(), int64(10), 5).Return(0, repository.ErrNotFound)
			},
			wantErr: service.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			rm := newRepoMocks(ctrl)
			tt.setup(rm)

			ledger := service.NewLedgerService(rm.repo, zap.NewNop())

			var (
				entry *models.CreditLedgerEntry
				err   error
			)
			if tt.refund {
				entry, err = ledger.Refund(context.Background(), 10, tt.amount, "refund", "1")
			} else {
				entry, err = ledger.TopUp(context.Background(), 10, tt.amount, "top up", "inv-1")
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, entry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, entry.Type)
			assert.Equal(t, tt.amount, entry.Delta)
			assert.Equal(t, int64(10), entry.CompanyID)
		})
	}
}

func TestLedgerService_History(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rm := newRepoMocks(ctrl)
		entries := []*models.CreditLedgerEntry{
			{ID: 2, Type: models.LedgerEntryUsage, Delta: -4, BalanceAfter: 96},
			{ID: 1, Type: models.LedgerEntryTopUp, Delta: 100, BalanceAfter: 100},
		}
		rm.company.EXPECT().GetByID(gomock.Any(), int64(10)).Return(&models.Company{ID: 10, CreditBalance: 96}, nil)
		rm.company.EXPECT().GetLedgerEntries(gomock.Any(), int64(10), 50).Return(entries, nil)

		got, err := service.NewLedgerService(rm.repo, zap.NewNop()).History(context.Background(), 10, 0)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("unknown company", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rm := newRepoMocks(ctrl)
		rm.company.EXPECT().GetByID(gomock.Any(), int64(10)).Return(nil, repository.ErrNotFound)

		_, err := service.NewLedgerService(rm.repo, zap.NewNop()).History(context.Background(), 10, 5)

		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestLedgerService_Balance(t *testing.T) {
	ctrl := gomock.NewController(t)
	rm := newRepoMocks(ctrl)
	rm.company.EXPECT().GetByID(gomock.Any(), int64(10)).Return(&models.Company{ID: 10, CreditBalance: 42}, nil)

	balance, err := service.NewLedgerService(rm.repo, zap.NewNop()).Balance(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 42, balance)
}
