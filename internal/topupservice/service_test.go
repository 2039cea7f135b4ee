package topupservice

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/errorspkg"
)

func TestConfirm(t *testing.T) {
	const userID = int64(1)

	account := domain.Account{
		ID:      1,
		UserID:  userID,
		Balance: decimal.NewFromInt(500),
		Status:  domain.AccountActive,
	}

	freshResult := domain.DepositTxResult{
		Entry: domain.Entry{
			AccountID:   account.ID,
			Type:        domain.EntryDeposit,
			Amount:      decimal.NewFromInt(100),
			Reference:   "TXN0123456789ABCDEF0123456789ABCDEFT",
			ExternalRef: "pay_abc123",
		},
		Account: domain.Account{
			ID:      account.ID,
			UserID:  userID,
			Balance: decimal.NewFromInt(600),
			Status:  domain.AccountActive,
		},
		Applied: true,
	}

	duplicateResult := freshResult
	duplicateResult.Duplicate = true

	testCases := []struct {
		name          string
		arg           domain.ConfirmTopUpParams
		buildStubs    func(repo *MockRepo, accounts *MockAccountService, sink *MockSink)
		checkResponse func(t *testing.T, res domain.DepositTxResult, err error)
	}{
		{
			name: "NonSuccessGatewayStatusIsNoOp",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "100",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: "FAILED",
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(0)
				sink.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.NoError(t, err)
				require.False(t, res.Applied)
			},
		},
		{
			name: "InvalidAmount",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "abc",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: domain.GatewayStatusSuccess,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				repo.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "NegativeAmount",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "-100",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: domain.GatewayStatusSuccess,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				repo.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.ErrorIs(t, err, domain.ErrNegativeAmount)
			},
		},
		{
			name: "AccountNotFound",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "100",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: domain.GatewayStatusSuccess,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(userID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				repo.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			},
		},
		{
			name: "FreshCreditNotifies",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "100",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: domain.GatewayStatusSuccess,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(userID)).
					Times(1).
					Return(account, nil)
				repo.EXPECT().Deposit(gomock.Any(), gomock.Eq(domain.DepositTxParams{
					AccountID:   account.ID,
					Amount:      decimal.RequireFromString("100"),
					Method:      "upi",
					ExternalRef: "pay_abc123",
				})).
					Times(1).
					Return(freshResult, nil)
				sink.EXPECT().Notify(gomock.Any(), gomock.Eq(userID), gomock.Any()).
					Times(1).
					Return(nil)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.NoError(t, err)
				require.True(t, res.Applied)
				require.False(t, res.Duplicate)
			},
		},
		{
			name: "DuplicateCreditDoesNotNotify",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "100",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: domain.GatewayStatusSuccess,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(userID)).
					Times(1).
					Return(account, nil)
				repo.EXPECT().Deposit(gomock.Any(), gomock.Any()).
					Times(1).
					Return(duplicateResult, nil)
				sink.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.NoError(t, err)
				require.True(t, res.Applied)
				require.True(t, res.Duplicate)
			},
		},
		{
			name: "NotifierFailureDoesNotFailTopUp",
			arg: domain.ConfirmTopUpParams{
				UserID:        userID,
				Amount:        "100",
				ExternalRef:   "pay_abc123",
				Method:        "upi",
				GatewayStatus: domain.GatewayStatusSuccess,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountService, sink *MockSink) {
				accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(userID)).
					Times(1).
					Return(account, nil)
				repo.EXPECT().Deposit(gomock.Any(), gomock.Any()).
					Times(1).
					Return(freshResult, nil)
				sink.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(errorspkg.ErrInternal)
			},
			checkResponse: func(t *testing.T, res domain.DepositTxResult, err error) {
				require.NoError(t, err)
				require.True(t, res.Applied)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			accounts := NewMockAccountService(ctrl)
			sink := NewMockSink(ctrl)

			tc.buildStubs(repo, accounts, sink)

			service := New(repo, accounts, sink)

			res, err := service.Confirm(context.Background(), tc.arg)
			tc.checkResponse(t, res, err)
		})
	}
}
