package transferservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/errorspkg"
	"github.com/paisabook/paisabook/pkg/randompkg"
)

const (
	testMPIN = "1234"
	testOTP  = "654321"
)

func testUser(id int64) domain.User {
	return domain.User{
		ID:       id,
		Phone:    randompkg.Phone(),
		FullName: randompkg.Owner(),
		Email:    randompkg.Email(),
	}
}

func testAccount(id, userID int64, balance string) domain.Account {
	return domain.Account{
		ID:           id,
		UserID:       userID,
		Balance:      decimal.RequireFromString(balance),
		DailyLimit:   decimal.NewFromInt(50_000),
		MonthlyLimit: decimal.NewFromInt(500_000),
		Status:       domain.AccountActive,
		CreatedAt:    time.Now().Truncate(time.Second).UTC(),
	}
}

type mocks struct {
	repo     *MockRepo
	accounts *MockAccountService
	users    *MockUserService
	otp      *MockOTPStore
	sink     *MockSink
}

func TestTransfer(t *testing.T) {
	sender := testUser(1)
	recipient := testUser(2)
	senderAccount := testAccount(1, sender.ID, "1000")
	recipientAccount := testAccount(2, recipient.ID, "500")

	testTxResult := domain.TransferTxResult{
		FromEntry: domain.Entry{
			AccountID: senderAccount.ID,
			Amount:    decimal.NewFromInt(-100),
			Reference: "TXN0123456789ABCDEF0123456789ABCDEFD",
		},
		ToEntry: domain.Entry{
			AccountID: recipientAccount.ID,
			Amount:    decimal.NewFromInt(100),
			Reference: "TXN0123456789ABCDEF0123456789ABCDEFC",
		},
		FromAccount: senderAccount,
		ToAccount:   recipientAccount,
	}

	type input struct {
		senderUserID int64
		tier         domain.AuthTier
		arg          domain.CreateTransferParams
	}

	testCases := []struct {
		name          string
		input         input
		buildStubs    func(m mocks)
		checkResponse func(t *testing.T, res domain.TransferTxResult, err error)
	}{
		{
			name: "InvalidAmount",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "!@#$",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "NegativeAmount",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "-100",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrNegativeAmount)
			},
		},
		{
			name: "InvalidMPIN",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "100",
					Proof:          "0000",
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq("0000")).
					Times(1).
					Return(domain.User{}, domain.ErrInvalidMPIN)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidMPIN)
			},
		},
		{
			name: "InvalidOTP",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierSecure,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "100",
					Proof:          "111111",
				},
			},
			buildStubs: func(m mocks) {
				m.otp.EXPECT().GetDel(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(testOTP, nil)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidOTP)
			},
		},
		{
			name: "ConsumedOTPDoesNotAuthorizeTwice",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierSecure,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "100",
					Proof:          testOTP,
				},
			},
			buildStubs: func(m mocks) {
				m.otp.EXPECT().GetDel(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return("", domain.ErrInvalidOTP)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidOTP)
			},
		},
		{
			name: "RecipientNotFound",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: "9000000000",
					Amount:         "100",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq("9000000000")).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			},
		},
		{
			name: "SelfTransfer",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: sender.Phone,
					Amount:         "100",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(sender.Phone)).
					Times(1).
					Return(senderAccount, nil)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrSelfTransfer)
			},
		},
		{
			name: "BasicTierCeilingBoundaryOK",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "10000",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(recipient.Phone)).
					Times(1).
					Return(recipientAccount, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(senderAccount, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(recipient.ID)).
					Times(1).
					Return(recipient, nil)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(testTxResult, nil)
				m.sink.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.NoError(t, err)
				require.Equal(t, testTxResult, res)
			},
		},
		{
			name: "BasicTierCeilingExceeded",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "10001",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(recipient.Phone)).
					Times(1).
					Return(recipientAccount, nil)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrTierCeilingExceeded)
			},
		},
		{
			name: "InsufficientFunds",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "5000",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(recipient.Phone)).
					Times(1).
					Return(recipientAccount, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(senderAccount, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(recipient.ID)).
					Times(1).
					Return(recipient, nil)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferTxResult{},
						domain.InsufficientFundsError(decimal.NewFromInt(1000), decimal.NewFromInt(5000)))
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInsufficientFunds)
			},
		},
		{
			name: "SecureTierPassesLimitFlags",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierSecure,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "20000",
					Proof:          testOTP,
				},
			},
			buildStubs: func(m mocks) {
				m.otp.EXPECT().GetDel(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(testOTP, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(recipient.Phone)).
					Times(1).
					Return(recipientAccount, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(senderAccount, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(recipient.ID)).
					Times(1).
					Return(recipient, nil)
				m.repo.EXPECT().
					Transfer(gomock.Any(), transferArgMatcher{
						checkLimits:   true,
						checkVelocity: true,
					}).
					Times(1).
					Return(testTxResult, nil)
				m.sink.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.NoError(t, err)
				require.Equal(t, testTxResult, res)
			},
		},
		{
			name: "NotifierFailureDoesNotFailTransfer",
			input: input{
				senderUserID: sender.ID,
				tier:         domain.TierBasic,
				arg: domain.CreateTransferParams{
					RecipientPhone: recipient.Phone,
					Amount:         "100",
					Proof:          testMPIN,
				},
			},
			buildStubs: func(m mocks) {
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(sender.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(sender, nil)
				m.accounts.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(recipient.Phone)).
					Times(1).
					Return(recipientAccount, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(sender.ID)).
					Times(1).
					Return(senderAccount, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(recipient.ID)).
					Times(1).
					Return(recipient, nil)
				m.repo.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(testTxResult, nil)
				m.sink.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(2).
					Return(errorspkg.ErrInternal)
			},
			checkResponse: func(t *testing.T, res domain.TransferTxResult, err error) {
				require.NoError(t, err)
				require.Equal(t, testTxResult, res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := mocks{
				repo:     NewMockRepo(ctrl),
				accounts: NewMockAccountService(ctrl),
				users:    NewMockUserService(ctrl),
				otp:      NewMockOTPStore(ctrl),
				sink:     NewMockSink(ctrl),
			}

			tc.buildStubs(m)

			service := New(m.repo, m.accounts, m.users, m.otp, m.sink, randompkg.OTP)

			res, err := service.Transfer(context.Background(), tc.input.senderUserID, tc.input.tier, tc.input.arg)
			tc.checkResponse(t, res, err)
		})
	}
}

// transferArgMatcher checks the tier flags handed to the repository.
type transferArgMatcher struct {
	checkLimits   bool
	checkVelocity bool
}

func (m transferArgMatcher) Matches(x interface{}) bool {
	arg, ok := x.(domain.TransferTxParams)
	if !ok {
		return false
	}

	return arg.CheckLimits == m.checkLimits &&
		arg.CheckVelocity == m.checkVelocity &&
		arg.VelocityLimit == domain.VelocityLimit &&
		arg.VelocityWindow == domain.VelocityWindow
}

func (m transferArgMatcher) String() string {
	return "matches tier limit and velocity flags"
}

func TestRequestOTP(t *testing.T) {
	user := testUser(1)

	testCases := []struct {
		name       string
		buildStubs func(m mocks)
		wantErr    error
	}{
		{
			name: "UserNotFound",
			buildStubs: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(user.ID)).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
				m.otp.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "StoreError",
			buildStubs: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(user.ID)).
					Times(1).
					Return(user, nil)
				m.otp.EXPECT().Set(gomock.Any(), gomock.Eq(user.ID), gomock.Any()).
					Times(1).
					Return(errorspkg.ErrInternal)
			},
			wantErr: errorspkg.ErrInternal,
		},
		{
			name: "OK",
			buildStubs: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(user.ID)).
					Times(1).
					Return(user, nil)
				m.otp.EXPECT().Set(gomock.Any(), gomock.Eq(user.ID), gomock.Eq(testOTP)).
					Times(1).
					Return(nil)
				m.sink.EXPECT().Notify(gomock.Any(), gomock.Eq(user.ID), gomock.Any()).
					Times(1).
					Return(nil)
			},
			wantErr: nil,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := mocks{
				repo:     NewMockRepo(ctrl),
				accounts: NewMockAccountService(ctrl),
				users:    NewMockUserService(ctrl),
				otp:      NewMockOTPStore(ctrl),
				sink:     NewMockSink(ctrl),
			}

			tc.buildStubs(m)

			service := New(m.repo, m.accounts, m.users, m.otp, m.sink, func() string { return testOTP })

			err := service.RequestOTP(context.Background(), user.ID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}
