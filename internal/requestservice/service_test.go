package requestservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paisabook/paisabook/internal/domain"
)

const testMPIN = "1234"

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type mocks struct {
	repo      *MockRepo
	transfers *MockTransferRepo
	accounts  *MockAccountService
	users     *MockUserService
	sink      *MockSink
}

func newService(m mocks) *Service {
	s := New(m.repo, m.transfers, m.accounts, m.users, m.sink)
	s.now = func() time.Time { return testNow }

	return s
}

func pendingRequest(id, requesterID, payerID int64, amount string) domain.MoneyRequest {
	return domain.MoneyRequest{
		ID:          id,
		RequesterID: requesterID,
		PayerID:     payerID,
		Amount:      decimal.RequireFromString(amount),
		Status:      domain.RequestPending,
		ExpiresAt:   testNow.Add(time.Hour),
		CreatedAt:   testNow.Add(-time.Hour),
	}
}

func TestCreate(t *testing.T) {
	requester := domain.User{ID: 1, Phone: "9111111111", FullName: "asha"}
	payer := domain.User{ID: 2, Phone: "9222222222", FullName: "vikram"}

	testCases := []struct {
		name        string
		payerPhone  string
		amount      string
		buildStubs  func(m mocks)
		wantErr     error
		checkResult func(t *testing.T, res domain.MoneyRequest)
	}{
		{
			name:       "InvalidAmount",
			payerPhone: payer.Phone,
			amount:     "abc",
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:       "NegativeAmount",
			payerPhone: payer.Phone,
			amount:     "-5",
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name:       "AboveBasicCeiling",
			payerPhone: payer.Phone,
			amount:     "10001",
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrTierCeilingExceeded,
		},
		{
			name:       "SelfRequest",
			payerPhone: requester.Phone,
			amount:     "100",
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(requester.Phone)).
					Times(1).
					Return(requester, nil)
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrSelfTransfer,
		},
		{
			name:       "PayerNotFound",
			payerPhone: "9000000000",
			amount:     "100",
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByPhone(gomock.Any(), gomock.Eq("9000000000")).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:       "OK",
			payerPhone: payer.Phone,
			amount:     "100",
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByPhone(gomock.Any(), gomock.Eq(payer.Phone)).
					Times(1).
					Return(payer, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(requester.ID)).
					Times(1).
					Return(requester, nil)
				m.repo.EXPECT().Create(gomock.Any(), gomock.Eq(domain.CreateMoneyRequestParams{
					RequesterID: requester.ID,
					PayerID:     payer.ID,
					Amount:      decimal.RequireFromString("100"),
					Description: "lunch",
					ExpiresAt:   testNow.Add(DefaultExpiry),
				})).
					Times(1).
					Return(pendingRequest(7, requester.ID, payer.ID, "100"), nil)
				m.sink.EXPECT().Notify(gomock.Any(), gomock.Eq(payer.ID), gomock.Any()).
					Times(1).
					Return(nil)
			},
			checkResult: func(t *testing.T, res domain.MoneyRequest) {
				require.Equal(t, int64(7), res.ID)
				require.Equal(t, domain.RequestPending, res.Status)
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
				repo:      NewMockRepo(ctrl),
				transfers: NewMockTransferRepo(ctrl),
				accounts:  NewMockAccountService(ctrl),
				users:     NewMockUserService(ctrl),
				sink:      NewMockSink(ctrl),
			}

			tc.buildStubs(m)

			res, err := newService(m).Create(context.Background(), requester.ID, tc.payerPhone, tc.amount, "lunch")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			tc.checkResult(t, res)
		})
	}
}

func TestPay(t *testing.T) {
	requester := domain.User{ID: 1, Phone: "9111111111", FullName: "asha"}
	payer := domain.User{ID: 2, Phone: "9222222222", FullName: "vikram"}
	requesterAccount := domain.Account{ID: 11, UserID: requester.ID, Status: domain.AccountActive}
	payerAccount := domain.Account{ID: 22, UserID: payer.ID, Status: domain.AccountActive}

	request := pendingRequest(7, requester.ID, payer.ID, "250")

	paidRequest := request
	paidRequest.Status = domain.RequestPaid
	paidAt := testNow
	paidRequest.PaidAt = &paidAt
	paidRequest.TransactionReference = "TXN0123456789ABCDEF0123456789ABCDEFD"

	txResult := domain.TransferTxResult{
		FromEntry: domain.Entry{AccountID: payerAccount.ID, Reference: "TXN0123456789ABCDEF0123456789ABCDEFD"},
		ToEntry:   domain.Entry{AccountID: requesterAccount.ID, Reference: "TXN0123456789ABCDEF0123456789ABCDEFC"},
	}

	testCases := []struct {
		name       string
		requestID  int64
		payerID    int64
		buildStubs func(m mocks)
		wantErr    error
	}{
		{
			name:      "RequestNotFound",
			requestID: 404,
			payerID:   payer.ID,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(int64(404))).
					Times(1).
					Return(domain.MoneyRequest{}, domain.ErrRequestNotFound)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrRequestNotFound,
		},
		{
			name:      "AlreadySettled",
			requestID: request.ID,
			payerID:   payer.ID,
			buildStubs: func(m mocks) {
				settled := request
				settled.Status = domain.RequestPaid
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(settled, nil)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrAlreadySettled,
		},
		{
			name:      "ExpiredLazily",
			requestID: request.ID,
			payerID:   payer.ID,
			buildStubs: func(m mocks) {
				stale := request
				stale.ExpiresAt = testNow.Add(-time.Minute)
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(stale, nil)
				m.repo.EXPECT().SetStatus(gomock.Any(), gomock.Eq(request.ID), gomock.Eq(domain.RequestExpired)).
					Times(1).
					Return(stale, nil)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrRequestExpired,
		},
		{
			name:      "WrongPayer",
			requestID: request.ID,
			payerID:   requester.ID,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(request, nil)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidOwner,
		},
		{
			name:      "InvalidMPIN",
			requestID: request.ID,
			payerID:   payer.ID,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(request, nil)
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(payer.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(domain.User{}, domain.ErrInvalidMPIN)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidMPIN,
		},
		{
			name:      "ConcurrentSettleRollsBack",
			requestID: request.ID,
			payerID:   payer.ID,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(request, nil)
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(payer.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(payer, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(requester.ID)).
					Times(1).
					Return(requester, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(payer.ID)).
					Times(1).
					Return(payerAccount, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(requester.ID)).
					Times(1).
					Return(requesterAccount, nil)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferTxResult{}, domain.ErrAlreadySettled)
			},
			wantErr: domain.ErrAlreadySettled,
		},
		{
			name:      "OK",
			requestID: request.ID,
			payerID:   payer.ID,
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(request, nil)
				m.users.EXPECT().CheckMPIN(gomock.Any(), gomock.Eq(payer.ID), gomock.Eq(testMPIN)).
					Times(1).
					Return(payer, nil)
				m.users.EXPECT().Get(gomock.Any(), gomock.Eq(requester.ID)).
					Times(1).
					Return(requester, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(payer.ID)).
					Times(1).
					Return(payerAccount, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), gomock.Eq(requester.ID)).
					Times(1).
					Return(requesterAccount, nil)
				m.transfers.EXPECT().Transfer(gomock.Any(), gomock.Eq(domain.TransferTxParams{
					FromAccountID: payerAccount.ID,
					ToAccountID:   requesterAccount.ID,
					Amount:        request.Amount,
					Description:   request.Description,
					EntryType:     domain.EntryPayment,
					FromName:      payer.FullName,
					FromPhone:     payer.Phone,
					ToName:        requester.FullName,
					ToPhone:       requester.Phone,
					RequestID:     request.ID,
				})).
					Times(1).
					Return(txResult, nil)
				m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
					Times(1).
					Return(paidRequest, nil)
				m.sink.EXPECT().Notify(gomock.Any(), gomock.Eq(requester.ID), gomock.Any()).
					Times(1).
					Return(nil)
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
				repo:      NewMockRepo(ctrl),
				transfers: NewMockTransferRepo(ctrl),
				accounts:  NewMockAccountService(ctrl),
				users:     NewMockUserService(ctrl),
				sink:      NewMockSink(ctrl),
			}

			tc.buildStubs(m)

			got, _, err := newService(m).Pay(context.Background(), tc.requestID, tc.payerID, testMPIN)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, domain.RequestPaid, got.Status)
			require.NotNil(t, got.PaidAt)
		})
	}
}

func TestDeclineAndCancel(t *testing.T) {
	request := pendingRequest(7, 1, 2, "100")

	t.Run("DeclineByWrongUser", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m := mocks{
			repo:      NewMockRepo(ctrl),
			transfers: NewMockTransferRepo(ctrl),
			accounts:  NewMockAccountService(ctrl),
			users:     NewMockUserService(ctrl),
			sink:      NewMockSink(ctrl),
		}

		m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
			Times(1).
			Return(request, nil)
		m.repo.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := newService(m).Decline(context.Background(), request.ID, request.RequesterID)
		require.ErrorIs(t, err, domain.ErrInvalidOwner)
	})

	t.Run("DeclineOK", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m := mocks{
			repo:      NewMockRepo(ctrl),
			transfers: NewMockTransferRepo(ctrl),
			accounts:  NewMockAccountService(ctrl),
			users:     NewMockUserService(ctrl),
			sink:      NewMockSink(ctrl),
		}

		declined := request
		declined.Status = domain.RequestDeclined

		m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
			Times(1).
			Return(request, nil)
		m.repo.EXPECT().SetStatus(gomock.Any(), gomock.Eq(request.ID), gomock.Eq(domain.RequestDeclined)).
			Times(1).
			Return(declined, nil)
		m.sink.EXPECT().Notify(gomock.Any(), gomock.Eq(request.RequesterID), gomock.Any()).
			Times(1).
			Return(nil)

		got, err := newService(m).Decline(context.Background(), request.ID, request.PayerID)
		require.NoError(t, err)
		require.Equal(t, domain.RequestDeclined, got.Status)
	})

	t.Run("CancelByWrongUser", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m := mocks{
			repo:      NewMockRepo(ctrl),
			transfers: NewMockTransferRepo(ctrl),
			accounts:  NewMockAccountService(ctrl),
			users:     NewMockUserService(ctrl),
			sink:      NewMockSink(ctrl),
		}

		m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
			Times(1).
			Return(request, nil)
		m.repo.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := newService(m).Cancel(context.Background(), request.ID, request.PayerID)
		require.ErrorIs(t, err, domain.ErrInvalidOwner)
	})

	t.Run("CancelOK", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m := mocks{
			repo:      NewMockRepo(ctrl),
			transfers: NewMockTransferRepo(ctrl),
			accounts:  NewMockAccountService(ctrl),
			users:     NewMockUserService(ctrl),
			sink:      NewMockSink(ctrl),
		}

		cancelled := request
		cancelled.Status = domain.RequestCancelled

		m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(request.ID)).
			Times(1).
			Return(request, nil)
		m.repo.EXPECT().SetStatus(gomock.Any(), gomock.Eq(request.ID), gomock.Eq(domain.RequestCancelled)).
			Times(1).
			Return(cancelled, nil)

		got, err := newService(m).Cancel(context.Background(), request.ID, request.RequesterID)
		require.NoError(t, err)
		require.Equal(t, domain.RequestCancelled, got.Status)
	})
}

func TestListExpiresStaleFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := mocks{
		repo:      NewMockRepo(ctrl),
		transfers: NewMockTransferRepo(ctrl),
		accounts:  NewMockAccountService(ctrl),
		users:     NewMockUserService(ctrl),
		sink:      NewMockSink(ctrl),
	}

	const userID = int64(1)

	gomock.InOrder(
		m.repo.EXPECT().ExpireStale(gomock.Any(), gomock.Eq(userID)).
			Times(1).
			Return(nil),
		m.repo.EXPECT().List(gomock.Any(), gomock.Eq(userID), gomock.Eq(int32(20)), gomock.Eq(int32(0))).
			Times(1).
			Return([]domain.MoneyRequest{pendingRequest(7, 1, 2, "100")}, nil),
	)

	got, err := newService(m).List(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
