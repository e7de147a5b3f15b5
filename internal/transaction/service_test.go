package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(ctrl *gomock.Controller) (*transaction.Service, *transaction.MockRepository, *transaction.MockLinker) {
	repo := transaction.NewMockRepository(ctrl)
	linker := transaction.NewMockLinker(ctrl)
	svc := transaction.NewService(repo, linker, transaction.WithClock(func() time.Time { return fixedNow }))

	return svc, repo, linker
}

func ptr[T any](v T) *T { return &v }

func TestService_CreateFromManualEntry(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name       string
		entry      transaction.ManualEntry
		setupMock  func(repo *transaction.MockRepository, linker *transaction.MockLinker)
		wantFields []string
		wantErr    bool
	}

	tests := []testCase{
		{
			name: "Success",
			entry: transaction.ManualEntry{
				Merchant: "  Corner Cafe ",
				Amount:   ptr(8.5),
				Category: transaction.CategoryDining,
				Items:    []transaction.Item{{Name: "Latte", Price: 4.25}},
			},
			setupMock: func(repo *transaction.MockRepository, linker *transaction.MockLinker) {
				repo.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						return nil
					})
				linker.EXPECT().AppendTransaction(gomock.Any(), userID, gomock.Any()).Return(nil)
			},
		},
		{
			name: "ZeroAmountAllowed",
			entry: transaction.ManualEntry{
				Merchant: "Library",
				Amount:   ptr(0.0),
				Category: transaction.CategoryEducation,
			},
			setupMock: func(repo *transaction.MockRepository, linker *transaction.MockLinker) {
				repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
				linker.EXPECT().AppendTransaction(gomock.Any(), userID, gomock.Any()).Return(nil)
			},
		},
		{
			name:       "MissingEverything",
			entry:      transaction.ManualEntry{},
			wantFields: []string{"merchant", "amount", "category"},
			wantErr:    true,
		},
		{
			name: "NegativeAmountAndUnknownCategory",
			entry: transaction.ManualEntry{
				Merchant: "Shop",
				Amount:   ptr(-3.0),
				Category: "groceries",
			},
			wantFields: []string{"amount", "category"},
			wantErr:    true,
		},
		{
			name: "BadItems",
			entry: transaction.ManualEntry{
				Merchant: "Shop",
				Amount:   ptr(3.0),
				Category: transaction.CategoryGrocery,
				Items: []transaction.Item{
					{Name: "", Price: 1, Quantity: 1},
					{Name: "Eggs", Price: -1, Quantity: -2},
				},
			},
			wantFields: []string{"items[0].name", "items[1].price", "items[1].quantity"},
			wantErr:    true,
		},
		{
			name: "RepoError",
			entry: transaction.ManualEntry{
				Merchant: "Shop",
				Amount:   ptr(3.0),
				Category: transaction.CategoryGrocery,
			},
			setupMock: func(repo *transaction.MockRepository, _ *transaction.MockLinker) {
				repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, repo, linker := newService(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo, linker)
			}

			got, err := svc.CreateFromManualEntry(context.Background(), userID, tt.entry)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				if tt.wantFields != nil {
					var verr *transaction.ValidationError
					require.True(t, errors.As(err, &verr))

					for _, f := range tt.wantFields {
						assert.Contains(t, verr.Fields, f)
					}

					assert.Len(t, verr.Fields, len(tt.wantFields))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, userID, got.UserID)
			assert.Equal(t, fixedNow, got.Date)
			assert.Equal(t, tt.entry.Category, got.Category)
			assert.False(t, got.ReceiptUploaded)
			assert.Zero(t, got.CO2Emissions)

			for _, it := range got.Items {
				assert.Equal(t, 1, it.Quantity)
			}
		})
	}
}

func TestService_CreateFromManualEntry_TrimsMerchantAndKeepsDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo, linker := newService(ctrl)
	userID := uuid.New()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	linker.EXPECT().AppendTransaction(gomock.Any(), userID, gomock.Any()).Return(nil)

	got, err := svc.CreateFromManualEntry(context.Background(), userID, transaction.ManualEntry{
		Merchant: "  Corner Cafe ",
		Amount:   ptr(8.5),
		Category: transaction.CategoryDining,
		Date:     &date,
	})
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", got.Merchant)
	assert.Equal(t, date, got.Date)
}

func TestService_CreateFromReceipt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo, linker := newService(ctrl)
	userID := uuid.New()
	txID := uuid.New()

	draft := &receipt.Draft{
		Merchant:     "Target",
		Category:     receipt.CategoryRetail,
		Amount:       24,
		Items:        []receipt.Item{{Name: "Socks", Price: 12, Quantity: 2}},
		CO2Emissions: 7.68,
	}

	repo.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			tx.ID = txID
			return nil
		})
	linker.EXPECT().AppendTransaction(gomock.Any(), userID, txID).Return(nil)

	got, err := svc.CreateFromReceipt(context.Background(), userID, draft, nil)
	require.NoError(t, err)

	assert.Equal(t, transaction.CategoryShopping, got.Category)
	assert.Equal(t, "Target", got.Merchant)
	assert.Equal(t, 24.0, got.Amount)
	assert.Equal(t, 7.68, got.CO2Emissions)
	assert.True(t, got.ReceiptUploaded)
	assert.Equal(t, fixedNow, got.Date)
	assert.Equal(t, []transaction.Item{{Name: "Socks", Price: 12, Quantity: 2}}, got.Items)
}

func TestService_CreateRollsBackWhenLinkFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo, linker := newService(ctrl)
	userID := uuid.New()
	txID := uuid.New()

	gomock.InOrder(
		repo.EXPECT().
			CreateTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
				tx.ID = txID
				return nil
			}),
		linker.EXPECT().AppendTransaction(gomock.Any(), userID, txID).Return(errors.New("user row locked")),
		repo.EXPECT().DeleteTransactions(gomock.Any(), userID, []uuid.UUID{txID}).Return([]uuid.UUID{txID}, nil),
	)

	got, err := svc.CreateFromManualEntry(context.Background(), userID, transaction.ManualEntry{
		Merchant: "Shell",
		Amount:   ptr(40.0),
		Category: transaction.CategoryGas,
	})
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestService_AttachReceipt(t *testing.T) {
	userID := uuid.New()
	txID := uuid.New()

	type testCase struct {
		name       string
		stored     transaction.Transaction
		draft      receipt.Draft
		wantAmount float64
	}

	items := []receipt.Item{{Name: "Burger", Price: 15, Quantity: 1}}

	tests := []testCase{
		{
			name:       "CompleteDraftReplacesAmount",
			stored:     transaction.Transaction{Amount: 20},
			draft:      receipt.Draft{Amount: 15, Items: items, CO2Emissions: 9.2},
			wantAmount: 15,
		},
		{
			name:       "IncompleteDraftKeepsAmount",
			stored:     transaction.Transaction{Amount: 20},
			draft:      receipt.Draft{Amount: 15, Items: items, CO2Emissions: 9.2, EmissionsIncomplete: true},
			wantAmount: 20,
		},
		{
			name:       "IncompleteDraftFillsMissingAmount",
			stored:     transaction.Transaction{Amount: 0},
			draft:      receipt.Draft{Amount: 15, Items: items, CO2Emissions: 9.2, EmissionsIncomplete: true},
			wantAmount: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, repo, _ := newService(ctrl)

			stored := tt.stored
			stored.ID = txID
			stored.UserID = userID
			stored.Category = transaction.CategoryDining

			repo.EXPECT().
				GetTransaction(gomock.Any(), txID).
				DoAndReturn(func(context.Context, uuid.UUID) (*transaction.Transaction, error) {
					cp := stored
					return &cp, nil
				}).
				Times(2)
			repo.EXPECT().
				UpdateTransaction(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
					stored = *tx
					return nil
				}).
				Times(2)

			first, err := svc.AttachReceipt(context.Background(), userID, txID, &tt.draft)
			require.NoError(t, err)

			second, err := svc.AttachReceipt(context.Background(), userID, txID, &tt.draft)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Equal(t, tt.wantAmount, second.Amount)
			assert.Equal(t, 9.2, second.CO2Emissions)
			assert.True(t, second.ReceiptUploaded)
			assert.Len(t, second.Items, 1)
			assert.Equal(t, transaction.CategoryDining, second.Category)
		})
	}
}

func TestService_AttachReceipt_OtherUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo, _ := newService(ctrl)
	txID := uuid.New()

	repo.EXPECT().
		GetTransaction(gomock.Any(), txID).
		Return(&transaction.Transaction{ID: txID, UserID: uuid.New()}, nil)

	_, err := svc.AttachReceipt(context.Background(), uuid.New(), txID, &receipt.Draft{Amount: 1})
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestService_List(t *testing.T) {
	type testCase struct {
		name      string
		filter    transaction.ListFilter
		setupMock func(m *transaction.MockRepository, filter transaction.ListFilter)
		wantLen   int
		wantErr   bool
	}

	tests := []testCase{
		{
			name:   "Success",
			filter: transaction.ListFilter{UserIDs: []uuid.UUID{uuid.New()}},
			setupMock: func(m *transaction.MockRepository, filter transaction.ListFilter) {
				m.EXPECT().
					ListTransactions(gomock.Any(), filter).
					Return([]*transaction.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, nil)
			},
			wantLen: 2,
		},
		{
			name:   "Error",
			filter: transaction.ListFilter{},
			setupMock: func(m *transaction.MockRepository, filter transaction.ListFilter) {
				m.EXPECT().
					ListTransactions(gomock.Any(), filter).
					Return(nil, errors.New("list error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, repo, _ := newService(ctrl)
			tt.setupMock(repo, tt.filter)

			got, err := svc.List(context.Background(), tt.filter)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_Update_Validates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _ := newService(ctrl)

	err := svc.Update(context.Background(), &transaction.Transaction{
		ID:       uuid.New(),
		Merchant: "Shop",
		Amount:   -1,
		Category: transaction.CategoryGrocery,
	})

	var verr *transaction.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "amount")
}

func TestService_DeleteBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo, linker := newService(ctrl)
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	// First call: only two of three belong to the user. Retry: nothing left to delete.
	gomock.InOrder(
		repo.EXPECT().DeleteTransactions(gomock.Any(), userID, ids).Return(ids[:2], nil),
		linker.EXPECT().RemoveTransactions(gomock.Any(), userID, ids).Return(nil),
		repo.EXPECT().DeleteTransactions(gomock.Any(), userID, ids).Return(nil, nil),
		linker.EXPECT().RemoveTransactions(gomock.Any(), userID, ids).Return(nil),
	)

	n, err := svc.DeleteBatch(context.Background(), userID, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.DeleteBatch(context.Background(), userID, ids)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_DeleteBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _ := newService(ctrl)

	n, err := svc.DeleteBatch(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Delete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, repo, linker := newService(ctrl)
	userID := uuid.New()
	id := uuid.New()

	repo.EXPECT().DeleteTransactions(gomock.Any(), userID, []uuid.UUID{id}).Return(nil, nil)
	linker.EXPECT().RemoveTransactions(gomock.Any(), userID, []uuid.UUID{id}).Return(nil)

	err := svc.Delete(context.Background(), userID, id)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}
