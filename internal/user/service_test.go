package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

func TestService_Register(t *testing.T) {
	companyID := uuid.New()

	type testCase struct {
		name       string
		reg        user.Registration
		setupMock  func(repo *user.MockRepository, members *user.MockMembership)
		wantFields []string
		wantErr    error
	}

	tests := []testCase{
		{
			name: "WithCompany",
			reg: user.Registration{
				FirstName: " Ana ", LastName: "Silva", Email: "Ana@Example.com ", Password: "secret1",
				CompanyID: &companyID,
			},
			setupMock: func(repo *user.MockRepository, members *user.MockMembership) {
				repo.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						assert.Equal(t, "ana@example.com", u.Email)
						assert.Equal(t, "Ana", u.FirstName)
						assert.True(t, auth.CheckPassword(u.PasswordHash, "secret1"))
						u.ID = uuid.New()
						return nil
					})
				members.EXPECT().AddMember(gomock.Any(), companyID, gomock.Any()).Return(nil)
			},
		},
		{
			name: "WithoutCompany",
			reg:  user.Registration{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", Password: "secret1"},
			setupMock: func(repo *user.MockRepository, _ *user.MockMembership) {
				repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:       "Invalid",
			reg:        user.Registration{Email: "nope", Password: "123"},
			wantFields: []string{"firstName", "lastName", "email", "password"},
		},
		{
			name: "EmailTaken",
			reg:  user.Registration{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", Password: "secret1"},
			setupMock: func(repo *user.MockRepository, _ *user.MockMembership) {
				repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(user.ErrEmailTaken)
			},
			wantErr: user.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			members := user.NewMockMembership(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo, members)
			}

			svc := user.NewService(repo, members)
			got, err := svc.Register(context.Background(), tt.reg)

			if tt.wantFields != nil {
				var verr *user.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Len(t, verr.Fields, len(tt.wantFields))

				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}

				return
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.reg.CompanyID, got.CompanyID)
		})
	}
}

func TestService_Register_RollsBackWhenMembershipFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	members := user.NewMockMembership(ctrl)
	svc := user.NewService(repo, members)

	companyID := uuid.New()
	userID := uuid.New()

	gomock.InOrder(
		repo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *user.User) error {
				u.ID = userID
				return nil
			}),
		members.EXPECT().AddMember(gomock.Any(), companyID, userID).Return(errors.New("boom")),
		repo.EXPECT().DeleteUser(gomock.Any(), userID).Return(nil),
	)

	_, err := svc.Register(context.Background(), user.Registration{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", Password: "secret1", CompanyID: &companyID,
	})
	assert.Error(t, err)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	stored := &user.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: hash}

	tests := []struct {
		name     string
		email    string
		password string
		lookup   func(m *user.MockRepository)
		wantErr  error
	}{
		{
			name:     "Success",
			email:    " ANA@example.com",
			password: "secret1",
			lookup: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(stored, nil)
			},
		},
		{
			name:     "WrongPassword",
			email:    "ana@example.com",
			password: "secret2",
			lookup: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(stored, nil)
			},
			wantErr: user.ErrInvalidCredentials,
		},
		{
			name:     "UnknownEmail",
			email:    "bob@example.com",
			password: "secret1",
			lookup: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(nil, user.ErrNotFound)
			},
			wantErr: user.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			tt.lookup(repo)

			got, err := user.NewService(repo, user.NewMockMembership(ctrl)).
				Authenticate(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, stored.ID, got.ID)
		})
	}
}

func TestService_ChangeCompany(t *testing.T) {
	userID := uuid.New()
	oldID := uuid.New()
	newID := uuid.New()

	tests := []struct {
		name      string
		current   *uuid.UUID
		target    *uuid.UUID
		setupMock func(repo *user.MockRepository, members *user.MockMembership)
	}{
		{
			name:    "Move",
			current: &oldID,
			target:  &newID,
			setupMock: func(repo *user.MockRepository, members *user.MockMembership) {
				gomock.InOrder(
					members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(nil),
					repo.EXPECT().UpdateCompany(gomock.Any(), userID, &newID).Return(nil),
				)
			},
		},
		{
			name:   "Join",
			target: &newID,
			setupMock: func(repo *user.MockRepository, members *user.MockMembership) {
				gomock.InOrder(
					members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(nil),
					repo.EXPECT().UpdateCompany(gomock.Any(), userID, &newID).Return(nil),
				)
			},
		},
		{
			name:    "Leave",
			current: &oldID,
			setupMock: func(repo *user.MockRepository, members *user.MockMembership) {
				gomock.InOrder(
					members.EXPECT().SetMembership(gomock.Any(), userID, nil).Return(nil),
					repo.EXPECT().UpdateCompany(gomock.Any(), userID, nil).Return(nil),
				)
			},
		},
		{
			name:    "Unchanged",
			current: &oldID,
			target:  &oldID,
			setupMock: func(_ *user.MockRepository, members *user.MockMembership) {
				members.EXPECT().SetMembership(gomock.Any(), userID, &oldID).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			members := user.NewMockMembership(ctrl)

			repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: tt.current}, nil)
			tt.setupMock(repo, members)

			got, err := user.NewService(repo, members).ChangeCompany(context.Background(), userID, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.target, got.CompanyID)
		})
	}
}

func TestService_ChangeCompany_RetryAfterRosterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	members := user.NewMockMembership(ctrl)

	userID := uuid.New()
	oldID := uuid.New()
	newID := uuid.New()

	// The user row is never touched while the roster write fails.
	gomock.InOrder(
		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: &oldID}, nil),
		members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(errors.New("db down")),
		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: &oldID}, nil),
		members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(nil),
		repo.EXPECT().UpdateCompany(gomock.Any(), userID, &newID).Return(nil),
	)

	svc := user.NewService(repo, members)

	_, err := svc.ChangeCompany(context.Background(), userID, &newID)
	require.Error(t, err)

	got, err := svc.ChangeCompany(context.Background(), userID, &newID)
	require.NoError(t, err)
	assert.Equal(t, &newID, got.CompanyID)
}

func TestService_ChangeCompany_RetryAfterUserRowFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	members := user.NewMockMembership(ctrl)

	userID := uuid.New()
	oldID := uuid.New()
	newID := uuid.New()

	// Rosters already point at newID when the retry starts; they are
	// reconciled again and the user row catches up.
	gomock.InOrder(
		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: &oldID}, nil),
		members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(nil),
		repo.EXPECT().UpdateCompany(gomock.Any(), userID, &newID).Return(errors.New("db down")),
		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: &oldID}, nil),
		members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(nil),
		repo.EXPECT().UpdateCompany(gomock.Any(), userID, &newID).Return(nil),
	)

	svc := user.NewService(repo, members)

	_, err := svc.ChangeCompany(context.Background(), userID, &newID)
	require.Error(t, err)

	got, err := svc.ChangeCompany(context.Background(), userID, &newID)
	require.NoError(t, err)
	assert.Equal(t, &newID, got.CompanyID)
}

func TestService_ChangeCompany_RepairsRosterWhenRowAlreadyMoved(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	members := user.NewMockMembership(ctrl)

	userID := uuid.New()
	newID := uuid.New()

	// A row that already names newID still gets its roster reconciled.
	repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: &newID}, nil)
	members.EXPECT().SetMembership(gomock.Any(), userID, &newID).Return(nil)

	got, err := user.NewService(repo, members).ChangeCompany(context.Background(), userID, &newID)
	require.NoError(t, err)
	assert.Equal(t, &newID, got.CompanyID)
}

func TestService_Delete_LeavesCompanyFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	members := user.NewMockMembership(ctrl)

	userID := uuid.New()
	companyID := uuid.New()

	gomock.InOrder(
		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&user.User{ID: userID, CompanyID: &companyID}, nil),
		members.EXPECT().RemoveMember(gomock.Any(), companyID, userID).Return(nil),
		repo.EXPECT().DeleteUser(gomock.Any(), userID).Return(nil),
	)

	require.NoError(t, user.NewService(repo, members).Delete(context.Background(), userID))
}

func TestService_RemoveTransactions_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := user.NewService(user.NewMockRepository(ctrl), user.NewMockMembership(ctrl))
	assert.NoError(t, svc.RemoveTransactions(context.Background(), uuid.New(), nil))
}
