package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobboard/internal/identity"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/store"
)

type TokenIssuer interface {
	Issue(email string) (string, error)
}

type UserService struct {
	Store  store.UserStore
	IDs    identity.Allocator
	Tokens TokenIssuer
	Log    *logrus.Entry
}

func NewUserService(s store.UserStore, ids identity.Allocator, tokens TokenIssuer, log *logrus.Entry) *UserService {
	return &UserService{
		Store:  s,
		IDs:    ids,
		Tokens: tokens,
		Log:    log,
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Store.FindUsers(ctx)
	if err != nil {
		return nil, s.storeFailure("find_users", err)
	}
	return users, nil
}

// CreateUser inserts body as a new user. A taken email yields store.ErrDuplicate.
func (s *UserService) CreateUser(ctx context.Context, body map[string]interface{}) (store.WriteResult, error) {
	res, err := s.Store.InsertUser(ctx, models.NewUser(s.IDs.NewID(), body))
	if err != nil && !errors.Is(err, store.ErrDuplicate) {
		return res, s.storeFailure("insert_user", err)
	}
	return res, err
}

// Login records the email as a user if it is new and issues a bearer token.
func (s *UserService) Login(ctx context.Context, email string) (string, store.WriteResult, error) {
	token, err := s.Tokens.Issue(email)
	if err != nil {
		return "", store.WriteResult{}, err
	}
	res, err := s.Store.UpsertUserEmail(ctx, email, s.IDs.NewID())
	if err != nil {
		return "", store.WriteResult{}, s.storeFailure("upsert_user", err)
	}
	s.Log.WithField("email", email).Info("user logged in")
	return token, res, nil
}

// GetUser returns store.ErrNotFound for an unknown email.
func (s *UserService) GetUser(ctx context.Context, email string) (models.User, error) {
	u, err := s.Store.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.User{}, s.storeFailure("find_user", err)
	}
	return u, err
}

func (s *UserService) storeFailure(op string, err error) error {
	metrics.RecordStoreError(op)
	s.Log.WithError(err).WithField("operation", op).Error("store call failed")
	return err
}
