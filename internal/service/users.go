package service

import (
	"context"
	"strings"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/session"
	"github.com/julianstephens/plantmanager/internal/storage"
)

// UserService manages the single display name captured at onboarding.
type UserService struct {
	store *storage.Local
	sess  *session.Session
}

func NewUserService(store *storage.Local, sess *session.Session) *UserService {
	return &UserService{store: store, sess: sess}
}

// Identify stores name, replacing any previous one.
func (s *UserService) Identify(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.InvalidInput("name cannot be blank")
	}
	if err := s.store.Set(ctx, constants.UserKey, name); err != nil {
		return err
	}
	if s.sess != nil {
		s.sess.UserName = name
	}
	return nil
}

// Name returns the stored display name and whether onboarding happened.
func (s *UserService) Name(ctx context.Context) (string, bool, error) {
	return s.store.Get(ctx, constants.UserKey)
}

// Greeting returns the name shown in the header, or "" before onboarding.
func (s *UserService) Greeting(ctx context.Context) (string, error) {
	name, _, err := s.Name(ctx)
	if err != nil {
		return "", err
	}
	if s.sess != nil && name != "" {
		s.sess.UserName = name
	}
	return name, nil
}
