// Package auth resolves a Telegram identity assertion into a store user.
// The storefront trusts the transport to have verified the assertion; this
// package only normalizes it and records the user.
package auth

import (
	"strings"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store"
)

// SyntheticUserID is the stand-in identity used when no Telegram profile
// is present, so browsing outside Telegram still works.
const SyntheticUserID int64 = 999999999

// Profile is the identity claim as received from Telegram.
type Profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Service records logins against the store.
type Service struct {
	store  store.Store
	logger logging.Logger
}

func NewService(s store.Store, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: s, logger: logger}
}

// Login normalizes the profile and upserts the user. An empty profile
// falls back to the synthetic guest identity rather than failing; login
// is never a hard gate on browsing.
func (s *Service) Login(p Profile) (store.User, error) {
	u := store.User{
		TelegramID: p.ID,
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Username:   strings.TrimSpace(p.Username),
	}
	if u.TelegramID == 0 {
		u.TelegramID = SyntheticUserID
		if u.FirstName == "" {
			u.FirstName = "Guest"
		}
	}

	if err := s.store.UpsertUser(u); err != nil {
		return store.User{}, err
	}

	s.logger.Info("user logged in",
		logging.Int64("telegram_id", u.TelegramID),
		logging.Bool("synthetic", u.TelegramID == SyntheticUserID),
	)
	return u, nil
}
