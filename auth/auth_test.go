package auth

import (
	"errors"
	"testing"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store"
)

type fakeStore struct {
	store.Store
	upserted  *store.User
	upsertErr error
}

func (f *fakeStore) UpsertUser(u store.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = &u
	return nil
}

func TestLoginUpsertsProfile(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, logging.NoopLogger{})

	u, err := svc.Login(Profile{ID: 12345, FirstName: " Ivan ", Username: "ivan"})
	if err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}

	if u.TelegramID != 12345 {
		t.Errorf("Expected telegram id 12345, got %d", u.TelegramID)
	}
	if u.FirstName != "Ivan" {
		t.Errorf("Expected trimmed first name, got %q", u.FirstName)
	}
	if fs.upserted == nil || fs.upserted.TelegramID != 12345 {
		t.Error("Expected the user to be upserted")
	}
}

func TestLoginSyntheticFallback(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, logging.NoopLogger{})

	u, err := svc.Login(Profile{})
	if err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}

	if u.TelegramID != SyntheticUserID {
		t.Errorf("Expected synthetic id %d, got %d", SyntheticUserID, u.TelegramID)
	}
	if u.FirstName != "Guest" {
		t.Errorf("Expected Guest name for the synthetic user, got %q", u.FirstName)
	}
}

func TestLoginPropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&fakeStore{upsertErr: boom}, logging.NoopLogger{})

	if _, err := svc.Login(Profile{ID: 1, FirstName: "A"}); !errors.Is(err, boom) {
		t.Errorf("Expected the store error to propagate, got %v", err)
	}
}
