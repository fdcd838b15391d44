package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// flakyUserStore fails the email lookup while everything else hits the real
// store.
type flakyUserStore struct {
	store.UserRepository
	lookupErr error
}

func (f *flakyUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.UserRepository.GetUserByEmail(ctx, email)
}

func postJSON(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	s := newTestStore(t)
	h := NewUsersHandler(s, zerolog.Nop())

	body := `{"email": "ravi@example.com", "name": "Ravi"}`
	if rec := postJSON(h.Register, "/api/users", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register = %d, want 201", rec.Code)
	}
	if rec := postJSON(h.Register, "/api/users", body); rec.Code != http.StatusConflict {
		t.Errorf("second register = %d, want 409", rec.Code)
	}
}

func TestRegister_EmailLookupFailureIsServerError(t *testing.T) {
	s := newTestStore(t)
	h := NewUsersHandler(&flakyUserStore{UserRepository: s, lookupErr: errors.New("connection lost")}, zerolog.Nop())

	rec := postJSON(h.Register, "/api/users", `{"email": "ravi@example.com", "name": "Ravi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("register with failing email lookup = %d, want 500", rec.Code)
	}

	// The insert must not run when the duplicate check could not.
	u, err := s.GetUserByEmail(context.Background(), "ravi@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if u != nil {
		t.Error("user was written despite the failed duplicate check")
	}
}
