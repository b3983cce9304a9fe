package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"talentgate/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmail       = errors.New("email is malformed")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	// BootstrapCompanyID is the company assigned to the first admin account
	// created on an empty store.
	BootstrapCompanyID = "default"
	// BootstrapAdminEmail is the login of the bootstrap admin account.
	BootstrapAdminEmail = "admin@talentgate.local"
)

// Service manages persistence of employee accounts.
type Service struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]models.Account
}

// NewService creates an accounts service storing data inside the provided
// directory. On an empty store a bootstrap admin account is created with a
// random generated password, logged once so the operator can log in.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "accounts.json"),
		accounts: make(map[string]models.Account),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	if err := svc.ensureBootstrapAdmin(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns a company's accounts sorted by creation time, admins first.
func (s *Service) List(companyID string) []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, 0)
	for _, a := range s.accounts {
		if a.CompanyID == companyID {
			accounts = append(accounts, a)
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].IsAdmin != accounts[j].IsAdmin {
			return accounts[i].IsAdmin
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts
}

// Get returns the account with the given ID if present.
func (s *Service) Get(id string) (models.Account, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	return account, ok
}

// GetByEmail returns the account with the given email if present.
func (s *Service) GetByEmail(email string) (models.Account, bool) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return models.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return models.Account{}, false
}

// Create registers a new employee account in the given company.
func (s *Service) Create(companyID, email, name, plainPassword string, isAdmin bool) (models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.Account{}, ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return models.Account{}, ErrInvalidEmail
	}
	email = strings.ToLower(addr.Address)

	if strings.TrimSpace(plainPassword) == "" {
		return models.Account{}, ErrPasswordRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == email {
			return models.Account{}, ErrEmailExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := models.Account{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.accounts[account.ID] = account

	if err := s.saveLocked(); err != nil {
		delete(s.accounts, account.ID)
		return models.Account{}, err
	}

	return account, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (s *Service) Authenticate(email, plainPassword string) (models.Account, error) {
	account, ok := s.GetByEmail(email)
	if !ok {
		// Burn a bcrypt comparison anyway to prevent timing attacks.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummydummydummydummydummydummydummydummydummydummydum"), []byte(plainPassword))
		return models.Account{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(plainPassword)); err != nil {
		return models.Account{}, ErrInvalidCredentials
	}

	return account, nil
}

// ensureBootstrapAdmin creates the first admin account on an empty store.
func (s *Service) ensureBootstrapAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accounts) > 0 {
		return nil
	}

	initial, err := password.Generate(20, 4, 0, false, false)
	if err != nil {
		return fmt.Errorf("generate bootstrap password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(initial), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	now := time.Now().UTC()
	account := models.Account{
		ID:           uuid.NewString(),
		CompanyID:    BootstrapCompanyID,
		Email:        BootstrapAdminEmail,
		Name:         "Administrator",
		PasswordHash: string(hash),
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.accounts[account.ID] = account
	if err := s.saveLocked(); err != nil {
		delete(s.accounts, account.ID)
		return err
	}

	log.Printf("accounts: created bootstrap admin %s with password %s (change it after first login)", account.Email, initial)
	return nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	var stored []models.AccountStorage
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	s.accounts = make(map[string]models.Account, len(stored))
	for _, a := range stored {
		if strings.TrimSpace(a.ID) == "" {
			continue
		}
		s.accounts[a.ID] = a.ToAccount()
	}

	return nil
}

func (s *Service) saveLocked() error {
	accounts := make([]models.AccountStorage, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a.ToStorage())
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create accounts temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode accounts: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync accounts: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close accounts temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	return nil
}
