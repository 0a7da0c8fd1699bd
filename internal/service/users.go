package service

import (
	"strings"
	"sync"
	"time"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRecord is the stored form of a user. Directory hands out copies.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	Role         constraints.Role
	Bio          string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u UserRecord) View() v1.User {
	return v1.User{
		ID:        &u.ID,
		Name:      &u.Name,
		Email:     &u.Email,
		Role:      &u.Role,
		Bio:       &u.Bio,
		CreatedAt: &u.CreatedAt,
		UpdatedAt: &u.UpdatedAt,
	}
}

func (u UserRecord) Minimal() v1.UserMinimal {
	return v1.UserMinimal{ID: &u.ID, Name: &u.Name, Role: &u.Role, Bio: &u.Bio}
}

// Directory is the in-memory user table.
type Directory struct {
	mu      sync.RWMutex
	now     func() time.Time
	cost    int
	byID    map[string]*UserRecord
	byEmail map[string]string
}

// NewDirectory hashes passwords with the given bcrypt cost; 0 means
// bcrypt.DefaultCost.
func NewDirectory(now func() time.Time, cost int) *Directory {
	if now == nil {
		now = time.Now
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Directory{
		now:     now,
		cost:    cost,
		byID:    make(map[string]*UserRecord),
		byEmail: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *Directory) Create(name, email, password string, role constraints.Role) (UserRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return UserRecord{}, err
	}
	email = normalizeEmail(email)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.byEmail[email]; taken {
		return UserRecord{}, ErrEmailAlreadyRegistered
	}
	now := d.now()
	u := &UserRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.byID[u.ID] = u
	d.byEmail[email] = u.ID
	return *u, nil
}

func (d *Directory) Authenticate(email, password string) (UserRecord, error) {
	u, ok := d.ByEmail(email)
	if !ok {
		return UserRecord{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return UserRecord{}, ErrInvalidCredentials
	}
	return u, nil
}

func (d *Directory) Get(id string) (UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return *u, nil
}

func (d *Directory) ByEmail(email string) (UserRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[normalizeEmail(email)]
	if !ok {
		return UserRecord{}, false
	}
	return *d.byID[id], true
}

func (d *Directory) SetPassword(id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = d.now()
	return nil
}

func (d *Directory) UpdateProfile(id string, req v1.UpdateUserProfileRequest) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	u.UpdatedAt = d.now()
	return *u, nil
}

func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(d.byEmail, u.Email)
	delete(d.byID, id)
	return nil
}
