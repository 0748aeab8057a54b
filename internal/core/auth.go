package core

import (
	"context"
	"errors"
	"strings"
)

// Super-admin bootstrap credentials. The account exists outside the dataset
// so a fresh device can always be configured, even before the first import.
const (
	superAdminUser     = "Xelar"
	superAdminPassword = "Xelar137$kN"
	superAdminDisplay  = "Administrateur Xelar"
)

// LoginMode selects which account collections a login attempt is resolved
// against.
type LoginMode string

const (
	// ModeAdminParent resolves against parent accounts (after the super-admin
	// check).
	ModeAdminParent LoginMode = "admin_parent"
	// ModeStaff resolves against staff accounts of a named school.
	ModeStaff LoginMode = "staff"
)

// Credentials carries one login attempt. SchoolName is only consulted in
// staff mode.
type Credentials struct {
	UserName   string
	Password   string
	SchoolName string
	Mode       LoginMode
}

var (
	// ErrEmptyDatabase means no school exists on this device yet; the caller
	// should prompt for a snapshot import.
	ErrEmptyDatabase = errors.New("no data on this device, import a snapshot first")
	// ErrSchoolNotFound means the named school does not exist on this device.
	ErrSchoolNotFound = errors.New("school not found on this device")
	// ErrInvalidCredentials is deliberately generic: it never reveals whether
	// the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Login resolves credentials to a session and persists it as the device's
// current session. Resolution order: super-admin bypass first (available even
// on an empty dataset), then the empty-database guard, then the mode's
// account collection. Duplicate usernames resolve to the first match in
// stored order.
func (s *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	var session Session
	_, err := s.instrument(ctx, "login", "", func(ctx context.Context) (string, Result, error) {
		resolved, err := s.resolveSession(creds)
		if err != nil {
			return "", Result{}, err
		}
		s.store.SetSession(resolved)
		session = resolved
		return "", Result{}, nil
	})
	return session, err
}

func (s *Service) resolveSession(creds Credentials) (Session, error) {
	name := strings.TrimSpace(creds.UserName)

	if name == superAdminUser && creds.Password == superAdminPassword {
		return Session{Role: RoleAdmin, UserName: superAdminDisplay}, nil
	}

	if len(s.store.ListSchools()) == 0 {
		return Session{}, ErrEmptyDatabase
	}

	switch creds.Mode {
	case ModeStaff:
		school, ok := s.findSchoolByName(creds.SchoolName)
		if !ok {
			return Session{}, ErrSchoolNotFound
		}
		for _, account := range s.store.ListStaff() {
			if account.UserName == name && account.Password == creds.Password && account.SchoolID == school.ID {
				return Session{Role: RoleStaff, UserName: account.UserName, SchoolID: school.ID}, nil
			}
		}
	default:
		for _, account := range s.store.ListParentAccounts() {
			if account.UserName == name && account.Password == creds.Password {
				return Session{Role: RoleParent, UserName: account.UserName, ParentID: account.ID}, nil
			}
		}
	}
	return Session{}, ErrInvalidCredentials
}

// findSchoolByName matches trimmed, lowercased names exactly. No fuzzy
// matching: staff must type the school name as registered.
func (s *Service) findSchoolByName(name string) (School, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, school := range s.store.ListSchools() {
		if strings.ToLower(strings.TrimSpace(school.Name)) == want {
			return school, true
		}
	}
	return School{}, false
}

// Logout replaces the current session with the guest session.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.instrument(ctx, "logout", "", func(ctx context.Context) (string, Result, error) {
		s.store.SetSession(GuestSession())
		return "", Result{}, nil
	})
	return err
}

// CurrentSession returns the device's persisted session.
func (s *Service) CurrentSession() Session { return s.store.Session() }
