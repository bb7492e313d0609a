package fixtureapp

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medara-io/medara-e2e/internal/models"
)

// OnboardingSteps is the length of the onboarding wizard.
const OnboardingSteps = 3

// Account is a user known to the fixture application.
type Account struct {
	ID                 string
	Profile            models.AccountProfile
	Verified           bool
	OAuth              bool
	OnboardingProgress int
	Answers            map[int][]string
	CreatedAt          time.Time
}

// OnboardingComplete reports whether every wizard step was answered.
func (a Account) OnboardingComplete() bool {
	return a.OnboardingProgress >= OnboardingSteps
}

func (a *Account) snapshot() Account {
	out := *a
	out.Profile.Industries = append([]string(nil), a.Profile.Industries...)
	out.Answers = make(map[int][]string, len(a.Answers))
	for step, answers := range a.Answers {
		out.Answers[step] = append([]string(nil), answers...)
	}
	return out
}

// signupDraft is the partially completed signup wizard of one browser session.
type signupDraft struct {
	OAuth       bool
	AccountType models.AccountType
	PrimaryRole string
	Industries  []string
	FirstName   string
	LastName    string
	Email       string
	Verified    bool
}

type session struct {
	draft *signupDraft
	user  string
}

// store holds accounts and browser sessions in memory.
type store struct {
	mu       sync.Mutex
	accounts map[string]*Account
	sessions map[string]*session
}

func newStore() *store {
	return &store{
		accounts: make(map[string]*Account),
		sessions: make(map[string]*session),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *store) newSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()
	return id
}

// withSession runs fn with the session locked. It reports false when the id
// is unknown.
func (s *store) withSession(id string, fn func(*session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// sessionUser returns the account signed in on the session.
func (s *store) sessionUser(id string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.user == "" {
		return Account{}, false
	}
	acct, ok := s.accounts[sess.user]
	if !ok {
		return Account{}, false
	}
	return acct.snapshot(), true
}

// createAccount stores a new account. It reports false when the email is
// already registered.
func (s *store) createAccount(profile models.AccountProfile, verified, oauth bool) (Account, bool) {
	key := emailKey(profile.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[key]; exists {
		return Account{}, false
	}
	acct := &Account{
		ID:        uuid.NewString(),
		Profile:   profile,
		Verified:  verified,
		OAuth:     oauth,
		Answers:   make(map[int][]string),
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[key] = acct
	return acct.snapshot(), true
}

func (s *store) account(email string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[emailKey(email)]
	if !ok {
		return Account{}, false
	}
	return acct.snapshot(), true
}

func (s *store) exists(email string) bool {
	_, ok := s.account(email)
	return ok
}

// deleteAccount removes the account and signs it out everywhere.
func (s *store) deleteAccount(email string) bool {
	key := emailKey(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; !ok {
		return false
	}
	delete(s.accounts, key)
	for _, sess := range s.sessions {
		if sess.user == key {
			sess.user = ""
		}
	}
	return true
}

// signIn attaches the account to the session when the password matches.
func (s *store) signIn(id, email, password string) bool {
	key := emailKey(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[key]
	if !ok || acct.Profile.Password == "" || acct.Profile.Password != password {
		return false
	}
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.user = key
	return true
}

// answerStep records answers for step (1-based) if it is the account's
// current step, and returns the updated progress.
func (s *store) answerStep(email string, step int, answers []string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[emailKey(email)]
	if !ok || step != acct.OnboardingProgress+1 {
		return 0, false
	}
	acct.Answers[step] = answers
	acct.OnboardingProgress = step
	return acct.OnboardingProgress, true
}
