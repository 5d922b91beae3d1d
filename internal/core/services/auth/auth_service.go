package auth

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/ssh"
)

var (
	ErrRateLimitExceeded = errors.New("too many authentication failures")
	ErrNoAuthorizedKeys  = errors.New("no authorized keys")
)

// MaxLoginAttempts is how many wrong passwords a host account tolerates
// before refusing further attempts.
const MaxLoginAttempts = 5

// AuthService manages the accounts of simulated hosts and checks SSH logins
// against them.
type AuthService struct {
	loginAttempts map[string]int
	mu            sync.RWMutex
	cost          int
}

// NewAuthService creates a service hashing with the cheapest bcrypt cost;
// world construction hashes many accounts and none of them guard anything real.
func NewAuthService() *AuthService {
	return &AuthService{
		loginAttempts: make(map[string]int),
		cost:          bcrypt.MinCost,
	}
}

// HomeDir returns the home directory of a user on a host.
func HomeDir(user string) string {
	if user == "root" {
		return "/root"
	}
	return "/home/" + user
}

// SetPassword creates or updates an account and rewrites /etc/shadow.
func (s *AuthService) SetPassword(host *domain.Host, user, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	host.Accounts[user] = string(hash)
	return writeShadow(host)
}

func writeShadow(host *domain.Host) error {
	users := make([]string, 0, len(host.Accounts))
	for u := range host.Accounts {
		users = append(users, u)
	}
	sort.Strings(users)

	var b strings.Builder
	for _, u := range users {
		fmt.Fprintf(&b, "%s:%s:19000:0:99999:7:::\n", u, host.Accounts[u])
	}
	_, err := host.FS.WriteFile("/etc/shadow", b.String())
	return err
}

// Login checks a password login on host.
func (s *AuthService) Login(host *domain.Host, user, password string) error {
	key := attemptKey(host, user)
	if err := s.checkRateLimit(key); err != nil {
		return err
	}

	hash, ok := host.Accounts[user]
	if !ok {
		s.incrementAttempts(key)
		return domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.incrementAttempts(key)
		return domain.ErrInvalidCredentials
	}

	s.resetAttempts(key)
	return nil
}

// LoginWithKey accepts a private key whose public half is listed in the
// user's authorized_keys on host.
func (s *AuthService) LoginWithKey(host *domain.Host, user, privateKeyPEM string) error {
	signer, err := ssh.ParsePrivateKey([]byte(privateKeyPEM))
	if err != nil {
		return fmt.Errorf("%w: unreadable private key", domain.ErrInvalidCredentials)
	}
	authorized, err := s.AuthorizedKeys(host, user)
	if err != nil {
		return err
	}
	want := signer.PublicKey().Marshal()
	for _, k := range authorized {
		if bytes.Equal(k.Marshal(), want) {
			return nil
		}
	}
	return domain.ErrInvalidCredentials
}

// AuthorizedKeys parses the user's authorized_keys file on host.
func (s *AuthService) AuthorizedKeys(host *domain.Host, user string) ([]ssh.PublicKey, error) {
	content, err := host.FS.ReadFile(authorizedKeysPath(user))
	if err != nil {
		return nil, ErrNoAuthorizedKeys
	}
	var keys []ssh.PublicKey
	rest := []byte(content)
	for len(bytes.TrimSpace(rest)) > 0 {
		key, _, _, next, err := ssh.ParseAuthorizedKey(rest)
		if err != nil {
			break
		}
		keys = append(keys, key)
		rest = next
	}
	if len(keys) == 0 {
		return nil, ErrNoAuthorizedKeys
	}
	return keys, nil
}

// AuthorizeKey appends an authorized_keys line for user on host.
func (s *AuthService) AuthorizeKey(host *domain.Host, user, publicKeyLine string) error {
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKeyLine)); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	p := authorizedKeysPath(user)
	existing, _ := host.FS.ReadFile(p)
	if strings.Contains(existing, strings.TrimSpace(publicKeyLine)) {
		return nil
	}
	if _, err := host.FS.MkdirAll(path.Dir(p)); err != nil {
		return err
	}
	_, err := host.FS.WriteFile(p, existing+strings.TrimSpace(publicKeyLine)+"\n")
	return err
}

func authorizedKeysPath(user string) string {
	return HomeDir(user) + "/.ssh/authorized_keys"
}

func attemptKey(host *domain.Host, user string) string {
	return host.Hostname + "/" + user
}

func (s *AuthService) checkRateLimit(key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loginAttempts[key] >= MaxLoginAttempts {
		return ErrRateLimitExceeded
	}
	return nil
}

func (s *AuthService) incrementAttempts(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginAttempts[key]++
}

func (s *AuthService) resetAttempts(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loginAttempts, key)
}
