package userdb

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pam"
	"gopkg.in/yaml.v3"
)

var userNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]*[$]?$`)

// User is one account of the simulated backend.
type User struct {
	Name            string   `yaml:"name"`
	PasswordHash    string   `yaml:"password_hash"`
	UID             string   `yaml:"uid"`
	GID             string   `yaml:"gid"`
	Home            string   `yaml:"home"`
	Shell           string   `yaml:"shell"`
	Expired         bool     `yaml:"expired"`
	PasswordExpired bool     `yaml:"password_expired"`
	DenySession     bool     `yaml:"deny_session"`
	DenyCredentials bool     `yaml:"deny_credentials"`
	DenyEnv         []string `yaml:"deny_env"`
}

// Validate checks the record is usable for authentication and sessions.
func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.Required, validation.Length(1, 32), validation.Match(userNamePattern)),
		validation.Field(&u.PasswordHash, validation.Required),
		validation.Field(&u.Home, validation.Required),
		validation.Field(&u.Shell, validation.Required),
	)
}

func (u User) deniesEnv(key string) bool {
	for _, k := range u.DenyEnv {
		if k == key {
			return true
		}
	}
	return false
}

// File is the on-disk layout of a users file.
type File struct {
	// Banner is sent as an informational message before prompting.
	Banner string `yaml:"banner"`
	// Services restricts which service names may start a context.
	// Empty means any service.
	Services []string `yaml:"services"`
	Users    []User   `yaml:"users"`
}

// Store holds the accounts known to the simulated backend.
type Store struct {
	banner   string
	services map[string]struct{}
	users    map[string]User
}

// NewStore validates users and indexes them by name.
func NewStore(users ...User) (*Store, error) {
	return newStore(File{Users: users})
}

// Parse reads a YAML users file.
func Parse(data []byte) (*Store, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse users file")
	}
	return newStore(f)
}

// Load reads the YAML users file at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "unable to read users file").
			WithMetadata(map[string]any{"path": path})
	}
	return Parse(data)
}

func newStore(f File) (*Store, error) {
	s := &Store{
		banner:   f.Banner,
		services: map[string]struct{}{},
		users:    make(map[string]User, len(f.Users)),
	}

	for _, svc := range f.Services {
		s.services[svc] = struct{}{}
	}

	for i, u := range f.Users {
		if err := u.Validate(); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user record").
				WithMetadata(map[string]any{"index": i, "name": u.Name})
		}
		if _, dup := s.users[u.Name]; dup {
			return nil, goerrors.New(fmt.Sprintf("duplicate user %q", u.Name), goerrors.CategoryConflict).
				WithTextCode("DUPLICATE_USER")
		}
		s.users[u.Name] = u
	}

	return s, nil
}

// Lookup returns the user named name.
func (s *Store) Lookup(name string) (User, bool) {
	u, ok := s.users[name]
	return u, ok
}

// Names lists the known users in order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupAccount implements pam.IdentityDB.
func (s *Store) LookupAccount(name string) (*pam.Account, error) {
	u, ok := s.users[name]
	if !ok {
		return nil, goerrors.New(fmt.Sprintf("user %q not found", name), goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}
	return &pam.Account{
		Name:    u.Name,
		UID:     u.UID,
		GID:     u.GID,
		HomeDir: u.Home,
		Shell:   u.Shell,
	}, nil
}

func (s *Store) allowsService(service string) bool {
	if len(s.services) == 0 {
		return true
	}
	_, ok := s.services[service]
	return ok
}
