package user

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"ProductHub/internal/storage"
)

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrProtected     = errors.New("user is protected")
)

// dummyHash is compared against when no username matches, so a failed
// login costs one bcrypt comparison whether or not the user exists.
var dummyHash = mustHash("not-a-real-password")

// Store performs user CRUD over one collection, enforcing username
// uniqueness and the protected admin account. The mutex serializes
// same-process read-modify-write cycles.
type Store struct {
	mu  sync.Mutex
	col storage.Collection[User]

	// FoldUsernames switches username matching to case-insensitive.
	// Exact matching is the default contract.
	FoldUsernames bool
}

func NewStore(col storage.Collection[User]) *Store {
	return &Store{col: col}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.col.Ping(ctx)
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	return s.col.Load(ctx)
}

func (s *Store) GetByID(ctx context.Context, id string) (User, bool, error) {
	return storage.FindByID(ctx, s.col, id)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (User, bool, error) {
	return storage.Find(ctx, s.col, func(u User) bool {
		return s.usernameEq(u.Username, username)
	})
}

// Create rejects a duplicate username before anything is written.
func (s *Store) Create(ctx context.Context, in CreateInput) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.col.Load(ctx)
	if err != nil {
		return User{}, err
	}

	for _, u := range users {
		if s.usernameEq(u.Username, in.Username) {
			return User{}, ErrUsernameTaken
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:        storage.NewID(),
		Name:      in.Name,
		Username:  in.Username,
		Password:  hash,
		Role:      in.Role,
		Active:    in.Active,
		CreatedAt: storage.Now(),
	}

	if err := s.col.Save(ctx, append(users, u)); err != nil {
		return User{}, err
	}
	return u, nil
}

// Update merges the given fields over the existing record. A username
// change is checked against every other record before writing.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.col.Load(ctx)
	if err != nil {
		return User{}, err
	}

	idx := indexByID(users, id)
	if idx < 0 {
		return User{}, storage.ErrNotFound
	}

	if in.Username != nil {
		for _, u := range users {
			if u.ID != id && s.usernameEq(u.Username, *in.Username) {
				return User{}, ErrUsernameTaken
			}
		}
		users[idx].Username = *in.Username
	}
	if in.Name != nil {
		users[idx].Name = *in.Name
	}
	if in.Role != nil {
		users[idx].Role = *in.Role
	}
	if in.Active != nil {
		users[idx].Active = *in.Active
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return User{}, err
		}
		users[idx].Password = hash
	}

	if err := s.col.Save(ctx, users); err != nil {
		return User{}, err
	}
	return users[idx], nil
}

// Delete refuses to remove the protected admin account, for every
// caller.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.col.Load(ctx)
	if err != nil {
		return err
	}

	idx := indexByID(users, id)
	if idx < 0 {
		return storage.ErrNotFound
	}
	if users[idx].protected() {
		return ErrProtected
	}

	return s.col.Save(ctx, append(users[:idx:idx], users[idx+1:]...))
}

// SetPassword keys on username, not id, and replaces only the stored
// hash.
func (s *Store) SetPassword(ctx context.Context, username, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.col.Load(ctx)
	if err != nil {
		return err
	}

	for i := range users {
		if !s.usernameEq(users[i].Username, username) {
			continue
		}

		hash, err := hashPassword(newPassword)
		if err != nil {
			return err
		}
		users[i].Password = hash

		return s.col.Save(ctx, users)
	}
	return storage.ErrNotFound
}

// ToggleActive flips the active flag; forbidden on the admin account,
// same rule as Delete.
func (s *Store) ToggleActive(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.col.Load(ctx)
	if err != nil {
		return User{}, err
	}

	idx := indexByID(users, id)
	if idx < 0 {
		return User{}, storage.ErrNotFound
	}
	if users[idx].protected() {
		return User{}, ErrProtected
	}

	users[idx].Active = !users[idx].Active

	if err := s.col.Save(ctx, users); err != nil {
		return User{}, err
	}
	return users[idx], nil
}

// VerifyCredentials checks a username/password pair in one pass over
// the whole collection and stamps lastLogin on success. It always runs
// exactly one bcrypt comparison, so a missing username and a wrong
// password cost the same. A failed check is a normal negative result,
// not an error.
func (s *Store) VerifyCredentials(ctx context.Context, username, password string) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.col.Load(ctx)
	if err != nil {
		return User{}, false, err
	}

	idx := -1
	for i := range users {
		if s.usernameEq(users[i].Username, username) && users[i].Active {
			idx = i
			break
		}
	}

	hash := dummyHash
	if idx >= 0 {
		hash = users[idx].Password
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil || idx < 0 {
		return User{}, false, nil
	}

	now := storage.Now()
	users[idx].LastLogin = &now

	if err := s.col.Save(ctx, users); err != nil {
		return User{}, false, err
	}
	return users[idx], true, nil
}

func (s *Store) usernameEq(a, b string) bool {
	if s.FoldUsernames {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func indexByID(users []User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}
