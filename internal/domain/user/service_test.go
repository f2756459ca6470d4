package user

import (
	"context"
	"errors"
	"sort"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[int64]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	user.ID = int64(len(r.users) + 1)
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]User, error) {
	result := make([]User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	service := NewService(newFakeUserRepo()).WithCost(bcrypt.MinCost)
	ctx := context.Background()

	created, err := service.CreateUser(ctx, CreateUserInput{Username: " chef ", Email: "chef@example.com", Password: "secret", IsStaff: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Username != "chef" || created.PasswordHash == "secret" {
		t.Fatalf("unexpected user %+v", created)
	}

	user, err := service.Authenticate(ctx, "chef", "secret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !user.IsStaff {
		t.Fatalf("expected staff flag to persist")
	}

	if _, err := service.Authenticate(ctx, "chef", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "ghost", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	service := NewService(newFakeUserRepo()).WithCost(bcrypt.MinCost)
	ctx := context.Background()

	if _, err := service.CreateUser(ctx, CreateUserInput{Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := service.CreateUser(ctx, CreateUserInput{Username: "a", Password: "x", Email: "nope"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := service.CreateUser(ctx, CreateUserInput{Username: "a", Password: "x"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := service.CreateUser(ctx, CreateUserInput{Username: "a", Password: "y"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}
