package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clementus360/activity-agent/types"

	"github.com/supabase-community/supabase-go"
)

// ErrDuplicateUser maps the store's unique-constraint violation. Two sign-ups
// racing between the uniqueness pre-check and the create can both reach the
// create call; the store rejects the loser and we surface it as this error
// instead of silently duplicating the account.
var ErrDuplicateUser = errors.New("user already exists")

// FindUserByEmail returns nil when no user matches.
func FindUserByEmail(client *supabase.Client, email string) (*types.User, error) {
	return findUser(client, "email", email)
}

// FindUserByPhone returns nil when no user matches.
func FindUserByPhone(client *supabase.Client, phone string) (*types.User, error) {
	return findUser(client, "phone_number", phone)
}

func findUser(client *supabase.Client, column, value string) (*types.User, error) {
	resp, _, err := client.From("users").
		Select("*", "", false).
		Eq(column, value).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	var users []types.User
	if err := json.Unmarshal(resp, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func CreateUser(client *supabase.Client, email, phone string) (types.User, error) {
	newUser := types.User{
		Email:       email,
		PhoneNumber: phone,
		IsActive:    true,
	}

	created := []types.User{newUser}

	resp, _, err := client.From("users").Insert(created, false, "", "representation", "").Execute()
	if err != nil {
		if isDuplicateErr(err) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	if err := json.Unmarshal(resp, &created); err != nil {
		return types.User{}, fmt.Errorf("failed to parse created user: %w", err)
	}
	if len(created) == 0 {
		return types.User{}, fmt.Errorf("create returned no user")
	}
	return created[0], nil
}

// PatchUser applies a partial update by id and returns the patched record.
func PatchUser(client *supabase.Client, userID string, updates map[string]interface{}) (types.User, error) {
	resp, _, err := client.From("users").
		Update(updates, "representation", "").
		Eq("id", userID).
		Execute()

	if err != nil {
		if isDuplicateErr(err) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	var updated []types.User
	if err := json.Unmarshal(resp, &updated); err != nil {
		return types.User{}, fmt.Errorf("failed to parse update result: %w", err)
	}
	if len(updated) == 0 {
		return types.User{}, fmt.Errorf("no user found or updated")
	}
	return updated[0], nil
}

// SetUserActive refreshes is_active on login/sign-in.
func SetUserActive(client *supabase.Client, userID string) (types.User, error) {
	return PatchUser(client, userID, map[string]interface{}{"is_active": true})
}

func listUsers(client *supabase.Client) ([]types.User, error) {
	resp, _, err := client.From("users").
		Select("*", "", false).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []types.User
	if err := json.Unmarshal(resp, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	return users, nil
}

// PostgREST reports unique violations as Postgres error 23505.
func isDuplicateErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(strings.ToLower(msg), "duplicate")
}
