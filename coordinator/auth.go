package coordinator

import (
	"errors"
	"strings"

	"clementus360/activity-agent/config"
	"clementus360/activity-agent/supabase"
	"clementus360/activity-agent/types"
)

// Login finds the user by email and adopts them as the session user. A
// missing user is created on the spot; Login is deliberately an upsert while
// SignIn is not.
func (c *Coordinator) Login(email, phone string) types.AuthResponse {
	if strings.TrimSpace(email) == "" {
		return types.AuthResponse{Success: false, Error: "email is required"}
	}

	user, err := supabase.FindUserByEmail(c.client, email)
	if err != nil {
		config.Logger.Error("Login user lookup failed:", err)
		return types.AuthResponse{Success: false, Error: "failed to check user"}
	}

	if user != nil {
		refreshed, err := supabase.SetUserActive(c.client, user.ID)
		if err != nil {
			// Non-fatal: log in with the stale record.
			config.Logger.Warn("Failed to refresh user status:", err)
			refreshed = *user
		}
		c.adoptUser(refreshed)
		return types.AuthResponse{Success: true, User: &refreshed}
	}

	created, err := supabase.CreateUser(c.client, email, phone)
	if err != nil {
		if errors.Is(err, supabase.ErrDuplicateUser) {
			return types.AuthResponse{Success: false, Error: "an account with these details already exists"}
		}
		config.Logger.Error("Login user create failed:", err)
		return types.AuthResponse{Success: false, Error: "failed to create user account"}
	}

	c.adoptUser(created)
	return types.AuthResponse{Success: true, User: &created}
}

// SignIn resolves the identifier as an email when it contains '@', otherwise
// as a phone number. Unlike Login, a missing user is a failure, never a
// create.
func (c *Coordinator) SignIn(identifier string) types.AuthResponse {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return types.AuthResponse{Success: false, Error: "identifier is required"}
	}

	var (
		user *types.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = supabase.FindUserByEmail(c.client, identifier)
	} else {
		user, err = supabase.FindUserByPhone(c.client, identifier)
	}
	if err != nil {
		config.Logger.Error("SignIn user lookup failed:", err)
		return types.AuthResponse{Success: false, Error: "failed to check user"}
	}

	if user == nil {
		return types.AuthResponse{Success: false, Error: "no account found, please sign up first"}
	}

	refreshed, err := supabase.SetUserActive(c.client, user.ID)
	if err != nil {
		config.Logger.Warn("Failed to refresh user status:", err)
		refreshed = *user
	}
	c.adoptUser(refreshed)
	return types.AuthResponse{Success: true, User: &refreshed}
}

// SignUp pre-checks email and phone uniqueness separately so the caller gets
// a field-specific reason. The pre-check and the create are separate round
// trips: a concurrent sign-up can pass both checks, so the create itself is
// duplicate-aware and the loser fails instead of duplicating.
func (c *Coordinator) SignUp(email, phone string) types.AuthResponse {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" || phone == "" {
		return types.AuthResponse{Success: false, Error: "email and phone number are required"}
	}

	existing, err := supabase.FindUserByEmail(c.client, email)
	if err != nil {
		config.Logger.Error("SignUp email check failed:", err)
		return types.AuthResponse{Success: false, Error: "failed to check user"}
	}
	if existing != nil {
		return types.AuthResponse{Success: false, Error: "an account with this email already exists"}
	}

	existing, err = supabase.FindUserByPhone(c.client, phone)
	if err != nil {
		config.Logger.Error("SignUp phone check failed:", err)
		return types.AuthResponse{Success: false, Error: "failed to check user"}
	}
	if existing != nil {
		return types.AuthResponse{Success: false, Error: "an account with this phone number already exists"}
	}

	created, err := supabase.CreateUser(c.client, email, phone)
	if err != nil {
		if errors.Is(err, supabase.ErrDuplicateUser) {
			return types.AuthResponse{Success: false, Error: "an account with these details already exists"}
		}
		config.Logger.Error("SignUp user create failed:", err)
		return types.AuthResponse{Success: false, Error: "failed to create user account"}
	}

	c.adoptUser(created)
	return types.AuthResponse{Success: true, User: &created}
}

// UpdateUser patches the session user's contact fields and refreshes the
// cached copy.
func (c *Coordinator) UpdateUser(email, phone string) types.AuthResponse {
	current := c.CurrentUser()
	if current == nil {
		return types.AuthResponse{Success: false, Error: "no user logged in"}
	}

	updates := map[string]interface{}{}
	if strings.TrimSpace(email) != "" {
		updates["email"] = strings.TrimSpace(email)
	}
	if strings.TrimSpace(phone) != "" {
		updates["phone_number"] = strings.TrimSpace(phone)
	}
	if len(updates) == 0 {
		return types.AuthResponse{Success: false, Error: "nothing to update"}
	}

	updated, err := supabase.PatchUser(c.client, current.ID, updates)
	if err != nil {
		if errors.Is(err, supabase.ErrDuplicateUser) {
			return types.AuthResponse{Success: false, Error: "an account with these details already exists"}
		}
		config.Logger.Error("Failed to update user:", err)
		return types.AuthResponse{Success: false, Error: "failed to update user"}
	}

	c.adoptUser(updated)
	return types.AuthResponse{Success: true, User: &updated}
}
