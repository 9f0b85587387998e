package types

type User struct {
	ID          string `json:"id,omitempty"` // <-- omitempty is critical, the store assigns it
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	IsActive    bool   `json:"is_active"`
}
