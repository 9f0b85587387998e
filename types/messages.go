package types

// Message is the closed set of requests carried by the bus. Each variant maps
// to one wire type string; the coordinator switches exhaustively over the
// variants instead of dispatching on the string.
type Message interface {
	MessageType() string
}

type GetUser struct{}

type Login struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type SignIn struct {
	Identifier string `json:"identifier"` // email when it contains '@', phone otherwise
}

type SignUp struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type UpdateUser struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Logout struct{}

type ToggleTracking struct {
	Enabled bool `json:"enabled"`
}

type GetTrackingStatus struct{}

type TrackActivity struct {
	Event Event `json:"data"`
}

// TrackingStatusChanged is broadcast to every capture context after a toggle.
type TrackingStatusChanged struct {
	Enabled bool `json:"enabled"`
}

func (GetUser) MessageType() string               { return "GET_USER" }
func (Login) MessageType() string                 { return "LOGIN" }
func (SignIn) MessageType() string                { return "SIGNIN" }
func (SignUp) MessageType() string                { return "SIGNUP" }
func (UpdateUser) MessageType() string            { return "UPDATE_USER" }
func (Logout) MessageType() string                { return "LOGOUT" }
func (ToggleTracking) MessageType() string        { return "TOGGLE_TRACKING" }
func (GetTrackingStatus) MessageType() string     { return "GET_TRACKING_STATUS" }
func (TrackActivity) MessageType() string         { return "TRACK_ACTIVITY" }
func (TrackingStatusChanged) MessageType() string { return "TRACKING_STATUS_CHANGED" }

// Response is the set of reply payloads. At most one response is delivered
// per request.
type Response interface {
	isResponse()
}

type AuthResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"` // only set on failure
}

type AckResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type UserResponse struct {
	User *User `json:"user"`
}

type StatusResponse struct {
	Enabled bool `json:"enabled"`
}

func (AuthResponse) isResponse()   {}
func (AckResponse) isResponse()    {}
func (UserResponse) isResponse()   {}
func (StatusResponse) isResponse() {}
