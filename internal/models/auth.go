package models

// RegisterAccountRequest creates an account before onboarding. Enum fields
// carry the remote vocabulary.
type RegisterAccountRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	Age           int     `json:"age"`
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	Gender        string  `json:"gender"`
	Goal          string  `json:"goal"`
	ActivityLevel string  `json:"activity_level"`
	Country       string  `json:"country"`
	Region        string  `json:"region"`
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreatedResponse is returned by endpoints that create a record.
type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}
