package transport

// CredentialsRequest is the body of both sign-in and sign-up.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
