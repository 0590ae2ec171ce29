package transport

import "encoding/json"

// StatusResponse is the stable wire shape of every auth outcome, success or
// failure alike.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProfileResponse carries the non-secret subset of a user.
type ProfileResponse struct {
	Name string `json:"name"`
}

// NewStatus builds a StatusResponse.
func NewStatus(success bool, message string) StatusResponse {
	return StatusResponse{Success: success, Message: message}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (r StatusResponse) String() string {
	out, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(out)
}
