package dto

// Envelope wraps every authenticated API response.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Ack is returned to the payment gateway for every callback.
type Ack struct {
	Status string `json:"status"`
}
