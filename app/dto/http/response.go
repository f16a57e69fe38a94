package http

type MessageResponse struct {
	Message string `json:"message"`
}

type OwnershipResponse struct {
	Owner bool `json:"owner"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
