package model

// ErrorResponse - body of every non-2xx JSON reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse - acknowledgement for writes that return no resource
type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// ServiceInfo - what GET / reports when no UI is served
type ServiceInfo struct {
	Service     string `json:"service"`
	Timezone    string `json:"timezone"`
	AuthEnabled bool   `json:"authEnabled"`
}
