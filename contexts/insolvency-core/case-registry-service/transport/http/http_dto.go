package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCaseRequest struct {
	Reference string `json:"reference"`
	Stage     string `json:"stage,omitempty"`
}

type TransitionCaseRequest struct {
	ToStatus string `json:"to_status"`
}

type SetCaseStageRequest struct {
	Stage string `json:"stage"`
}

type CaseDTO struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	OpenedAt  string `json:"opened_at"`
	ClosedAt  string `json:"closed_at,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

type CreateCreditorRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
}

type UpdateCreditorRequest struct {
	Name         string `json:"name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Active       *bool  `json:"active,omitempty"`
}

type CreditorDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
