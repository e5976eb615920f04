package api

type SMTPConfig struct {
	Host      string `json:"smtpHost"`
	Port      int    `json:"smtpPort"`
	User      string `json:"smtpUser"`
	Password  string `json:"smtpPass"`
	From      string `json:"from,omitempty"`
	TestEmail string `json:"testEmail,omitempty"`
}

type NotificationRequest struct {
	SelectedOwners []string       `json:"selectedOwners"`
	Owners         []OwnerSummary `json:"ownersData"`
	SMTP           *SMTPConfig    `json:"smtp,omitempty"`
}

type NotificationResult struct {
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type NotificationResponse struct {
	Success bool                 `json:"success"`
	Sent    int                  `json:"sent"`
	Total   int                  `json:"total"`
	Results []NotificationResult `json:"results"`
	Errors  []string             `json:"errors"`
}
