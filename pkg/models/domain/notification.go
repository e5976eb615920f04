package domain

// Notification is one rendered owner message.
type Notification struct {
	Owner     string
	Recipient string
	Subject   string
	Body      string
}

type DeliveryResult struct {
	Notification
	Success   bool
	MessageID string
	Error     string
}
