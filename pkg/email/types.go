package email

// Status is the delivery outcome recorded against a message.
type Status string

const (
	StatusSent       Status = "sent"
	StatusQueued     Status = "queued"
	StatusFailed     Status = "failed"
	StatusSuppressed Status = "suppressed"
	StatusPending    Status = "pending"
)

// Attachment is a file to send with a message. Either Path or Content is
// set; the gateway normalizes Path inputs into Content before dispatch.
type Attachment struct {
	Filename    string
	ContentType string
	Path        string
	Content     []byte
}

type Message struct {
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
	Headers     map[string]string
}

// Result reports what happened to a dispatched message.
type Result struct {
	Status            Status
	Provider          string
	ProviderMessageID string
	ErrorMessage      string
	Simulated         bool
}
