package common

// EmailSender is the contract for sending a single transactional email.
type EmailSender interface {
	Send(to, toName, subject, html string) error
}

// Email is a single message captured by InMemoryEmail.
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// InMemoryEmail records messages instead of sending them. Test helper.
type InMemoryEmail struct {
	Outbox []Email
}

// Send records the email in memory.
func (m *InMemoryEmail) Send(to, toName, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, ToName: toName, Subject: subject, HTML: html})
	return nil
}
