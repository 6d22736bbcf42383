package registration

import "time"

// Status tracks the payment lifecycle of a registration row.
type Status string

const (
	// StatusPending is the initial state of every registration.
	StatusPending Status = "pending"
	// StatusCompleted is reachable only through a signature-verified transition.
	StatusCompleted Status = "completed"
	// StatusFailed records a dismissed or abandoned checkout.
	StatusFailed Status = "failed"
)

// Registration is one registration attempt for the symposium.
type Registration struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	College           string     `json:"college"`
	Year              string     `json:"year"`
	EventID           string     `json:"eventId"`
	EventName         string     `json:"event"`
	Amount            int64      `json:"amount"`
	TransactionID     string     `json:"transactionId"`
	RazorpayOrderID   string     `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string     `json:"razorpayPaymentId,omitempty"`
	Status            Status     `json:"paymentStatus"`
	AttendanceMarked  bool       `json:"attendanceMarked"`
	AttendanceAt      *time.Time `json:"attendanceMarkedAt,omitempty"`
	CreatedAt         time.Time  `json:"registeredAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CreateInput captures the fields supplied by the registration form.
type CreateInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=20"`
	College   string `json:"college" validate:"required,max=200"`
	Year      string `json:"year" validate:"required,max=40"`
	EventID   string `json:"eventId" validate:"required,max=80"`
	EventName string `json:"event" validate:"required,max=160"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

// Filter narrows List results.
type Filter struct {
	EventID string
	Status  Status
	Limit   int
	Offset  int
}
