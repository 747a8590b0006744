package rtapi

import (
	"time"
)

// Booking represents a repair booking.
type Booking struct {
	Resource

	Reference    string     `json:"reference"               yaml:"reference"`
	CustomerID   string     `json:"customer_id"             yaml:"customer_id"`
	DeviceID     string     `json:"device_id"               yaml:"device_id"`
	RepairType   string     `json:"repair_type"             yaml:"repair_type"`
	Status       string     `json:"status"                  yaml:"status"`
	Problem      string     `json:"problem_description"     yaml:"problem_description"`
	Urgency      string     `json:"urgency,omitempty"       yaml:"urgency,omitempty"`
	PreferredAt  *time.Time `json:"preferred_at,omitempty"  yaml:"preferred_at,omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"  yaml:"scheduled_at,omitempty"`
	QuoteID      string     `json:"quote_id,omitempty"      yaml:"quote_id,omitempty"`
	TechnicianID string     `json:"technician_id,omitempty" yaml:"technician_id,omitempty"`
}

// Booking statuses.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

// BookingCreateRequest is the payload for creating a booking.
type BookingCreateRequest struct {
	CustomerID  string     `json:"customer_id"`
	DeviceID    string     `json:"device_id"`
	RepairType  string     `json:"repair_type"`
	Problem     string     `json:"problem_description"`
	Urgency     string     `json:"urgency,omitempty"`
	PreferredAt *time.Time `json:"preferred_at,omitempty"`
}

// BookingUpdateRequest is the payload for updating a booking.
type BookingUpdateRequest struct {
	Status       *string    `json:"status,omitempty"`
	Problem      *string    `json:"problem_description,omitempty"`
	Urgency      *string    `json:"urgency,omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	TechnicianID *string    `json:"technician_id,omitempty"`
}

// Customer represents a customer account.
type Customer struct {
	Resource

	FirstName string `json:"first_name"         yaml:"first_name"`
	LastName  string `json:"last_name"          yaml:"last_name"`
	Email     string `json:"email"              yaml:"email"`
	Phone     string `json:"phone,omitempty"    yaml:"phone,omitempty"`
	Postcode  string `json:"postcode,omitempty" yaml:"postcode,omitempty"`
}

// CustomerCreateRequest is the payload for creating a customer.
type CustomerCreateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
}

// CustomerUpdateRequest is the payload for updating a customer.
type CustomerUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Postcode  *string `json:"postcode,omitempty"`
}

// DeviceCategory groups devices, for example laptops or phones.
type DeviceCategory struct {
	Resource

	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

// DeviceBrand represents a manufacturer within a category.
type DeviceBrand struct {
	Resource

	CategoryID string `json:"category_id" yaml:"category_id"`
	Name       string `json:"name"        yaml:"name"`
}

// Device represents a device model customers book repairs for.
type Device struct {
	Resource

	BrandID     string `json:"brand_id"              yaml:"brand_id"`
	CategoryID  string `json:"category_id"           yaml:"category_id"`
	Name        string `json:"name"                  yaml:"name"`
	Year        int    `json:"year,omitempty"        yaml:"year,omitempty"`
	SpecSummary string `json:"spec_summary,omitempty" yaml:"spec_summary,omitempty"`
}

// Quote represents a repair price quote for a booking.
type Quote struct {
	Resource

	BookingID  string     `json:"booking_id"            yaml:"booking_id"`
	Amount     int64      `json:"amount"                yaml:"amount"`
	Currency   string     `json:"currency"              yaml:"currency"`
	Status     string     `json:"status"                yaml:"status"`
	ValidUntil *time.Time `json:"valid_until,omitempty" yaml:"valid_until,omitempty"`
	Notes      string     `json:"notes,omitempty"       yaml:"notes,omitempty"`
}

// Quote statuses.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
	QuoteStatusExpired  = "expired"
)

// QuoteCreateRequest is the payload for requesting a quote.
type QuoteCreateRequest struct {
	BookingID string `json:"booking_id"`
	Notes     string `json:"notes,omitempty"`
}

// HealthStatus is the report produced by the health probe. Latency is
// measured by the client around the probe round trip, not reported by
// the backend.
type HealthStatus struct {
	Status    string        `json:"status"            yaml:"status"`
	Version   string        `json:"version,omitempty" yaml:"version,omitempty"`
	Latency   time.Duration `json:"latency"           yaml:"latency"`
	CheckedAt time.Time     `json:"checked_at"        yaml:"checked_at"`
}

// Healthy reports whether the probe succeeded.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// Info represents the /api/info response.
type Info struct {
	Name    string            `json:"name"    yaml:"name"`
	Version string            `json:"version" yaml:"version"`
	Links   map[string]string `json:"links"   yaml:"links"`
}

// BookingList represents a paginated list of Booking resources.
type BookingList = ListResponse[Booking]

// CustomerList represents a paginated list of Customer resources.
type CustomerList = ListResponse[Customer]

// DeviceList represents a paginated list of Device resources.
type DeviceList = ListResponse[Device]

// QuoteList represents a paginated list of Quote resources.
type QuoteList = ListResponse[Quote]
