package db

import "time"

// Role is the side of the marketplace a profile acts for
type Role string

const (
	RoleDentist  Role = "dentist"
	RolePractice Role = "practice"
)

// BookingStatus is the practice-controlled status of a booking
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusAccepted BookingStatus = "accepted"
)

// DateLayout is the layout used for every date-only column
const DateLayout = "2006-01-02"

// User represents a registered login identity
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile represents a user acting as a dentist or a practice
type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Postcode  string    `json:"postcode"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account is what registration writes. Exactly one of Dentist and Practice is set.
type Account struct {
	User     *User
	Profile  *Profile
	Dentist  *DentistDetails
	Practice *PracticeDetails
}

// DentistDetails holds the professional details of a dentist profile
type DentistDetails struct {
	ProfileID        string   `json:"profileId"`
	GDCNumber        string   `json:"gdcNumber"`
	PerformerNumber  string   `json:"performerNumber"`
	YearQualified    int      `json:"yearQualified"`
	UKExperience     int      `json:"ukExperience"`
	AdditionalSkills []string `json:"additionalSkills"`
	LocumType        string   `json:"locumType"`
	NHSPreference    string   `json:"nhsPreference"`
	RateMin          float64  `json:"rateMin"`
	RateMax          float64  `json:"rateMax"`
}

// PracticeDetails holds the contact details of a practice profile
type PracticeDetails struct {
	ProfileID     string `json:"profileId"`
	PracticeName  string `json:"practiceName"`
	PrincipalName string `json:"principalName"`
	ContactEmail  string `json:"contactEmail"`
	ContactPhone  string `json:"contactPhone"`
}

// Shift represents a single-date locum opportunity posted by a practice
type Shift struct {
	ID          string    `json:"id"`
	PracticeID  string    `json:"practiceId"`
	ShiftDate   string    `json:"shiftDate"`
	ShiftType   string    `json:"shiftType"`
	Rate        float64   `json:"rate"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Booking links one shift and one dentist. The practice side is derived from the shift.
type Booking struct {
	ID                string        `json:"id"`
	ShiftID           string        `json:"shiftId"`
	DentistID         string        `json:"dentistId"`
	Status            BookingStatus `json:"status"`
	DentistConfirmed  bool          `json:"dentistConfirmed"`
	PracticeConfirmed bool          `json:"practiceConfirmed"`
	ConfirmedDate     *string       `json:"confirmedDate"`
	ConfirmedRate     *float64      `json:"confirmedRate"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// BookingView is a booking fetched together with its related rows
type BookingView struct {
	Booking         Booking          `json:"booking"`
	Shift           Shift            `json:"shift"`
	Dentist         Profile          `json:"dentist"`
	Practice        Profile          `json:"practice"`
	PracticeDetails *PracticeDetails `json:"practiceDetails"`
}

// Message is a chat line scoped to a single booking
type Message struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review is a rating left by one participant about the other after a shift
type Review struct {
	ID           string    `json:"id"`
	ReviewerID   string    `json:"reviewerId"`
	RecipientID  string    `json:"recipientId"`
	ShiftID      string    `json:"shiftId"`
	ReviewerRole Role      `json:"reviewerRole"`
	Rating       int       `json:"rating"`
	Comments     string    `json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LocumListing is a dentist profile joined with its details
type LocumListing struct {
	Profile Profile         `json:"profile"`
	Details *DentistDetails `json:"details"`
}
