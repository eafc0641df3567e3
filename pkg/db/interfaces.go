package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned by stores when a unique constraint would be violated
var ErrDuplicate = errors.New("duplicate record")

// BookingMutation mutates a locked booking in place. Returning changed=false skips the write.
type BookingMutation func(booking *Booking, shift *Shift) (changed bool, err error)

// UserStore defines the interface for identity database operations
type UserStore interface {
	// CreateAccount writes the user, its profile and the role details in one transaction
	CreateAccount(ctx context.Context, account *Account) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// ProfileStore defines the interface for profile database operations
type ProfileStore interface {
	// UpdateProfile writes the profile and any non-nil role details in one transaction
	UpdateProfile(ctx context.Context, profile *Profile, dentist *DentistDetails, practice *PracticeDetails) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*Profile, error)
	GetDentistDetails(ctx context.Context, profileID string) (*DentistDetails, error)
	GetPracticeDetails(ctx context.Context, profileID string) (*PracticeDetails, error)
	ListLocums(ctx context.Context) ([]LocumListing, error)
}

// ShiftStore defines the interface for shift database operations
type ShiftStore interface {
	InsertShifts(ctx context.Context, shifts []Shift) error
	GetShift(ctx context.Context, id string) (*Shift, error)
	GetShiftsAfter(ctx context.Context, date string) ([]Shift, error)
	GetShiftsByPractice(ctx context.Context, practiceID string) ([]Shift, error)
}

// BookingStore defines the interface for booking database operations
type BookingStore interface {
	InsertBooking(ctx context.Context, booking *Booking) error
	GetBookingView(ctx context.Context, id string) (*BookingView, error)
	GetBookingViewsByDentist(ctx context.Context, dentistID string) ([]BookingView, error)
	GetBookingViewsByPractice(ctx context.Context, practiceID string) ([]BookingView, error)
	// UpdateBooking runs fn against the booking and its shift while holding a row lock
	// and persists the result in the same transaction.
	UpdateBooking(ctx context.Context, id string, fn BookingMutation) (*Booking, error)
}

// MessageStore defines the interface for chat database operations
type MessageStore interface {
	InsertMessage(ctx context.Context, message *Message) error
	GetMessages(ctx context.Context, bookingID string) ([]Message, error)
}

// ReviewStore defines the interface for review database operations
type ReviewStore interface {
	InsertReview(ctx context.Context, review *Review) error
	GetReviewsByReviewer(ctx context.Context, reviewerID string) ([]Review, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	UserStore
	ProfileStore
	ShiftStore
	BookingStore
	MessageStore
	ReviewStore
}
