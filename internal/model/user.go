package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	Base        `bson:",inline"`
	Name        string     `json:"name" bson:"name"`
	Email       string     `json:"email" bson:"email"`
	Phone       string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Role        string     `json:"role" bson:"role"`
	Status      string     `json:"status" bson:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
}

const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

type Booking struct {
	Base        `bson:",inline"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	MechanicID  primitive.ObjectID `json:"mechanicId,omitempty" bson:"mechanicId,omitempty"`
	VehicleID   primitive.ObjectID `json:"vehicleId,omitempty" bson:"vehicleId,omitempty"`
	ServiceType string             `json:"serviceType" bson:"serviceType"`
	Status      string             `json:"status" bson:"status"`
	ScheduledAt time.Time          `json:"scheduledAt" bson:"scheduledAt"`
	Amount      float64            `json:"amount" bson:"amount"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
}

const PaymentCompleted = "completed"

type Payment struct {
	Base      `bson:",inline"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	BookingID primitive.ObjectID `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	Amount    float64            `json:"amount" bson:"amount"`
	Currency  string             `json:"currency" bson:"currency"`
	Method    string             `json:"method,omitempty" bson:"method,omitempty"`
	Status    string             `json:"status" bson:"status"`
	PaidAt    *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

type Vehicle struct {
	Base         `bson:",inline"`
	UserID       primitive.ObjectID `json:"userId" bson:"userId"`
	Make         string             `json:"make" bson:"make"`
	Model        string             `json:"model" bson:"model"`
	Year         int                `json:"year,omitempty" bson:"year,omitempty"`
	LicensePlate string             `json:"licensePlate,omitempty" bson:"licensePlate,omitempty"`
	VIN          string             `json:"vin,omitempty" bson:"vin,omitempty"`
	Status       string             `json:"status" bson:"status"`
}
