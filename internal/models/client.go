package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus represents the lifecycle state of a client record
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Client represents a firm client (the business being serviced)
type Client struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Email          *string      `json:"email,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	GSTIN          *string      `json:"gstin,omitempty"`
	PAN            *string      `json:"pan,omitempty"`
	Address        *string      `json:"address,omitempty"`
	City           *string      `json:"city,omitempty"`
	State          *string      `json:"state,omitempty"`
	Pincode        *string      `json:"pincode,omitempty"`
	AssignedUserID *uuid.UUID   `json:"assigned_user_id,omitempty"`
	Status         ClientStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
