// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package store

import "time"

// --- Conversation types ---

// Speaker identifies who produced a turn in a conversation.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single message in a conversation, attributed to the user or the
// assistant. Turns are append-only: once written they are never mutated or
// reordered, and insertion order is conversation order.
type Turn struct {
	ID      string
	Speaker Speaker
	Text    string
	At      time.Time
}

// ChatSession is the per-owner conversation record. Each owner has at most
// one session; it is created lazily on first message and destroyed by an
// explicit clear. SessionID is an opaque token for display and audit only —
// lookup is always by OwnerID.
type ChatSession struct {
	OwnerID   string
	SessionID string
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// --- Profile types ---

// Role is the account role discriminator.
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Profile is a portal account: one base identity record plus a role-specific
// payload selected by the Role discriminator. Exactly one of Clinician or
// Patient is non-nil, matching Role.
type Profile struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Active    bool
	Clinician *ClinicianInfo
	Patient   *PatientInfo
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClinicianInfo carries clinician-specific profile fields.
type ClinicianInfo struct {
	Specialization  string `json:"specialization"`
	LicenseNumber   string `json:"license_number,omitempty"`
	ExperienceYears int    `json:"experience_years"`
}

// PatientInfo carries patient-specific profile fields.
type PatientInfo struct {
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	BloodGroup  string   `json:"blood_group,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
}

// ListOpts provides pagination parameters for list operations.
type ListOpts struct {
	Limit  int
	Offset int
}
