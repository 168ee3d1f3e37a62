package models

import (
	"fmt"
	"strings"
)

// CampStatus is the lifecycle state of a camp.
type CampStatus string

const (
	CampStatusPending   CampStatus = "pending"
	CampStatusApproved  CampStatus = "approved"
	CampStatusRejected  CampStatus = "rejected"
	CampStatusCancelled CampStatus = "cancelled"
	CampStatusCompleted CampStatus = "completed"
)

var campTransitions = map[CampStatus][]CampStatus{
	CampStatusPending:  {CampStatusApproved, CampStatusRejected, CampStatusCancelled},
	CampStatusApproved: {CampStatusCancelled, CampStatusCompleted},
}

// ParseCampStatus validates a status coming from storage or a client.
func ParseCampStatus(s string) (CampStatus, error) {
	switch st := CampStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case CampStatusPending, CampStatusApproved, CampStatusRejected, CampStatusCancelled, CampStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown camp status %q", ErrValidation, s)
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s CampStatus) CanTransitionTo(next CampStatus) bool {
	for _, allowed := range campTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CampType decides whether payment capture is required.
type CampType string

const (
	CampTypeFree CampType = "free"
	CampTypePaid CampType = "paid"
)

func ParseCampType(s string) (CampType, error) {
	switch t := CampType(strings.ToLower(strings.TrimSpace(s))); t {
	case CampTypeFree, CampTypePaid:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown camp type %q", ErrValidation, s)
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentStatusPending, PaymentStatusCompleted:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, s)
}

type AttendanceStatus string

const (
	AttendanceRegistered AttendanceStatus = "registered"
	AttendanceAttended   AttendanceStatus = "attended"
	AttendanceAbsent     AttendanceStatus = "absent"
	AttendanceCancelled  AttendanceStatus = "cancelled"
)

func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch a := AttendanceStatus(s); a {
	case AttendanceRegistered, AttendanceAttended, AttendanceAbsent, AttendanceCancelled:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown attendance status %q", ErrValidation, s)
}

// UserType is the role attached to a profile.
type UserType string

const (
	UserTypePatient UserType = "patient"
	UserTypeDoctor  UserType = "doctor"
	UserTypeAdmin   UserType = "admin"
)

func ParseUserType(s string) (UserType, error) {
	switch u := UserType(s); u {
	case UserTypePatient, UserTypeDoctor, UserTypeAdmin:
		return u, nil
	}
	return "", fmt.Errorf("%w: unknown user type %q", ErrValidation, s)
}

// Severity of a Notice.
type Severity string

const (
	SeverityNormal      Severity = "normal"
	SeverityDestructive Severity = "destructive"
)

func ParseSeverity(s string) (Severity, error) {
	switch v := Severity(s); v {
	case SeverityNormal, SeverityDestructive:
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown severity %q", ErrValidation, s)
}
