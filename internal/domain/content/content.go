package content

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindReview  Kind = "review"
	KindRoadmap Kind = "roadmap"
)

func (k Kind) Valid() bool {
	return k == KindReview || k == KindRoadmap
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var (
	ErrNotFound          = errors.New("content not found")
	ErrInvalidTransition = errors.New("content is not pending")
	ErrInvalidDecision   = errors.New("invalid moderation decision")
)

// Transition is the whole moderation state machine: pending moves to a
// terminal status and nothing moves out of one.
func Transition(from Status, d Decision) (Status, error) {
	if from != StatusPending {
		return from, ErrInvalidTransition
	}

	switch d {
	case DecisionApprove:
		return StatusApproved, nil
	case DecisionReject:
		return StatusRejected, nil
	default:
		return from, ErrInvalidDecision
	}
}

type Item struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	AuthorID     string     `json:"authorId"`
	Status       Status     `json:"status"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	CourseName   string     `json:"courseName,omitempty"`
	Rating       *int       `json:"rating,omitempty"`
	Summary      *string    `json:"summary,omitempty"`
	RejectReason *string    `json:"rejectReason,omitempty"`
	ModeratedBy  *string    `json:"moderatedBy,omitempty"`
	ModeratedAt  *time.Time `json:"moderatedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PublicVisible reports whether the item may appear in public listings.
func (i Item) PublicVisible() bool {
	return i.Status == StatusApproved
}

type SubmitRequest struct {
	Kind       Kind   `json:"kind" binding:"required,oneof=review roadmap"`
	Title      string `json:"title" binding:"required,notblank,min=3,max=120"`
	Body       string `json:"body" binding:"required,notblank,min=10,max=20000"`
	CourseName string `json:"courseName" binding:"omitempty,max=120"`
	Rating     *int   `json:"rating" binding:"omitempty,min=1,max=5"`
}

type ModerateRequest struct {
	Decision Decision `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string   `json:"reason" binding:"omitempty,max=500"`
}

// NewPending builds a fresh submission. Every submission gets its own id;
// there is no path from a rejected item back to pending.
func NewPending(authorID string, req SubmitRequest) Item {
	now := time.Now().UTC()

	return Item{
		ID:         uuid.NewString(),
		Kind:       req.Kind,
		AuthorID:   authorID,
		Status:     StatusPending,
		Title:      req.Title,
		Body:       req.Body,
		CourseName: req.CourseName,
		Rating:     req.Rating,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Kind     *Kind
	Status   *Status
	AuthorID *string
	Limit    int

	// keyset cursor, DESC by created_at then id
	AfterCreatedAt time.Time
	AfterID        string
}

type ModerateCommand struct {
	ID          string
	Decision    Decision
	Reason      string
	ModeratorID string
}
