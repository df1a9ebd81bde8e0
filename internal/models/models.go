package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of account roles. CENTRAL sees every branch,
// BRANCH is scoped to exactly one.
type Role string

const (
	RoleCentral Role = "CENTRAL"
	RoleBranch  Role = "BRANCH"
)

// ParseRole normalizes user input to a known role. The second return is
// false for anything outside the enum.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleCentral):
		return RoleCentral, true
	case string(RoleBranch):
		return RoleBranch, true
	default:
		return "", false
	}
}

// Account is the credential-bearing aggregate. The password hash never
// leaves this package through serialization; outward projections live in
// the transport layer.
type Account struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"not null" json:"role"`
	Branch       string    `json:"branch,omitempty"`
	Enabled      bool      `gorm:"default:true" json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Principal is the resolved, request-scoped identity. It is derived per
// request from a verified login or a validated token joined against the
// account store, and is never stored.
type Principal struct {
	ID      string
	Email   string
	Role    Role
	Branch  string
	Enabled bool
}

func (p *Principal) CanAccessBranch(branch string) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleCentral {
		return true
	}
	return p.Role == RoleBranch && branch != "" && strings.EqualFold(p.Branch, branch)
}

type Sale struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SKU       string    `gorm:"column:sku;not null" json:"sku"`
	Units     int       `gorm:"not null" json:"units"`
	Price     float64   `gorm:"not null" json:"price"`
	Branch    string    `gorm:"index;not null" json:"branch"`
	SoldAt    time.Time `gorm:"index;not null" json:"soldAt"`
	CreatedBy string    `gorm:"index;not null" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type ReportStatus string

const (
	ReportProcessing ReportStatus = "PROCESSING"
	ReportSent       ReportStatus = "SENT"
	ReportFailed     ReportStatus = "FAILED"
)

type ReportRequest struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	Branch      string       `gorm:"index" json:"branch"`
	FromDate    time.Time    `gorm:"not null" json:"fromDate"`
	ToDate      time.Time    `gorm:"not null" json:"toDate"`
	EmailTo     string       `gorm:"not null" json:"emailTo"`
	Status      ReportStatus `gorm:"not null" json:"status"`
	Message     string       `json:"message,omitempty"`
	RequestedAt time.Time    `gorm:"not null" json:"requestedAt"`
	RequestedBy string       `gorm:"index;not null" json:"requestedBy"`
}

func (r *ReportRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// SalesAggregates is the weekly-summary arithmetic result. Top fields are
// empty when the range holds no sales.
type SalesAggregates struct {
	TotalUnits   int     `json:"totalUnits"`
	TotalRevenue float64 `json:"totalRevenue"`
	TopSKU       string  `json:"topSku"`
	TopBranch    string  `json:"topBranch"`
}
