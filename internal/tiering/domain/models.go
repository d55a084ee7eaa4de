package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
)

type State string

const (
	StateAutomaticallyTiered   State = "automatically_tiered"
	StateManuallyTieredActive  State = "manually_tiered_active"
	StateManuallyTieredExpired State = "manually_tiered_expired"
)

// StateOf classifies a vendor's tier assignment at now.
func StateOf(v vendordomain.Vendor, now time.Time) State {
	switch {
	case v.HasActiveManualTier(now):
		return StateManuallyTieredActive
	case v.ManualTierExpired(now):
		return StateManuallyTieredExpired
	default:
		return StateAutomaticallyTiered
	}
}

type ChangeSource string

const (
	SourceAutomatic ChangeSource = "automatic"
	SourceManual    ChangeSource = "manual"
	SourceExpiry    ChangeSource = "expiry"
	SourceRemoval   ChangeSource = "removal"
)

// VendorTierHistory records one change of a vendor's effective tier.
type VendorTierHistory struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	VendorID        snowflake.ID  `json:"vendor_id" gorm:"column:vendor_id;not null;index"`
	FromTierID      *snowflake.ID `json:"from_tier_id,omitempty" gorm:"column:from_tier_id"`
	ToTierID        *snowflake.ID `json:"to_tier_id,omitempty" gorm:"column:to_tier_id"`
	Source          ChangeSource  `json:"source" gorm:"type:text;not null"`
	Reason          string        `json:"reason,omitempty" gorm:"type:text"`
	MonthlyBookings *int64        `json:"monthly_bookings,omitempty"`
	AverageRating   *float64      `json:"average_rating,omitempty"`
	ChangedBy       string        `json:"changed_by,omitempty" gorm:"type:text"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null;index"`
}

func (VendorTierHistory) TableName() string { return "vendor_tier_history" }

// VendorFailure is one vendor the batch could not process.
type VendorFailure struct {
	VendorID snowflake.ID `json:"vendor_id"`
	Err      error        `json:"-"`
	Message  string       `json:"error"`
}

func (f VendorFailure) Error() string {
	return fmt.Sprintf("vendor %s: %v", f.VendorID, f.Err)
}

func (f VendorFailure) Unwrap() error { return f.Err }

// BatchResult summarises one orchestrator run.
type BatchResult struct {
	Job       string          `json:"job"`
	RunAt     time.Time       `json:"run_at"`
	Scanned   int             `json:"scanned"`
	Changed   int             `json:"changed"`
	Unchanged int             `json:"unchanged"`
	Skipped   int             `json:"skipped"`
	Failures  []VendorFailure `json:"failures"`
}

// Fail records a per-vendor failure without aborting the batch.
func (r *BatchResult) Fail(vendorID snowflake.ID, err error) {
	r.Failures = append(r.Failures, VendorFailure{VendorID: vendorID, Err: err, Message: err.Error()})
}

// Err joins the per-vendor failures, or returns nil when there were none.
func (r *BatchResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Processed is the number of vendors handled successfully.
func (r *BatchResult) Processed() int {
	return r.Changed + r.Unchanged + r.Skipped
}
