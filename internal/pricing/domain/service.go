package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	// Resolve prices a sale of serviceID at basePrice as of asOf. A zero asOf means now.
	Resolve(ctx context.Context, serviceID snowflake.ID, basePrice decimal.Decimal, asOf time.Time) (*FeeResolution, error)
	// ResolveForVendor prices through the vendor's tier only, skipping service overrides.
	ResolveForVendor(ctx context.Context, vendorID snowflake.ID, basePrice decimal.Decimal, asOf time.Time) (*FeeResolution, error)
	// ResolveForVendorInTx is ResolveForVendor reading vendor and tier through tx.
	ResolveForVendorInTx(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, basePrice decimal.Decimal, asOf time.Time) (*FeeResolution, error)
	// Preview resolves quantity units at the service's listing price.
	Preview(ctx context.Context, serviceID snowflake.ID, quantity int64, asOf time.Time) (*FeeResolution, error)
}

var (
	ErrServiceNotFound  = errors.New("service_not_found")
	ErrVendorNotFound   = errors.New("vendor_not_found")
	ErrInvalidBasePrice = errors.New("invalid_base_price")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
)

// StorageError wraps a data store failure with the lookup that triggered it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("pricing: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
