package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Artist is a directory entry owned by the registry. Name, bio, and fee
// option are frozen on first campaign creation; later creations by the same
// address only append to Campaigns.
type Artist struct {
	Address     common.Address
	Name        string
	Bio         string
	FeesPercent uint8
	Campaigns   []common.Address
	CreatedAt   time.Time
}

// IsZero reports whether the artist record is absent. Lookups for unknown
// addresses return a zero value rather than an error.
func (a Artist) IsZero() bool {
	return a.Name == "" && len(a.Campaigns) == 0
}
