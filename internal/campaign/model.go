package campaign

import "time"

// Campaign is one funded prospecting campaign. A campaign record exists only
// after its cost was successfully debited from the owner's wallet.
type Campaign struct {
	ID            string
	OwnerID       string
	Product       string
	TargetMarket  string
	Cost          int64
	TransactionID string
	CreatedAt     time.Time
}
