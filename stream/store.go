package stream

import "github.com/xraph/streampay/id"

// ListOpts filters and pages stream listings.
type ListOpts struct {
	Payer      id.AccountID // filter by payer when non-nil
	Recipient  id.AccountID // filter by recipient when non-nil
	ActiveOnly bool         // only streams with a remaining balance
	Limit      int
	Offset     int
}
