package models

import "time"

// Store holds the credentials of a connected Shopify store. The access
// token is kept AES-GCM encrypted and is only decrypted at the point of
// an outbound Admin API call.
type Store struct {
	ID             int
	UserUID        string
	ShopDomain     string
	AccessTokenEnc string
	Charge         ChargeRef
	IsActive       bool
	CreatedAt      time.Time
}

// Connected reports whether the store can be used for Admin API calls.
func (s *Store) Connected() bool {
	return s != nil && s.IsActive && s.AccessTokenEnc != ""
}

// ChargeRef is the tracked recurring-charge reference of a store. A charge
// id is written optimistically when a charge is created, before the
// merchant has approved it, so "id present" does not mean "charge real":
// the id is only a hint for which charge to query on the confirm callback.
type ChargeRef struct {
	id      string
	pending bool
}

// PendingCharge returns a ChargeRef marking chargeID as outstanding.
func PendingCharge(chargeID string) ChargeRef {
	return ChargeRef{id: chargeID, pending: true}
}

// NoCharge returns the empty ChargeRef.
func NoCharge() ChargeRef {
	return ChargeRef{}
}

// ID returns the outstanding charge id, if any.
func (c ChargeRef) ID() (string, bool) {
	return c.id, c.pending
}

// Pending reports whether a charge id is outstanding.
func (c ChargeRef) Pending() bool {
	return c.pending
}
