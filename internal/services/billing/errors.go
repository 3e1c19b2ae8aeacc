package billing

import "errors"

var (
	// ErrUnknownTier means the requested plan name is not in the catalog.
	ErrUnknownTier = errors.New("unknown plan tier")

	// ErrStoreNotConnected means the user has no active store credentials
	// for the shop, so no billing call can be made on their behalf.
	ErrStoreNotConnected = errors.New("store not connected")

	// ErrAlreadySubscribed means the user already holds an active plan of
	// the requested tier, so there is nothing to buy.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrChargeDeclined means the merchant rejected the charge on the
	// Shopify confirmation page.
	ErrChargeDeclined = errors.New("charge declined")

	// ErrChargeUnverifiable means the charge named by the confirmation
	// callback could not be fetched or came back in a state that cannot
	// be activated. The local state is left untouched.
	ErrChargeUnverifiable = errors.New("charge unverifiable")
)
