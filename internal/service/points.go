package service

// Fixed eco-point awards per action.
const (
	pointsProductConsumed = 10
	pointsListingComplete = 50

	reasonProductConsumed = "product_consumed"
	reasonListingComplete = "listing_completed"
)
