package ratings

// SubmitResult is returned after a rating is stored.
type SubmitResult struct {
	Success       bool    `json:"success"`
	Score         int     `json:"score"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// Summary is what a user sees for a product: their own score only, plus the aggregate.
type Summary struct {
	UserRating    *int    `json:"user_rating"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}
