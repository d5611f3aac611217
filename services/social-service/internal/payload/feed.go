package payload

// FeedQuery is decoded from the query string of the feed endpoints.
type FeedQuery struct {
	Offset   int64  `query:"offset"   validate:"gte=0"`
	Limit    int64  `query:"limit"    validate:"gte=0,lte=100"`
	Search   string `query:"search"   validate:"max=200"`
	Category string `query:"category" validate:"max=40"`
}

type CommentsQuery struct {
	Page int64 `query:"page" validate:"gte=0"`
}
