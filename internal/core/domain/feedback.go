package domain

type Source string

const (
	SourceReddit  Source = "reddit"
	SourceYouTube Source = "youtube"
	SourceAmazon  Source = "amazon"
	SourceUnknown Source = "unknown"
)

// Provenance is the per-source payload variant attached to a feedback
// envelope. Each source carries only its own fields; branching on a raw
// source string is confined to input decoding.
type Provenance interface {
	SourceTag() Source
}

type RedditData struct {
	Subreddit string `json:"subreddit"`
	PostTitle string `json:"post_title"`
	PostScore int    `json:"post_score"`
}

func (RedditData) SourceTag() Source { return SourceReddit }

type YouTubeData struct {
	VideoTitle       string `json:"video_title"`
	ChannelName      string `json:"channel_name"`
	VideoViews       int    `json:"video_views"`
	TimestampInVideo string `json:"timestamp_in_video"`
}

func (YouTubeData) SourceTag() Source { return SourceYouTube }

type AmazonData struct {
	ProductTitle string  `json:"product_title"`
	StarRating   float64 `json:"star_rating"`
	ReviewTitle  string  `json:"review_title"`
}

func (AmazonData) SourceTag() Source { return SourceAmazon }

// Feedback is the canonical envelope a comment is normalized into. It lives
// only for the duration of one pipeline pass and is never persisted.
type Feedback struct {
	Text             string
	Source           Source
	Timestamp        string // RFC3339, empty when the source carried none
	AuthorHash       string
	Score            int // upvotes or likes, source dependent
	Permalink        string
	CommentID        string
	AccountAgeDays   int
	VerifiedPurchase bool
	Provenance       Provenance
}

// Raw comment shapes as delivered by the excluded scraping collaborators.

type RedditComment struct {
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	ID         string  `json:"id"`
}

type RedditPost struct {
	Permalink  string          `json:"permalink"`
	CreatedUTC float64         `json:"created_utc"`
	Subreddit  string          `json:"subreddit"`
	Title      string          `json:"title"`
	Score      int             `json:"score"`
	Comments   []RedditComment `json:"comments"`
}

type YouTubeComment struct {
	Text             string `json:"text"`
	Author           string `json:"author"`
	PublishedAt      string `json:"published_at"`
	LikeCount        int    `json:"like_count"`
	TimestampInVideo string `json:"timestamp_in_video"`
	ID               string `json:"id"`
}

type YouTubeVideo struct {
	Title       string           `json:"title"`
	ChannelName string           `json:"channel_name"`
	ViewCount   int              `json:"view_count"`
	URL         string           `json:"url"`
	Comments    []YouTubeComment `json:"comments"`
}
