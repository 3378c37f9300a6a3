package domain

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// SentimentResult pairs a label with the classifier's confidence in [0,1].
type SentimentResult struct {
	Label      Sentiment
	Confidence float64
}
