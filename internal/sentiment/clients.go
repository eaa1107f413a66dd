package sentiment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const feedTimeout = 10 * time.Second

// AlternativeMeClient fetches the Fear & Greed index from alternative.me.
type AlternativeMeClient struct {
	client *resty.Client
}

// NewAlternativeMeClient creates the Fear & Greed client.
func NewAlternativeMeClient() *AlternativeMeClient {
	client := resty.New()
	client.SetTimeout(feedTimeout)
	client.SetBaseURL("https://api.alternative.me")
	return &AlternativeMeClient{client: client}
}

type fearGreedResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// FearGreedIndex returns the current index value (0..100).
func (c *AlternativeMeClient) FearGreedIndex() (int, error) {
	resp, err := c.client.R().Get("/fng/?limit=1")
	if err != nil {
		return 0, fmt.Errorf("fear & greed fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("fear & greed: status %d", resp.StatusCode())
	}
	var out fearGreedResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return 0, fmt.Errorf("fear & greed decode: %w", err)
	}
	if len(out.Data) == 0 {
		return 0, fmt.Errorf("fear & greed: empty response")
	}
	v, err := strconv.Atoi(out.Data[0].Value)
	if err != nil {
		return 0, fmt.Errorf("fear & greed parse value %q: %w", out.Data[0].Value, err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("fear & greed: value %d out of range", v)
	}
	return v, nil
}

// RedditClient scores the hot-post titles of a subreddit with the keyword
// lexicon, weighting each title by its upvote count.
type RedditClient struct {
	client *resty.Client
	limit  int
}

// NewRedditClient creates the Reddit sentiment client.
func NewRedditClient() *RedditClient {
	client := resty.New()
	client.SetTimeout(feedTimeout)
	client.SetHeader("User-Agent", "CoinPilot/1.0")
	return &RedditClient{client: client, limit: 25}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string  `json:"title"`
				Score float64 `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// CommunitySentiment returns the weighted lexicon score for one subreddit.
func (c *RedditClient) CommunitySentiment(subreddit string) (float64, error) {
	url := fmt.Sprintf("https://www.reddit.com/r/%s/hot.json?limit=%d", subreddit, c.limit)
	resp, err := c.client.R().Get(url)
	if err != nil {
		return 0, fmt.Errorf("reddit fetch r/%s: %w", subreddit, err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("reddit r/%s: status %d", subreddit, resp.StatusCode())
	}
	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return 0, fmt.Errorf("reddit decode r/%s: %w", subreddit, err)
	}
	if len(listing.Data.Children) == 0 {
		return 0, fmt.Errorf("reddit r/%s: no posts", subreddit)
	}

	titles := make([]string, 0, len(listing.Data.Children))
	weights := make([]float64, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		titles = append(titles, child.Data.Title)
		w := child.Data.Score / 100
		if w < 1 {
			w = 1
		}
		weights = append(weights, w)
	}
	return ScoreWeighted(titles, weights), nil
}

// CryptoPanicClient scores recent news headlines with the keyword lexicon.
type CryptoPanicClient struct {
	client   *resty.Client
	apiToken string
}

// NewCryptoPanicClient creates the news sentiment client. The token may be
// empty for the public feed.
func NewCryptoPanicClient(apiToken string) *CryptoPanicClient {
	client := resty.New()
	client.SetTimeout(feedTimeout)
	client.SetBaseURL("https://cryptopanic.com")
	return &CryptoPanicClient{client: client, apiToken: apiToken}
}

type cryptoPanicResponse struct {
	Results []struct {
		Title string `json:"title"`
	} `json:"results"`
}

// NewsSentiment returns the mean lexicon score over recent headlines.
func (c *CryptoPanicClient) NewsSentiment() (float64, error) {
	token := c.apiToken
	if token == "" {
		token = "free"
	}
	url := fmt.Sprintf("/api/v1/posts/?auth_token=%s&public=true&kind=news", token)
	resp, err := c.client.R().Get(url)
	if err != nil {
		return 0, fmt.Errorf("news fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("news: status %d", resp.StatusCode())
	}
	var out cryptoPanicResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return 0, fmt.Errorf("news decode: %w", err)
	}
	if len(out.Results) == 0 {
		return 0, fmt.Errorf("news: no headlines")
	}

	titles := make([]string, 0, 20)
	for i, r := range out.Results {
		if i >= 20 {
			break
		}
		titles = append(titles, r.Title)
	}
	return ScoreWeighted(titles, nil), nil
}
