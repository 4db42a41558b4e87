package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/RealFascinated/scoresaber-reloaded-sub003/internal/constants"

	"github.com/valyala/fasthttp"
)

// ErrPlayerNotFound is returned when the upstream API has no record of
// the requested player. Callers classify this as a skip, not a failure.
var ErrPlayerNotFound = errors.New("player not found upstream")

type ScoreSaberClient struct {
	baseURL     string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewScoreSaberClient() *ScoreSaberClient {
	return &ScoreSaberClient{
		baseURL: "https://scoresaber.com/api",
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     400,
			Remaining: 400,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *ScoreSaberClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *ScoreSaberClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// LookupPlayer fetches the full player document, including the rolling
// rank-history string and current score aggregates.
func (c *ScoreSaberClient) LookupPlayer(ctx context.Context, playerID string) (*PlayerResponse, error) {
	url := fmt.Sprintf("%s/player/%s/full", c.baseURL, playerID)
	return doRequest[PlayerResponse](ctx, c, url)
}

// LookupRecentScores fetches one page of the player's scores, most
// recent first.
func (c *ScoreSaberClient) LookupRecentScores(ctx context.Context, playerID string, page int) (*PlayerScoresResponse, error) {
	url := fmt.Sprintf("%s/player/%s/scores?sort=recent&page=%d", c.baseURL, playerID, page)
	return doRequest[PlayerScoresResponse](ctx, c, url)
}

func doRequest[T any](ctx context.Context, client *ScoreSaberClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() == fasthttp.StatusNotFound {
		return nil, ErrPlayerNotFound
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type PlayerResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Rank        int     `json:"rank"`
	CountryRank int     `json:"countryRank"`
	PP          float64 `json:"pp"`
	Banned      bool    `json:"banned"`
	Inactive    bool    `json:"inactive"`

	// Histories is a comma-separated list of historical global ranks,
	// oldest to newest, excluding today's rank. Rank only; the API keeps
	// no other historical signal.
	Histories string `json:"histories"`

	ScoreStats ScoreStatsResponse `json:"scoreStats"`
}

type ScoreStatsResponse struct {
	TotalScore            int64   `json:"totalScore"`
	TotalRankedScore      int64   `json:"totalRankedScore"`
	AverageRankedAccuracy float64 `json:"averageRankedAccuracy"`
	TotalPlayCount        int     `json:"totalPlayCount"`
	RankedPlayCount       int     `json:"rankedPlayCount"`
	ReplaysWatched        int     `json:"replaysWatched"`
}

type PlayerScoresResponse struct {
	PlayerScores []PlayerScoreResponse `json:"playerScores"`
}

type PlayerScoreResponse struct {
	Score       ScoreResponse       `json:"score"`
	Leaderboard LeaderboardResponse `json:"leaderboard"`
}

type ScoreResponse struct {
	ID            int64   `json:"id"`
	BaseScore     int64   `json:"baseScore"`
	ModifiedScore int64   `json:"modifiedScore"`
	PP            float64 `json:"pp"`
	Weight        float64 `json:"weight"`

	// Modifiers is a comma-separated list of short codes.
	Modifiers string `json:"modifiers"`

	MissedNotes int       `json:"missedNotes"`
	MaxCombo    int       `json:"maxCombo"`
	FullCombo   bool      `json:"fullCombo"`
	TimeSet     time.Time `json:"timeSet"`
}

type LeaderboardResponse struct {
	ID       int64 `json:"id"`
	MaxScore int64 `json:"maxScore"`
}
