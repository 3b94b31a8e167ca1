package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/dates"
	"github.com/yourorg/staking-rewards/internal/model"
	"github.com/yourorg/staking-rewards/internal/telemetry"
)

const (
	subscanAPI      = "subscan"
	rewardSlashPath = "/api/scan/account/reward_slash"

	// DefaultPageSize is the largest page Subscan serves
	DefaultPageSize = 100
)

// SubscanClient retrieves staking payouts of an address from Subscan
type SubscanClient struct {
	apiClient
	baseURL  string
	apiKey   string
	pageSize int
}

// NewSubscanClient creates a client for the Subscan instance at baseURL
func NewSubscanClient(baseURL, apiKey string, sleepDelayMs int, m *telemetry.Metrics) *SubscanClient {
	return &SubscanClient{
		apiClient: newAPIClient(sleepDelayMs, m),
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		pageSize:  DefaultPageSize,
	}
}

type rewardRequest struct {
	Address  string `json:"address"`
	Page     int    `json:"page"`
	Row      int    `json:"row"`
	Category string `json:"category"`
}

type rewardResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Count int            `json:"count"`
		List  []rewardRecord `json:"list"`
	} `json:"data"`
}

type rewardRecord struct {
	Amount         decimal.Decimal `json:"amount"`
	BlockTimestamp int64           `json:"block_timestamp"`
	EventID        string          `json:"event_id"`
}

// FetchRewards pages through the reward history of r.Address and attaches
// each payout to its UTC day. Rewards outside the report's days are skipped.
// Pages come newest first, so paging stops once a page reaches before the
// first day.
func (c *SubscanClient) FetchRewards(ctx context.Context, r *model.Report) error {
	if len(r.Data.List) == 0 {
		return nil
	}

	index := make(map[string]int, len(r.Data.List))
	for i, day := range r.Data.List {
		if _, seen := index[day.Day]; !seen {
			index[day.Day] = i
		}
	}
	firstUnix, err := dates.DayToUnix(r.Data.List[0].Day)
	if err != nil {
		return err
	}

	parsed := 0
	for page := 0; ; page++ {
		resp, err := c.fetchPage(ctx, r.Address, page)
		if err != nil {
			return err
		}

		reachedStart := false
		for _, rec := range resp.Data.List {
			if rec.BlockTimestamp < firstUnix {
				reachedStart = true
				continue
			}
			if strings.Contains(strings.ToLower(rec.EventID), "slash") {
				logrus.WithField("block_timestamp", rec.BlockTimestamp).Debug("Skipping slash event")
				continue
			}

			i, ok := index[dates.DayOf(rec.BlockTimestamp)]
			if !ok {
				continue
			}
			day := &r.Data.List[i]
			day.Payouts = append(day.Payouts, model.Payout{
				AmountPlanks:   rec.Amount,
				BlockTimestamp: rec.BlockTimestamp,
				EventID:        rec.EventID,
			})
			day.AmountPlanks = day.AmountPlanks.Add(rec.Amount)
			parsed++
		}

		logrus.WithFields(logrus.Fields{
			"address": r.Address,
			"page":    page,
			"records": len(resp.Data.List),
			"count":   resp.Data.Count,
		}).Debug("Fetched reward page")

		if reachedStart || len(resp.Data.List) == 0 || (page+1)*c.pageSize >= resp.Data.Count {
			break
		}
	}

	r.Data.NumberRewardsParsed += parsed
	c.metrics.AddPayouts(parsed)
	logrus.WithFields(logrus.Fields{
		"address": r.Address,
		"payouts": parsed,
	}).Info("Rewards fetched")
	return nil
}

func (c *SubscanClient) fetchPage(ctx context.Context, address string, page int) (*rewardResponse, error) {
	body, err := json.Marshal(rewardRequest{
		Address:  address,
		Page:     page,
		Row:      c.pageSize,
		Category: "Reward",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequest("POST", c.baseURL+rewardSlashPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	var resp rewardResponse
	if err := c.do(ctx, subscanAPI, req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: subscan code %d: %s", ErrAPI, resp.Code, resp.Message)
	}
	return &resp, nil
}
