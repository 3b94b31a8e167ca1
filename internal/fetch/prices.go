package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/model"
	"github.com/yourorg/staking-rewards/internal/telemetry"
)

const priceAPI = "coingecko"

// PriceClient retrieves historical daily prices from a CoinGecko compatible API
type PriceClient struct {
	apiClient
	baseURL string
	coinID  string
}

// NewPriceClient creates a client for coinID at the API rooted at baseURL
func NewPriceClient(baseURL, coinID string, sleepDelayMs int, m *telemetry.Metrics) *PriceClient {
	return &PriceClient{
		apiClient: newAPIClient(sleepDelayMs, m),
		baseURL:   strings.TrimRight(baseURL, "/"),
		coinID:    coinID,
	}
}

type historyResponse struct {
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
		TotalVolume  map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
}

// FetchPrices sets price and volume of every day in r.Currency. Days the API
// has no market data for keep a zero price.
func (c *PriceClient) FetchPrices(ctx context.Context, r *model.Report) error {
	currency := strings.ToLower(r.Currency)
	missing := 0

	for i := range r.Data.List {
		day := &r.Data.List[i]

		hist, err := c.history(ctx, day.Day)
		if err != nil {
			return fmt.Errorf("price for %s: %w", day.Day, err)
		}

		if hist.MarketData == nil {
			missing++
			logrus.WithField("day", day.Day).Debug("No market data for day")
			continue
		}
		day.Price = hist.MarketData.CurrentPrice[currency]
		day.Volume = hist.MarketData.TotalVolume[currency]
	}

	logrus.WithFields(logrus.Fields{
		"coin":     c.coinID,
		"currency": currency,
		"days":     len(r.Data.List),
		"missing":  missing,
	}).Info("Prices fetched")
	return nil
}

func (c *PriceClient) history(ctx context.Context, day string) (*historyResponse, error) {
	q := url.Values{}
	q.Set("date", day)
	q.Set("localization", "false")
	u := fmt.Sprintf("%s/coins/%s/history?%s", c.baseURL, url.PathEscape(c.coinID), q.Encode())

	req, err := retryablehttp.NewRequest("GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var resp historyResponse
	if err := c.do(ctx, priceAPI, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
