package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock-price-alert/internal/entity"
	"stock-price-alert/internal/monitor/config"
	"stock-price-alert/pkg/logger"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PriceRepository returns the current market price of a ticker. Failures wrap
// entity.ErrPriceUnavailable.
type PriceRepository interface {
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)
}

type yahooFinanceRepository struct {
	cfg            config.YahooFinance
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	quotes         *cache.Cache
}

// NewYahooFinanceRepository returns a PriceRepository backed by the Yahoo
// Finance chart API.
func NewYahooFinanceRepository(cfg config.YahooFinance, log *logger.Logger) PriceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	r := &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		requestLimiter: requestLimiter,
	}
	if cfg.CacheTTL > 0 {
		r.quotes = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return r
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (r *yahooFinanceRepository) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if r.quotes != nil {
		if price, ok := r.quotes.Get(ticker); ok {
			return price.(float64), nil
		}
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d",
		strings.TrimRight(r.cfg.BaseURL, "/"), url.PathEscape(ticker))
	body, err := r.sendRequest(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", entity.ErrPriceUnavailable, ticker, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %s: decode chart response: %w", entity.ErrPriceUnavailable, ticker, err)
	}
	if resp.Chart.Error != nil {
		return 0, fmt.Errorf("%w: %s: %s", entity.ErrPriceUnavailable, ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("%w: %s: no market price in response", entity.ErrPriceUnavailable, ticker)
	}

	price := resp.Chart.Result[0].Meta.RegularMarketPrice
	if r.quotes != nil {
		r.quotes.SetDefault(ticker, price)
	}
	r.log.DebugContext(ctx, "Fetched market price", logger.StringField("ticker", ticker), logger.Float64Field("price", price))
	return price, nil
}

func (r *yahooFinanceRepository) sendRequest(ctx context.Context, endpoint string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", endpoint),
		zap.Int("max_request_per_minute", r.cfg.MaxRequestPerMinute),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.DebugContext(ctx, "Failed to send request to Yahoo Finance API", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	// Yahoo reports unknown symbols as 404 with a chart.error body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.DebugContext(ctx, "Received non-OK response from Yahoo Finance API", fields...)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
