package holiday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/wonny/fossbatch/pkg/httputil"
	"github.com/wonny/fossbatch/pkg/logger"
	"github.com/wonny/fossbatch/pkg/redis"
)

// Client fetches Korean public holidays from the data.go.kr special-day feed
// ⭐ SSOT: 공휴일 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new holiday feed client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, apiKey, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Holiday is one public holiday
type Holiday struct {
	Date      string `json:"date"` // YYYYMMDD
	Name      string `json:"name"`
	IsHoliday bool   `json:"is_holiday"`
}

// restDeResponse is the getRestDeInfo envelope
type restDeResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			// items is "" when the month has no holidays
			Items      json.RawMessage `json:"items"`
			TotalCount int             `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type restDeItem struct {
	DateKind  string `json:"dateKind"`
	DateName  string `json:"dateName"`
	IsHoliday string `json:"isHoliday"` // Y / N
	Locdate   int    `json:"locdate"`   // YYYYMMDD
}

// FetchYear returns every listed holiday of the year, month by month
func (c *Client) FetchYear(ctx context.Context, year int) ([]Holiday, error) {
	var all []Holiday
	for month := 1; month <= 12; month++ {
		items, err := c.FetchMonth(ctx, year, month)
		if err != nil {
			return nil, fmt.Errorf("fetch %04d-%02d: %w", year, month, err)
		}
		all = append(all, items...)
	}
	return all, nil
}

// FetchMonth returns the holidays of one month, served from Redis when cached
func (c *Client) FetchMonth(ctx context.Context, year, month int) ([]Holiday, error) {
	if c.cache == nil {
		return c.fetchMonth(ctx, year, month)
	}

	var items []Holiday
	err := c.cache.GetOrSet(ctx, redis.HolidayKey(year, month), &items, redis.TTLHoliday, func() (interface{}, error) {
		return c.fetchMonth(ctx, year, month)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Invalidate drops the cached months of a year so the next fetch hits the feed
func (c *Client) Invalidate(ctx context.Context, year int) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx, redis.HolidayYearKeys(year)...)
}

func (c *Client) fetchMonth(ctx context.Context, year, month int) ([]Holiday, error) {
	params := url.Values{}
	params.Set("serviceKey", c.apiKey)
	params.Set("solYear", strconv.Itoa(year))
	params.Set("solMonth", fmt.Sprintf("%02d", month))
	params.Set("numOfRows", "100")
	params.Set("_type", "json")

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"/getRestDeInfo?"+params.Encode())
	if err != nil {
		return nil, err
	}

	holidays, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"year":  year,
		"month": month,
		"count": len(holidays),
	}).Debug("Fetched holidays")

	return holidays, nil
}

// parseResponse decodes the envelope; item is an object for one result and an array otherwise
func parseResponse(body []byte) ([]Holiday, error) {
	var resp restDeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if code := resp.Response.Header.ResultCode; code != "" && code != "00" {
		return nil, fmt.Errorf("holiday api error %s: %s", code, resp.Response.Header.ResultMsg)
	}

	raw := bytes.TrimSpace(resp.Response.Body.Items)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	item := bytes.TrimSpace(wrapper.Item)
	if len(item) == 0 {
		return nil, nil
	}

	var items []restDeItem
	if item[0] == '[' {
		if err := json.Unmarshal(item, &items); err != nil {
			return nil, fmt.Errorf("decode item list: %w", err)
		}
	} else {
		var one restDeItem
		if err := json.Unmarshal(item, &one); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, one)
	}

	holidays := make([]Holiday, 0, len(items))
	for _, it := range items {
		holidays = append(holidays, Holiday{
			Date:      strconv.Itoa(it.Locdate),
			Name:      it.DateName,
			IsHoliday: it.IsHoliday == "Y",
		})
	}
	return holidays, nil
}
