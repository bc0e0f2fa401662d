// Package mnd fetches the current 30-year fixed rate from the Mortgage
// News Daily rate page. The page is unstructured HTML; extraction
// depends on a fixed selector path and fails closed when the markup
// changes.
package mnd

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"RateWatch/internal/domain/models"
	drepo "RateWatch/internal/domain/repository"
	xhttp "RateWatch/pkg/http"
	"RateWatch/pkg/util"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client implements a RateSource backed by the MND rate page.
type Client struct {
	http         *xhttp.Client
	url          string
	rateSelector string
	dateSelector string
	userAgent    string
	termYears    int
	rateType     string
	now          func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithUserAgent overrides the request User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSelectors overrides the rate and date selector paths.
func WithSelectors(rateSel, dateSel string) Option {
	return func(c *Client) {
		if rateSel != "" {
			c.rateSelector = rateSel
		}
		if dateSel != "" {
			c.dateSelector = dateSel
		}
	}
}

// WithClock injects a clock for the observed-date fallback.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new MND RateSource. The source publishes a single
// tenor; term and type are fixed per instance.
func New(url string, timeout time.Duration, termYears int, rateType string, opts ...Option) drepo.RateSource {
	c := &Client{
		http:         xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:          url,
		rateSelector: ".current-mtg-rate .rate",
		dateSelector: ".current-mtg-rate .rate-date",
		userAgent:    defaultUserAgent,
		termYears:    termYears,
		rateType:     rateType,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMarketRate fetches and parses one observation. Pure fetch+parse;
// persistence is the caller's concern.
func (c *Client) FetchMarketRate(ctx context.Context) (*models.RateObservation, error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.url,
		Headers: map[string]string{
			"User-Agent":      c.userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	})
	if err != nil {
		return nil, models.WrapFetchError(models.FetchKindNetwork, "get rate page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewFetchError(models.FetchKindNetwork, "rate page status %d", resp.StatusCode)
	}

	obs, err := c.parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return obs, nil
}

func (c *Client) parse(r io.Reader) (*models.RateObservation, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, models.WrapFetchError(models.FetchKindParse, "parse html", err)
	}

	rateNode := doc.Find(c.rateSelector).First()
	if rateNode.Length() == 0 {
		return nil, models.NewFetchError(models.FetchKindParse, "selector %q matched nothing", c.rateSelector)
	}

	rateText := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rateNode.Text()), "%"))
	value, err := strconv.ParseFloat(rateText, 64)
	if err != nil {
		return nil, models.NewFetchError(models.FetchKindParse, "rate text %q not numeric", rateText)
	}
	if !models.RateInRange(value) {
		return nil, models.NewFetchError(models.FetchKindOutOfRange, "rate %.3f outside (0, 15]", value)
	}

	obs := &models.RateObservation{
		ObservedDate: c.observedDate(doc),
		RateType:     c.rateType,
		RateValue:    value,
		TermYears:    c.termYears,
		RecordedAt:   c.now().UTC(),
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	return obs, nil
}

// observedDate reads the page's rate date when present, normalizing
// "M/D/YYYY" to "YYYY-MM-DD"; otherwise it defaults to the current UTC
// day. The date is presentation metadata, so unlike the rate value a
// missing one is not an error.
func (c *Client) observedDate(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find(c.dateSelector).First().Text())
	if strings.Contains(text, "/") {
		if d, ok := util.NormalizeUSDate(text); ok {
			return d
		}
	}
	if util.ValidDate(text) {
		return text
	}
	return util.DateUTC(c.now())
}
