package tracker

import (
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// This file contains the Kraken REST client. It implements the three narrow
// interfaces the pipeline consumes: LedgerSource, AssetSource and PriceSource.

const krakenBaseURL = "https://api.kraken.com"

// LedgerPageSize is the fixed page size of the Ledgers endpoint.
const LedgerPageSize = 50

// Kraken is a REST client for the Kraken exchange API.
//
// Every call waits on the throttle first; rate-limit responses are retried a
// bounded number of times. The client holds no package-level state: construct
// one and inject it where needed.
type Kraken struct {
	baseURL  string
	key      string
	secret   []byte // base64-decoded private key
	client   *http.Client
	throttle *Throttle
	retries  int
	maxDays  int // price history truncation, most recent N days
	nonce    func() int64
}

// KrakenOption customizes the client.
type KrakenOption func(*Kraken)

// WithBaseURL points the client at another server. Intended for tests.
func WithBaseURL(u string) KrakenOption {
	return func(k *Kraken) { k.baseURL = u }
}

// WithThrottle replaces the default 2s inter-call throttle.
func WithThrottle(t *Throttle) KrakenOption {
	return func(k *Kraken) { k.throttle = t }
}

// WithHistoryDays sets the price history truncation window (default 365).
func WithHistoryDays(n int) KrakenOption {
	return func(k *Kraken) { k.maxDays = n }
}

// WithCredentials sets the API key pair for private endpoints.
// The secret is the base64-encoded private key as issued by the exchange.
func WithCredentials(key, secret string) KrakenOption {
	return func(k *Kraken) {
		k.key = key
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			// A malformed secret will fail on the first signed call anyway;
			// keep the raw bytes so the error message points at the API.
			decoded = []byte(secret)
		}
		k.secret = decoded
	}
}

// NewKraken returns a Kraken client with the default throttle and window.
func NewKraken(opts ...KrakenOption) *Kraken {
	k := &Kraken{
		baseURL:  krakenBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		throttle: NewThrottle(DefaultCooldown),
		retries:  3,
		maxDays:  365,
		nonce:    func() int64 { return time.Now().UnixNano() / int64(time.Millisecond) },
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// LoadKeyFile reads an API key pair from a file, key and secret on separate
// lines, and returns the configured option.
func LoadKeyFile(path string) (KrakenOption, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open key file %q: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read key file %q: %w", path, err)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("key file %q must contain key and secret on separate lines", path)
	}
	return WithCredentials(lines[0], lines[1]), nil
}

// krakenResponse is the envelope of every Kraken API response.
type krakenResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// apiError converts the response error array into a Go error.
// "EAPI:Rate limit" style entries become a *RateLimitError.
func (k *Kraken) apiError(endpoint string, apiErrors []string) error {
	if len(apiErrors) == 0 {
		return nil
	}
	for _, e := range apiErrors {
		if strings.Contains(e, "Rate limit") {
			return &RateLimitError{Endpoint: endpoint, Wait: DefaultCooldown}
		}
	}
	return fmt.Errorf("kraken API error on %s: %v", endpoint, apiErrors)
}

// call performs one throttled request and decodes the response envelope,
// retrying after rate-limit signals up to the bounded retry count.
func (k *Kraken) call(ctx context.Context, build func() (*http.Request, error), endpoint string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= k.retries; attempt++ {
		if err := k.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := k.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read %s response: %w", endpoint, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cannot http GET %v%v: %v", k.baseURL, endpoint, resp.Status)
		}
		var envelope krakenResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("cannot parse %s response: %w", endpoint, err)
		}
		if err := k.apiError(endpoint, envelope.Error); err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) && attempt < k.retries {
				log.Printf("%s: rate limited, retrying (%d/%d)", endpoint, attempt+1, k.retries)
				lastErr = err
				continue
			}
			return nil, err
		}
		return envelope.Result, nil
	}
	return nil, lastErr
}

// public performs a GET on a public endpoint.
func (k *Kraken) public(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	build := func() (*http.Request, error) {
		addr := k.baseURL + endpoint
		if len(params) > 0 {
			addr += "?" + params.Encode()
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	}
	return k.call(ctx, build, endpoint)
}

// private performs a signed POST on a private endpoint.
//
// The signature is the exchange's standard scheme: HMAC-SHA512 over
// path + SHA256(nonce + postdata), keyed with the decoded secret.
func (k *Kraken) private(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if k.key == "" || len(k.secret) == 0 {
		return nil, errors.New("kraken API key is not set: private endpoints need credentials")
	}
	build := func() (*http.Request, error) {
		if params == nil {
			params = url.Values{}
		}
		nonce := strconv.FormatInt(k.nonce(), 10)
		params.Set("nonce", nonce)
		postdata := params.Encode()

		digest := sha256.Sum256([]byte(nonce + postdata))
		mac := hmac.New(sha512.New, k.secret)
		mac.Write([]byte(endpoint))
		mac.Write(digest[:])
		sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+endpoint, strings.NewReader(postdata))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("API-Key", k.key)
		req.Header.Set("API-Sign", sign)
		return req, nil
	}
	return k.call(ctx, build, endpoint)
}

// AssetAltnames fetches the exchange metadata mapping asset id → altname.
func (k *Kraken) AssetAltnames(ctx context.Context) (map[string]string, error) {
	result, err := k.public(ctx, "/0/public/Assets", nil)
	if err != nil {
		return nil, err
	}
	var assets map[string]struct {
		Altname string `json:"altname"`
	}
	if err := json.Unmarshal(result, &assets); err != nil {
		return nil, fmt.Errorf("cannot parse asset metadata: %w", err)
	}
	altnames := make(map[string]string, len(assets))
	for asset, info := range assets {
		altnames[asset] = info.Altname
	}
	return altnames, nil
}

// LedgerPage fetches one page of ledger rows at the given offset.
//
// An empty page is the explicit end-of-data sentinel: the second return value
// is true and the caller stops paginating. start limits the history to
// entries at or after the given unix timestamp; zero means no limit.
func (k *Kraken) LedgerPage(ctx context.Context, offset int, start int64) ([]RawEntry, bool, error) {
	params := url.Values{}
	if offset > 0 {
		params.Set("ofs", strconv.Itoa(offset))
	}
	if start > 0 {
		params.Set("start", strconv.FormatInt(start, 10))
	}
	result, err := k.private(ctx, "/0/private/Ledgers", params)
	if err != nil {
		return nil, false, err
	}
	var payload struct {
		Ledger map[string]RawEntry `json:"ledger"`
		Count  int                 `json:"count"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, false, fmt.Errorf("cannot parse ledger page at offset %d: %w", offset, err)
	}
	if len(payload.Ledger) == 0 {
		return nil, true, nil
	}
	rows := make([]RawEntry, 0, len(payload.Ledger))
	for id, row := range payload.Ledger {
		if row.RefID == "" {
			row.RefID = id
		}
		rows = append(rows, row)
	}
	return rows, false, nil
}

// DailyOHLC fetches the daily candle history for ticker against the quote
// currency, truncated to the most recent N days (the client's history window).
// interval is in minutes; daily candles use 1440.
func (k *Kraken) DailyOHLC(ctx context.Context, ticker Ticker, quote string, interval int) (*Series[Candle], error) {
	params := url.Values{}
	params.Set("pair", string(ticker)+quote)
	params.Set("interval", strconv.Itoa(interval))
	result, err := k.public(ctx, "/0/public/OHLC", params)
	if err != nil {
		return nil, err
	}

	// The result is keyed by the resolved pair name, plus a "last" cursor.
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("cannot parse OHLC response for %s: %w", ticker, err)
	}
	var rows [][]any
	for key, raw := range payload {
		if key == "last" {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("cannot parse OHLC rows for %s: %w", ticker, err)
		}
		break
	}
	if rows == nil {
		return nil, &MissingPriceDataError{Ticker: ticker}
	}

	// Keep only the most recent maxDays rows.
	if len(rows) > k.maxDays {
		rows = rows[len(rows)-k.maxDays:]
	}

	prices := &Series[Candle]{}
	for _, row := range rows {
		// Candle row format: [time, open, high, low, close, vwap, volume, count].
		if len(row) < 7 {
			continue
		}
		sec, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("bad candle timestamp %v for %s", row[0], ticker)
		}
		candle, err := parseCandle(row)
		if err != nil {
			return nil, fmt.Errorf("bad candle for %s: %w", ticker, err)
		}
		prices.Append(DateOfUnix(int64(sec)), candle)
	}
	return prices, nil
}

// parseCandle reads the open, high, low, close and vwap fields of a candle
// row. The exchange sends them as JSON strings to preserve precision.
func parseCandle(row []any) (Candle, error) {
	fields := make([]decimal.Decimal, 5)
	for i := range fields {
		str, ok := row[i+1].(string)
		if !ok {
			return Candle{}, fmt.Errorf("candle field %d is %v, want a string", i+1, row[i+1])
		}
		d, err := decimal.NewFromString(str)
		if err != nil {
			return Candle{}, err
		}
		fields[i] = d
	}
	return Candle{Open: fields[0], High: fields[1], Low: fields[2], Close: fields[3], VWAP: fields[4]}, nil
}

// SpotPrice fetches the last traded price for ticker against the quote
// currency. It plucks the value out of the Ticker endpoint's nested payload
// with a jsonpath instead of modelling the whole response.
func (k *Kraken) SpotPrice(ctx context.Context, ticker Ticker, quote string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("pair", string(ticker)+quote)
	result, err := k.public(ctx, "/0/public/Ticker", params)
	if err != nil {
		return decimal.Zero, err
	}
	var jobj any
	if err := json.Unmarshal(result, &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse ticker response for %s: %w", ticker, err)
	}
	// c = last trade closed: [price, lot volume]; the pair key varies.
	path := "$.*.c[0]"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot locate last price for %s: %q %w", ticker, path, err)
	}
	// jsonpath is never clear about whether it returns a list of one answer
	// or a single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	str, ok := jval.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected last price %v for %s", jval, ticker)
	}
	price, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric last price %q for %s: %w", str, ticker, err)
	}
	return price, nil
}
