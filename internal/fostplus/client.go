package fostplus

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultSettingsURL = "https://www.recycleapp.be/config/app.settings.json"
	userAgent          = "HomeAssistant-RecycleApp"
	consumerHeader     = "recycleapp.be"
	defaultPageSize    = 100
	maxAttempts        = 2
)

// Client talks to the RecycleApp backend. The backend base URL is not fixed:
// it is discovered lazily from the app-settings resource on first use and
// cached for the lifetime of the client.
//
// A Client is safe for concurrent use after initialization; initialization
// itself is guarded by a mutex.
type Client struct {
	httpClient  *http.Client
	settingsURL string
	now         func() time.Time

	mu       sync.Mutex
	endpoint string
}

// NewClient creates a client. An empty settingsURL selects the production
// app-settings resource.
func NewClient(settingsURL string) *Client {
	if settingsURL == "" {
		settingsURL = defaultSettingsURL
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		settingsURL: settingsURL,
		now:         time.Now,
	}
}

// Initialize discovers the backend endpoint. Calling it is optional: every
// operation initializes on demand. It is idempotent.
func (c *Client) Initialize(ctx context.Context) error {
	return c.ensureInitialized(ctx)
}

func (c *Client) ensureInitialized(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endpoint != "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.settingsURL, nil)
	if err != nil {
		return &InitializationError{Err: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &InitializationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &InitializationError{Err: fmt.Errorf("settings resource returned status %d", resp.StatusCode)}
	}

	data, err := readBody(resp)
	if err != nil {
		return &InitializationError{Err: fmt.Errorf("failed to read app settings: %w", err)}
	}

	var settings struct {
		API string `json:"API"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return &InitializationError{Err: fmt.Errorf("failed to decode app settings: %w", err)}
	}
	if settings.API == "" {
		return &InitializationError{Err: errors.New("app settings do not declare an API base URL")}
	}

	c.endpoint = settings.API + "/public/v1"
	return nil
}

func (c *Client) endpointURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-consumer", consumerHeader)
}

// getJSON issues a GET against {endpoint}/{action}. A false return means no
// data is available; callers must treat it as such, not as a distinguishable
// error.
func (c *Client) getJSON(ctx context.Context, action string, out any) bool {
	return c.requestJSON(ctx, http.MethodGet, action, nil, out)
}

// postJSON issues a POST with an optional JSON body against {endpoint}/{action}.
func (c *Client) postJSON(ctx context.Context, action string, payload, out any) bool {
	return c.requestJSON(ctx, http.MethodPost, action, payload, out)
}

// requestJSON performs at most two attempts with no backoff. The second
// attempt is made only when the first fails at the transport level or with a
// non-success status. A response that decodes badly is absent data, not a
// reason to retry.
func (c *Client) requestJSON(ctx context.Context, method, action string, payload, out any) bool {
	if err := c.ensureInitialized(ctx); err != nil {
		log.Printf("fostplus: %v", err)
		return false
	}

	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("fostplus: failed to marshal payload for %s: %v", action, err)
			return false
		}
		body = b
	}

	requestURL := c.endpointURL() + "/" + action
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			log.Printf("fostplus: failed to create request for %s: %v", action, err)
			return false
		}
		c.setHeaders(req)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		data, err := readBody(resp)
		resp.Body.Close()
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, out); err != nil {
			log.Printf("fostplus: failed to decode response of %s: %v", action, err)
			return false
		}
		return true
	}
	return false
}

// readBody drains a response body. Setting Accept-Encoding by hand turns off
// the transport's transparent decompression, so gzip is handled here.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// loadAll reconstructs the complete item set of a paginated action. Each page
// declares the total page count; the loop stops once that count is reached.
// An absent or malformed page drops the whole result: partially fetched items
// are never returned.
func (c *Client) loadAll(ctx context.Context, action string, size int) []json.RawMessage {
	var items []json.RawMessage
	for page := 1; ; page++ {
		var env pageEnvelope
		if !c.getJSON(ctx, fmt.Sprintf("%s&page=%d&size=%d", action, page, size), &env) {
			return nil
		}
		if env.Items == nil || env.Pages == nil {
			return nil
		}

		items = append(items, *env.Items...)
		if page+1 > *env.Pages {
			return items
		}
	}
}

// GetZipCode returns every (id, name) pair matching a numeric zip code, one
// per locality name variant. Multiple matches are the caller's concern; an
// empty result means the zip code is unknown or no data was available.
func (c *Client) GetZipCode(ctx context.Context, zipCode int, language string) ([]ZipCodeMatch, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	var result zipCodeResponse
	if !c.getJSON(ctx, fmt.Sprintf("zipcodes?q=%d", zipCode), &result) {
		return nil, nil
	}

	var matches []ZipCodeMatch
	for _, item := range result.Items {
		for _, names := range item.Names {
			matches = append(matches, ZipCodeMatch{
				ID:   item.ID,
				Name: fmt.Sprintf("%s - %s", item.Code, names[language]),
			})
		}
	}
	return matches, nil
}

// GetStreet resolves a street name within a zip code. A sole result is
// trusted unconditionally, even when its name does not match the query.
// With several candidates, only a trimmed case-insensitive exact match on
// the localized name is accepted; otherwise ErrStreetNotFound.
func (c *Client) GetStreet(ctx context.Context, street, zipCodeID, language string) (StreetMatch, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return StreetMatch{}, err
	}

	query := strings.ToLower(strings.TrimSpace(street))

	var result streetResponse
	action := fmt.Sprintf("streets?q=%s&zipcodes=%s", url.QueryEscape(query), zipCodeID)
	if !c.postJSON(ctx, action, nil, &result) {
		return StreetMatch{}, ErrStreetNotFound
	}

	if result.Total == 1 && len(result.Items) == 1 {
		item := result.Items[0]
		return StreetMatch{ID: item.ID, Name: item.Names[language]}, nil
	}

	for _, item := range result.Items {
		if strings.ToLower(strings.TrimSpace(item.Names[language])) == query {
			return StreetMatch{ID: item.ID, Name: item.Names[language]}, nil
		}
	}
	return StreetMatch{}, ErrStreetNotFound
}

// GetRecyclingParks returns the recycling parks of a zip code, keyed by park
// id. Parks with missing or malformed coordinates are kept, with nil
// latitude and longitude.
func (c *Client) GetRecyclingParks(ctx context.Context, zipCodeID, language string) (map[string]RecyclingPark, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	var response parksResponse
	action := fmt.Sprintf("collection-points/recycling-parks?zipcode=%s&size=%d&language=%s", zipCodeID, defaultPageSize, language)
	if !c.getJSON(ctx, action, &response) {
		return nil, nil
	}

	parks := make(map[string]RecyclingPark, len(response.Items))
	for _, item := range response.Items {
		lat, lon := parseCoordinates(item.Location.Coordinates)
		parks[item.ID] = RecyclingPark{
			ID:        item.ID,
			Name:      item.DisplayName[language],
			Latitude:  lat,
			Longitude: lon,
			Location:  joinNonEmpty(" ", item.Street, item.HouseNumber, item.Zipcode, item.City),
			Description: joinNonEmpty("\n\n",
				item.Info.Rules.Access.Description[language],
				item.Info.Rules.Specific[language]),
			ExceptionDays:  item.ExceptionDays,
			OpeningPeriods: item.OpeningPeriods,
		}
	}
	return parks, nil
}

// GetFractions returns the distinct recognized fractions collected at an
// address over the default collection-year window, keyed by logo id.
func (c *Client) GetFractions(ctx context.Context, zipCodeID, streetID string, houseNumber int, language string) (map[string]Fraction, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	startYear := collectionYearStart(c.now())
	action := fmt.Sprintf("collections?zipcodeId=%s&streetId=%s&houseNumber=%d&fromDate=%d-01-01&untilDate=%d-12-31",
		zipCodeID, streetID, houseNumber, startYear, startYear+1)

	fractions := make(map[string]Fraction)
	for _, raw := range c.loadAll(ctx, action, defaultPageSize) {
		var item collectionItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Fraction.Logo == nil {
			continue
		}
		logoID := item.Fraction.Logo.ID
		if _, ok := collectionTypes[logoID]; !ok {
			continue
		}
		fractions[logoID] = Fraction{
			LogoID: logoID,
			Color:  item.Fraction.Color,
			Name:   item.Fraction.Name[language],
		}
	}
	return fractions, nil
}

// GetCollections returns the collection calendar of an address as a mapping
// from fraction logo id to collection dates. Dates keep the order records
// arrive from pagination and are deduplicated per fraction. Zero from/until
// values select the default window [now, now+8 weeks).
func (c *Client) GetCollections(ctx context.Context, zipCodeID, streetID string, houseNumber int, from, until time.Time) (map[string][]time.Time, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	if from.IsZero() {
		from = c.now()
	}
	if until.IsZero() {
		until = from.AddDate(0, 0, 7*8)
	}

	action := fmt.Sprintf("collections?zipcodeId=%s&streetId=%s&houseNumber=%d&fromDate=%s&untilDate=%s",
		zipCodeID, streetID, houseNumber, from.Format("2006-01-02"), until.Format("2006-01-02"))

	calendar := make(map[string][]time.Time)
	for _, raw := range c.loadAll(ctx, action, defaultPageSize) {
		var item collectionItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if isReplaced(item.Exception.ReplacedBy) {
			continue
		}
		if item.Fraction.Logo == nil {
			continue
		}
		logoID := item.Fraction.Logo.ID
		if _, ok := collectionTypes[logoID]; !ok {
			continue
		}
		day, ok := parseCollectionDate(item.Timestamp)
		if !ok {
			continue
		}
		if containsDate(calendar[logoID], day) {
			continue
		}
		calendar[logoID] = append(calendar[logoID], day)
	}
	return calendar, nil
}

// collectionYearStart anchors the default fraction window: the collection
// year starts in June, so from June onward it is the current year and before
// June the previous one.
func collectionYearStart(now time.Time) int {
	if now.Month() >= time.June {
		return now.Year()
	}
	return now.Year() - 1
}

// parseCollectionDate reads the YYYY-MM-DD prefix of an API timestamp.
func parseCollectionDate(timestamp string) (time.Time, bool) {
	datePart, _, _ := strings.Cut(timestamp, "T")
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 || parts[0] == "" {
		return time.Time{}, false
	}

	year, errYear := strconv.Atoi(parts[0])
	month, errMonth := strconv.Atoi(parts[1])
	day, errDay := strconv.Atoi(parts[2])
	if errYear != nil || errMonth != nil || errDay != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// parseCoordinates extracts a [longitude, latitude] pair. Anything else
// yields (nil, nil) rather than failing the whole call.
func parseCoordinates(raw json.RawMessage) (lat, lon *float64) {
	if len(raw) == 0 {
		return nil, nil
	}
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return nil, nil
	}
	return &pair[1], &pair[0]
}

func isReplaced(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

func containsDate(dates []time.Time, day time.Time) bool {
	for _, d := range dates {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
