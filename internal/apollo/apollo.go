package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ranking"
	"github.com/hrmatcher/hr-matcher/internal/utils"
)

const (
	apiURL         = "https://api.apollo.io"
	SearchPath     = "/v1/contacts/search"
	contentType    = "application/json"
	defaultTimeout = 20 * time.Second
	unknown        = "N/A"
	maxErrorBody   = 300
)

// ErrMissingAPIKey is returned by Search when the client has no credential.
var ErrMissingAPIKey = errors.New("apollo api key is not configured")

type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
}

func New(apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

type searchRequest struct {
	Keywords  string   `json:"q_keywords"`
	Locations []string `json:"person_locations"`
	Page      int      `json:"page"`
	Limit     int      `json:"limit"`
}

type contact struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	LinkedInURL  string `json:"linkedin_url"`
	Email        string `json:"email"`
	City         string `json:"city"`
	State        string `json:"state"`
	Organization struct {
		Name string `json:"name"`
	} `json:"organization"`
}

func (c contact) profile() ranking.Profile {
	location := c.City
	if location == "" {
		location = c.State
	}
	if location == "" {
		location = unknown
	}

	return ranking.Profile{
		Name:         c.Name,
		Title:        c.Title,
		ProfileURL:   c.LinkedInURL,
		Email:        c.Email,
		Organization: c.Organization.Name,
		Location:     location,
	}
}

// Search queries the contact search API and returns at most limit profiles.
func (c *Client) Search(ctx context.Context, query, location string, limit int) ([]ranking.Profile, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload := searchRequest{
		Keywords:  strings.TrimSpace(query),
		Locations: []string{},
		Page:      1,
		Limit:     limit,
	}
	if location = strings.TrimSpace(location); location != "" {
		payload.Locations = append(payload.Locations, location)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.APIURL, "/")+SearchPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req = c.setHeaders(req)

	c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.Int("limit", limit))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apollo request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read apollo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s: %s", resp.Status, utils.TruncateForLog(string(data), maxErrorBody))
	}

	var response struct {
		Contacts []any `json:"contacts"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("decode apollo response: %w", err)
	}

	var contacts []contact
	cfg := &mapstructure.DecoderConfig{
		Result:           &contacts,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(response.Contacts); err != nil {
		return nil, fmt.Errorf("decode apollo contacts: %w", err)
	}

	profiles := make([]ranking.Profile, 0, len(contacts))
	for _, ct := range contacts {
		profiles = append(profiles, ct.profile())
	}

	c.logger.Info("apollo candidates fetched", zap.Int("count", len(profiles)))

	return profiles, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("x-api-key", c.apiKey)

	return req
}
