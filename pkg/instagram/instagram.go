// Package instagram extracts related-profile records from an Instagram JSON
// export, or fetches the same structure live via the anonymous web API.
package instagram

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/demograph-dev/demograph/pkg/auth"
	"github.com/demograph-dev/demograph/pkg/httpcache"
	"github.com/demograph-dev/demograph/pkg/record"
)

const defaultBaseURL = "https://i.instagram.com"

// appID is Instagram's public web application id, required for anonymous
// access to the web profile API.
const appID = "936619743392459"

// Match returns true if the string is an Instagram profile URL.
func Match(urlStr string) bool {
	lower := strings.ToLower(urlStr)
	if !strings.Contains(lower, "instagram.com/") {
		return false
	}
	return ExtractUsername(urlStr) != ""
}

var usernamePattern = regexp.MustCompile(`(?i)instagram\.com/([a-zA-Z0-9_.]+)`)

// ExtractUsername pulls the profile username out of an Instagram URL,
// returning "" for system paths that are not profiles.
func ExtractUsername(urlStr string) string {
	matches := usernamePattern.FindStringSubmatch(urlStr)
	if len(matches) < 2 {
		return ""
	}
	username := matches[1]

	systemPaths := map[string]bool{
		"p": true, "reel": true, "reels": true, "stories": true,
		"explore": true, "direct": true, "accounts": true,
		"about": true, "legal": true, "privacy": true,
		"terms": true, "api": true, "developer": true,
	}
	if systemPaths[strings.ToLower(username)] {
		return ""
	}

	return username
}

// exportShape mirrors the nested export structure. The same edge layout shows
// up in API responses under data.user.
type exportShape struct {
	Node profileNode `json:"node"`
}

type profileNode struct {
	EdgeRelatedProfiles struct {
		Edges []struct {
			Node struct {
				Username      string `json:"username"`
				FullName      string `json:"full_name"`
				ProfilePicURL string `json:"profile_pic_url"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_related_profiles"`
}

// ParseExport extracts flat profile records from an export file body. Records
// keep their list order; a body without the related-profiles section yields an
// empty slice, not an error.
func ParseExport(data []byte) ([]record.Profile, error) {
	var export exportShape
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return profilesFromNode(export.Node), nil
}

func profilesFromNode(node profileNode) []record.Profile {
	profiles := make([]record.Profile, 0, len(node.EdgeRelatedProfiles.Edges))
	for _, edge := range node.EdgeRelatedProfiles.Edges {
		profiles = append(profiles, record.Profile{
			Username:      edge.Node.Username,
			FullName:      edge.Node.FullName,
			ProfilePicURL: edge.Node.ProfilePicURL,
		})
	}
	return profiles
}

// Client fetches related profiles through the anonymous web profile API.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	baseURL    string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	cookies map[string]string
	cache   httpcache.Cacher
	logger  *slog.Logger
	baseURL string
}

// WithCookies sets session cookies for authenticated access. Anonymous access
// works for most public profiles.
func WithCookies(cookies map[string]string) Option {
	return func(c *config) { c.cookies = cookies }
}

// WithHTTPCache sets the HTTP cache.
func WithHTTPCache(cache httpcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// New creates an Instagram client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(cfg)
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // needed for corporate proxies
		},
	}

	if len(cfg.cookies) > 0 {
		jar, err := auth.NewCookieJar(cfg.cookies)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		client.Jar = jar
	}

	return &Client{
		httpClient: client,
		cache:      cfg.cache,
		logger:     cfg.logger,
		baseURL:    cfg.baseURL,
	}, nil
}

// FetchRelated retrieves the related-profile records for a username or
// profile URL.
func (c *Client) FetchRelated(ctx context.Context, usernameOrURL string) ([]record.Profile, error) {
	username := usernameOrURL
	if strings.Contains(usernameOrURL, "/") {
		username = ExtractUsername(usernameOrURL)
	}
	if username == "" {
		return nil, fmt.Errorf("could not extract username from: %s", usernameOrURL)
	}

	c.logger.InfoContext(ctx, "fetching instagram related profiles", "username", username)

	apiURL := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s", c.baseURL, username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Ig-App-Id", appID)
	req.Header.Set("User-Agent", httpcache.UserAgent)

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return nil, fmt.Errorf("fetch instagram API: %w", err)
	}

	return parseAPIResponse(body)
}

func parseAPIResponse(data []byte) ([]record.Profile, error) {
	var resp struct {
		Data struct {
			User struct {
				Username string `json:"username"`
				profileNode
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if resp.Data.User.Username == "" {
		return nil, errors.New("user not found or private")
	}

	return profilesFromNode(resp.Data.User.profileNode), nil
}
