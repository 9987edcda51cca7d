// Package unsplash proxies stock photo search so the access key never
// reaches the browser.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.unsplash.com"

// Photo is the slim shape returned to the editor.
type Photo struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	ThumbURL     string `json:"thumb_url"`
	RegularURL   string `json:"regular_url"`
	Photographer string `json:"photographer"`
	Link         string `json:"link"`
}

// Client searches the Unsplash API.
type Client struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an Unsplash client with the server-side access key.
func NewClient(accessKey string) *Client {
	return &Client{
		accessKey:  accessKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Results []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		AltDesc     string `json:"alt_description"`
		Urls        struct {
			Thumb   string `json:"thumb"`
			Regular string `json:"regular"`
		} `json:"urls"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Search returns up to perPage photos matching the query.
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]Photo, error) {
	if c.accessKey == "" {
		return nil, fmt.Errorf("unsplash access key is not configured")
	}
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if perPage <= 0 || perPage > 30 {
		perPage = 20
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode unsplash response: %w", err)
	}

	photos := make([]Photo, 0, len(body.Results))
	for _, r := range body.Results {
		description := r.Description
		if description == "" {
			description = r.AltDesc
		}
		photos = append(photos, Photo{
			ID:           r.ID,
			Description:  description,
			ThumbURL:     r.Urls.Thumb,
			RegularURL:   r.Urls.Regular,
			Photographer: r.User.Name,
			Link:         r.Links.HTML,
		})
	}
	return photos, nil
}
