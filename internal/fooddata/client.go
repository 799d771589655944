package fooddata

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meal-lens/internal/config"
	"meal-lens/internal/nutrition"

	"github.com/golang-jwt/jwt/v5"
)

// Food represents a single entry from the food-data service.
type Food struct {
	Label    string  `json:"label"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	Calcium  float64 `json:"calcium"`
}

// FoodsResponse is the top-level structure of the Content API response.
type FoodsResponse struct {
	Foods []Food `json:"foods"`
}

// Client is an interface for the food-data service (Content & Admin APIs).
type Client interface {
	// Lookup resolves the per-100g profile for a normalized label; a false
	// return means the service does not know the food.
	Lookup(ctx context.Context, label string) (nutrition.Profile, bool, error)
	// FetchTable downloads the full composition table.
	FetchTable(ctx context.Context) (map[string]nutrition.Profile, error)
	// SubmitLabel reports a label we could not resolve so curators can add it.
	SubmitLabel(ctx context.Context, label string) error
}

// foodDataClient is the concrete implementation of the food-data client.
type foodDataClient struct {
	httpClient *http.Client
	config     *config.Config
}

// NewClient creates a new food-data service client.
func NewClient(cfg *config.Config) Client {
	return &foodDataClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		config:     cfg,
	}
}

// Lookup fetches a single food from the Content API by normalized label.
func (c *foodDataClient) Lookup(ctx context.Context, label string) (nutrition.Profile, bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/content/foods/?key=%s&label=%s",
		c.config.FoodDataURL, c.config.FoodDataContentKey, url.QueryEscape(label))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nutrition.Profile{}, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nutrition.Profile{}, false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nutrition.Profile{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nutrition.Profile{}, false, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	var foodsResponse FoodsResponse
	if err := json.NewDecoder(resp.Body).Decode(&foodsResponse); err != nil {
		return nutrition.Profile{}, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(foodsResponse.Foods) == 0 {
		return nutrition.Profile{}, false, nil
	}

	return toProfile(foodsResponse.Foods[0]), true, nil
}

// FetchTable downloads the full composition table. The service publishes it
// either as JSON or as an HTML table, depending on deployment.
func (c *foodDataClient) FetchTable(ctx context.Context) (map[string]nutrition.Profile, error) {
	endpoint := fmt.Sprintf("%s/api/v1/content/foods/?key=%s", c.config.FoodDataURL, c.config.FoodDataContentKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return ParseCompositionHTML(resp.Body)
	}

	var foodsResponse FoodsResponse
	if err := json.NewDecoder(resp.Body).Decode(&foodsResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	table := make(map[string]nutrition.Profile, len(foodsResponse.Foods))
	for _, f := range foodsResponse.Foods {
		if f.Label == "" {
			continue
		}
		table[f.Label] = toProfile(f)
	}
	return table, nil
}

// SubmitLabel posts an unresolved label to the Admin API.
func (c *foodDataClient) SubmitLabel(ctx context.Context, label string) error {
	token, err := c.createAdminToken()
	if err != nil {
		return fmt.Errorf("failed to create admin token: %w", err)
	}

	payload := map[string]interface{}{
		"labels": []map[string]interface{}{
			{"label": label, "status": "pending"},
		},
	}

	body, _ := json.Marshal(payload)
	endpoint := fmt.Sprintf("%s/api/v1/admin/labels/", c.config.FoodDataURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "FoodData "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("admin api error: status %d, body: %v", resp.StatusCode, errResp)
	}

	return nil
}

// createAdminToken generates a short-lived JWT for the Admin API.
func (c *foodDataClient) createAdminToken() (string, error) {
	keyParts := strings.Split(c.config.FoodDataAdminKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	id := keyParts[0]
	secretHex := keyParts[1]

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/v1/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}

func toProfile(f Food) nutrition.Profile {
	return nutrition.Profile{
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
		Fiber:    f.Fiber,
		Sugar:    f.Sugar,
		Sodium:   f.Sodium,
		Calcium:  f.Calcium,
	}
}
