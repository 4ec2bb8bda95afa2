package sourcing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hirebot-engine/internal/domain"
)

// API is the authenticated JSON side of the board: negotiations per
// vacancy and per-applicant video submission status.
type API struct {
	baseURL string
	token   string
	hc      *http.Client
	lim     *HostLimiter
}

func NewAPI(baseURL, token string, lim *HostLimiter) *API {
	return &API{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: 20 * time.Second},
		lim:     lim,
	}
}

func (a *API) Negotiations(ctx context.Context, vacancyID string) ([]domain.NegotiationUpdate, error) {
	var out []domain.NegotiationUpdate
	err := a.getJSON(ctx, fmt.Sprintf("%s/vacancies/%s/negotiations", a.baseURL, vacancyID), &out)
	return out, err
}

func (a *API) VideoStatuses(ctx context.Context, vacancyID string) ([]domain.VideoStatusUpdate, error) {
	var out []domain.VideoStatusUpdate
	err := a.getJSON(ctx, fmt.Sprintf("%s/vacancies/%s/video-statuses", a.baseURL, vacancyID), &out)
	return out, err
}

func (a *API) getJSON(ctx context.Context, url string, v any) error {
	if a.baseURL == "" {
		return fmt.Errorf("board api_base_url is not configured")
	}
	if a.lim != nil {
		if err := a.lim.WaitURL(ctx, url); err != nil {
			return err
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	req.Header.Set("User-Agent", "HireBot/1.0 (+local)")
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	res, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("board api get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return fmt.Errorf("board api status %s: %s", res.Status, string(b))
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("board api decode: %w", err)
	}
	return nil
}
