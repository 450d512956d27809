package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrScorerUnavailable signals that the external scorer service could not be
// reached or returned a non-success status.
var ErrScorerUnavailable = errors.New("risk scorer unavailable")

// CallMeta is the fixed feature set the scorer was trained on. Caller and
// callee ride along for auditing but are never sent as model features.
type CallMeta struct {
	Caller                   string  `json:"caller"`
	Callee                   string  `json:"callee"`
	DurationSec              int     `json:"duration_sec"`
	HourOfDay                int     `json:"hour_of_day"`
	CountryCode              string  `json:"country_code"`
	IsOutbound               bool    `json:"is_outbound"`
	RecentCallsFromCaller24h int     `json:"recent_calls_from_caller_24h"`
	PctAnsweredLast7d        float64 `json:"pct_answered_last_7d"`
	ComplaintsLast7d         int     `json:"complaints_last_7d"`
}

func (m CallMeta) Validate() error {
	if m.Caller == "" || m.Callee == "" {
		return errors.New("caller and callee are required")
	}
	if m.HourOfDay < 0 || m.HourOfDay > 23 {
		return errors.New("hour_of_day must be between 0 and 23")
	}
	if m.PctAnsweredLast7d < 0 || m.PctAnsweredLast7d > 1 {
		return errors.New("pct_answered_last_7d must be between 0 and 1")
	}
	return nil
}

// LabelFromScore bands a scam probability into a triage label. Lower bounds
// are closed: 0.40 is already medium and 0.70 is already high.
func LabelFromScore(score float64) string {
	switch {
	case score >= 0.7:
		return "high"
	case score >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

// Prediction is the scorer verdict returned to callers.
type Prediction struct {
	RiskScore float64 `json:"risk_score"`
	RiskLabel string  `json:"risk_label"`
}

type scoreRequest struct {
	DurationSec              int     `json:"duration_sec"`
	HourOfDay                int     `json:"hour_of_day"`
	IsOutbound               int     `json:"is_outbound"`
	RecentCallsFromCaller24h int     `json:"recent_calls_from_caller_24h"`
	PctAnsweredLast7d        float64 `json:"pct_answered_last_7d"`
	ComplaintsLast7d         int     `json:"complaints_last_7d"`
}

type scoreResponse struct {
	RiskScore float64 `json:"risk_score"`
}

// Scorer calls the external ML scorer service over HTTP and applies the
// label banding to its probability.
type Scorer struct {
	baseURL string
	client  *http.Client
}

func NewScorer(baseURL string, timeout time.Duration) *Scorer {
	return &Scorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Predict sends the feature vector to the scorer and returns the banded
// prediction. Transport failures and non-200 responses surface as
// ErrScorerUnavailable.
func (s *Scorer) Predict(ctx context.Context, meta CallMeta) (*Prediction, error) {
	payload, err := json.Marshal(scoreRequest{
		DurationSec:              meta.DurationSec,
		HourOfDay:                meta.HourOfDay,
		IsOutbound:               boolToInt(meta.IsOutbound),
		RecentCallsFromCaller24h: meta.RecentCallsFromCaller24h,
		PctAnsweredLast7d:        meta.PctAnsweredLast7d,
		ComplaintsLast7d:         meta.ComplaintsLast7d,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrScorerUnavailable, resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}

	return &Prediction{
		RiskScore: out.RiskScore,
		RiskLabel: LabelFromScore(out.RiskScore),
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
