package risk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelFromScore(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.0, "low"},
		{0.39, "low"},
		{0.40, "medium"},
		{0.6999, "medium"},
		{0.70, "high"},
		{1.0, "high"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LabelFromScore(c.score), "score %v", c.score)
	}
}

func TestCallMeta_Validate(t *testing.T) {
	valid := CallMeta{
		Caller:            "+60123456789",
		Callee:            "+60388888888",
		HourOfDay:         21,
		PctAnsweredLast7d: 0.1,
	}
	assert.NoError(t, valid.Validate())

	t.Run("Missing parties", func(t *testing.T) {
		m := valid
		m.Caller = ""
		assert.Error(t, m.Validate())
	})

	t.Run("Hour out of range", func(t *testing.T) {
		m := valid
		m.HourOfDay = 24
		assert.Error(t, m.Validate())
	})

	t.Run("Answer rate out of range", func(t *testing.T) {
		m := valid
		m.PctAnsweredLast7d = 1.5
		assert.Error(t, m.Validate())
	})
}

func TestScorer_Predict(t *testing.T) {
	meta := CallMeta{
		Caller:                   "+60123456789",
		Callee:                   "+60388888888",
		DurationSec:              45,
		HourOfDay:                21,
		IsOutbound:               true,
		RecentCallsFromCaller24h: 8,
		PctAnsweredLast7d:        0.1,
		ComplaintsLast7d:         3,
	}

	t.Run("Sends model features and bands the score", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/score", r.URL.Path)

			var req scoreRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 45, req.DurationSec)
			assert.Equal(t, 1, req.IsOutbound)
			assert.Equal(t, 8, req.RecentCallsFromCaller24h)

			json.NewEncoder(w).Encode(scoreResponse{RiskScore: 0.82})
		}))
		defer ts.Close()

		p, err := NewScorer(ts.URL, 5*time.Second).Predict(context.Background(), meta)
		require.NoError(t, err)
		assert.Equal(t, 0.82, p.RiskScore)
		assert.Equal(t, "high", p.RiskLabel)
	})

	t.Run("Scorer down is ErrScorerUnavailable", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer ts.Close()

		_, err := NewScorer(ts.URL, 5*time.Second).Predict(context.Background(), meta)
		assert.ErrorIs(t, err, ErrScorerUnavailable)
	})

	t.Run("Unreachable host is ErrScorerUnavailable", func(t *testing.T) {
		_, err := NewScorer("http://127.0.0.1:1", time.Second).Predict(context.Background(), meta)
		assert.ErrorIs(t, err, ErrScorerUnavailable)
	})
}
