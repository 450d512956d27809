package report

import "time"

// Report is one audit row for a handled triage request. The excerpt is the
// leading slice of the complaint, not the full text.
type Report struct {
	ID         string    `json:"id"`
	Excerpt    string    `json:"excerpt"`
	Language   string    `json:"language"`
	ScamType   string    `json:"scam_type"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

const excerptMaxLen = 280

// MakeExcerpt trims complaint text down to the stored excerpt length, cutting
// on a rune boundary so multi-byte text stays valid UTF-8.
func MakeExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptMaxLen {
		return text
	}
	return string(runes[:excerptMaxLen])
}
