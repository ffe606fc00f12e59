// Package scrape fetches a restaurant's menu page and reduces it to plain
// text likely to contain menu listings.
package scrape

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// strippedSelector matches non-content markup removed before text extraction.
const strippedSelector = "script, style, noscript, iframe, nav, header, footer"

// containerSelectors are the generic content regions tried after menu-named
// regions, in priority order.
var containerSelectors = []string{"main", "article", "#content", ".content", "div[role='main']"}

var whitespacePattern = regexp.MustCompile(`\s+`)

// Config bounds the scraper's output.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MinRegionChars int // A candidate region must exceed this to win
	MinTotalChars  int // Below this the page is considered empty
	MaxTotalChars  int // Hard cap to bound downstream LLM cost
}

// DefaultConfig returns the scraper defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		Timeout:        30 * time.Second,
		MinRegionChars: 200,
		MinTotalChars:  50,
		MaxTotalChars:  10000,
	}
}

// Scraper fetches menu pages over HTTP and extracts menu-like text.
type Scraper struct {
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Scraper. Zero-valued config fields fall back to defaults.
func New(cfg Config, logger *zap.Logger) *Scraper {
	defaults := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MinRegionChars == 0 {
		cfg.MinRegionChars = defaults.MinRegionChars
	}
	if cfg.MinTotalChars == 0 {
		cfg.MinTotalChars = defaults.MinTotalChars
	}
	if cfg.MaxTotalChars == 0 {
		cfg.MaxTotalChars = defaults.MaxTotalChars
	}

	return &Scraper{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger.Named("scrape"),
	}
}

// MenuText fetches the page at url and returns plain text likely to contain
// menu listings. It prefers regions whose class or id mentions "menu", then
// generic content containers, then the whole body.
func (s *Scraper) MenuText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	// Some servers reject requests with default or empty client identifiers.
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	doc.Find(strippedSelector).Remove()

	text := s.selectMenuText(doc)
	text = collapseWhitespace(text)

	text = truncateRunes(text, s.cfg.MaxTotalChars)

	if len(text) < s.cfg.MinTotalChars {
		return "", &InsufficientContentError{URL: url, Length: len(text)}
	}

	s.logger.Debug("extracted menu text",
		zap.String("url", url),
		zap.Int("chars", len(text)))

	return text, nil
}

// selectMenuText walks candidate regions in priority order and returns the
// first whose text clears the region threshold, falling back to the body.
func (s *Scraper) selectMenuText(doc *goquery.Document) string {
	if text, ok := s.firstSufficient(menuNamedRegions(doc)); ok {
		return text
	}

	for _, selector := range containerSelectors {
		if text, ok := s.firstSufficient(doc.Find(selector)); ok {
			return text
		}
	}

	return doc.Find("body").Text()
}

// firstSufficient returns the collapsed text of the first element in sel that
// exceeds the region threshold.
func (s *Scraper) firstSufficient(sel *goquery.Selection) (string, bool) {
	var result string
	sel.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := collapseWhitespace(el.Text())
		if len(text) > s.cfg.MinRegionChars {
			result = text
			return false
		}
		return true
	})
	return result, result != ""
}

// menuNamedRegions selects elements whose class or id contains "menu",
// case-insensitively, in document order.
func menuNamedRegions(doc *goquery.Document) *goquery.Selection {
	return doc.Find("[class],[id]").FilterFunction(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		id, _ := el.Attr("id")
		return strings.Contains(strings.ToLower(class), "menu") ||
			strings.Contains(strings.ToLower(id), "menu")
	})
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// truncateRunes caps text at max characters without splitting a multi-byte
// rune.
func truncateRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := 0
	for i := range text {
		if runes == max {
			return text[:i]
		}
		runes++
	}
	return text
}
