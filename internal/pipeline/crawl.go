// Package pipeline implements the end-to-end pipeline orchestrator
// (C8): crawl -> extract -> fan-out summary/questions -> fan-out
// embeddings -> persist, with idempotence and partial-failure
// semantics. crawl.go's HTML fetch/extract is grounded on the
// teacher's internal/fetch/fetch.go (goquery-based ParseArticleContent,
// title fallback cascade), extended with the retry/size-cap/language
// extraction the spec adds.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"contentproc/internal/apperrors"
	"contentproc/internal/breaker"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxBodyBytes = 10 << 20 // 10 MiB
)

type crawlResult struct {
	Title    string
	Text     string
	Language string
	Domain   string
}

var mainContentSelectors = []string{
	"article", "main", ".main-content", ".entry-content", ".post-content",
	".post-body", ".article-body", "[role='main']", ".content", "#content",
}

var newlineRunRegex = regexp.MustCompile(`\n\s*\n\s*\n+`)

// crawl fetches url with up to 3 attempts at exponential backoff
// (breaker.DefaultRetryOptions: 1s before the second attempt, 2s
// before the third), rejects oversized bodies, and extracts title/main
// text/language/domain.
func crawl(ctx context.Context, httpClient *http.Client, targetURL string, maxBodyBytes int64) (*crawlResult, error) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	var body []byte
	err := breaker.Retry(ctx, breaker.DefaultRetryOptions(), func(error) bool { return true }, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, targetURL, nil)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeValidation, "invalid URL", err)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeNetwork, "fetch failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return apperrors.New(apperrors.CodeNetwork, fmt.Sprintf("fetch %s: status %d", targetURL, resp.StatusCode))
		}

		limited := io.LimitReader(resp.Body, maxBodyBytes+1)
		b, err := io.ReadAll(limited)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeNetwork, "read body failed", err)
		}
		if int64(len(b)) > maxBodyBytes {
			return apperrors.New(apperrors.CodeValidation, "response body exceeds configured cap")
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return extract(body, targetURL)
}

// extract parses HTML into cleaned text, title, language, and domain.
// Grounded on fetch.ParseArticleContent's selector cascade and
// boilerplate-stripping.
func extract(htmlBody []byte, sourceURL string) (*crawlResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBody)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCorruptArtifact, "parse HTML failed", err)
	}

	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript, .sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner").Remove()

	var textBuilder strings.Builder
	for _, selector := range mainContentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			s.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
				t := strings.TrimSpace(item.Text())
				if t != "" {
					textBuilder.WriteString(t)
					textBuilder.WriteString("\n\n")
				}
			})
		})
		if textBuilder.Len() > 0 {
			break
		}
	}
	if textBuilder.Len() == 0 {
		doc.Find("body").Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
			t := strings.TrimSpace(item.Text())
			if t != "" {
				textBuilder.WriteString(t)
				textBuilder.WriteString("\n\n")
			}
		})
	}

	cleanedText := strings.TrimSpace(newlineRunRegex.ReplaceAllString(textBuilder.String(), "\n\n"))

	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if title == "" {
		if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
			title = strings.TrimSpace(og)
		}
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" && cleanedText != "" {
		words := strings.Fields(cleanedText)
		if len(words) > 10 {
			words = words[:10]
		}
		title = strings.Join(words, " ")
	}

	language := "en"
	if lang, ok := doc.Find("html").Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		language = strings.TrimSpace(lang)
	} else if metaLang, ok := doc.Find("meta[name='language']").Attr("content"); ok && metaLang != "" {
		language = metaLang
	}

	domain := ""
	if parsed, err := url.Parse(sourceURL); err == nil {
		domain = strings.ToLower(parsed.Hostname())
	}

	return &crawlResult{Title: title, Text: cleanedText, Language: language, Domain: domain}, nil
}
