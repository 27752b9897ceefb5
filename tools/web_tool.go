package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meysamhadeli/guidescan/providers/models"
	"golang.org/x/net/html"
)

// maxWebContent caps the page text handed back to the model.
const maxWebContent = 100 * 1024

type webArgs struct {
	URL string `json:"url"`
}

func webContentTool(client *http.Client) models.Tool {
	return models.Tool{
		Name:        "get_web_content",
		Description: "Fetch a web page over HTTP(S) and return its readable text.",
		Params: []models.Param{
			{Name: "url", Type: models.ParamString, Description: "http or https URL", Required: true},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a webArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			if err := requireArg("url", a.URL); err != nil {
				return "", err
			}
			if !strings.HasPrefix(a.URL, "http://") && !strings.HasPrefix(a.URL, "https://") {
				return "", fmt.Errorf("%w: unsupported url %q", ErrInvalidArguments, a.URL)
			}
			return FetchText(ctx, client, a.URL)
		},
	}
}

// FetchText downloads url and returns its text. HTML pages are reduced to
// their visible text; other content types are returned as-is.
func FetchText(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", "guidescan")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request to %s failed with status code '%d'", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*maxWebContent))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text = htmlText(text)
	}
	if len(text) > maxWebContent {
		text = text[:maxWebContent]
	}
	return text, nil
}

// htmlText returns the visible text of an HTML document, one text run per
// line, without scripts and styles.
func htmlText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var lines []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(lines, "\n")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if text := strings.Join(strings.Fields(string(z.Text())), " "); text != "" {
				lines = append(lines, text)
			}
		}
	}
}

func isHiddenTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}
