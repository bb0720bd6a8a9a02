// Package browser opens Chozy web pages in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Starter launches an external command without waiting for it.
type Starter func(name string, args ...string) error

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start() // #nosec G204 -- URL validated by caller
}

// Opener opens validated http(s) URLs.
type Opener struct {
	goos  string
	start Starter
}

// NewOpener returns an Opener for the running platform.
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS, start: startCommand}
}

// NewOpenerWith returns an Opener that runs commands through start as if on goos.
func NewOpenerWith(goos string, start Starter) *Opener {
	return &Opener{goos: goos, start: start}
}

// Open opens the specified URL in the default browser.
// It validates the URL before passing it to the system browser to prevent command injection.
func (o *Opener) Open(urlString string) error {
	if err := validate(urlString); err != nil {
		return err
	}

	switch o.goos {
	case "linux":
		return o.start("xdg-open", urlString)
	case "darwin":
		return o.start("open", urlString)
	case "windows":
		return o.start("rundll32", "url.dll,FileProtocolHandler", urlString)
	default:
		return fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

// FeedURL returns the web address of a feed item under webURL.
func FeedURL(webURL string, feedID int64) (string, error) {
	if err := validate(webURL); err != nil {
		return "", err
	}
	if feedID <= 0 {
		return "", fmt.Errorf("invalid feed id: %d", feedID)
	}
	return strings.TrimRight(webURL, "/") + "/community/feeds/" + strconv.FormatInt(feedID, 10), nil
}

func validate(urlString string) error {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Whitelist allowed schemes to prevent malicious URLs
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}
