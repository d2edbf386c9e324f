package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser cookie stores
	"github.com/browserutils/kooky/browser/firefox"
)

// BrowserSource reads Instagram cookies from local browser cookie stores.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Cookies returns Instagram cookies from browser stores, trying Firefox
// profiles directly before falling back to kooky's automatic detection.
// A failed read is never fatal; live fetching simply stays anonymous.
func (s *BrowserSource) Cookies(ctx context.Context) (map[string]string, error) {
	s.logger.DebugContext(ctx, "reading browser cookies", "domain", CookieDomain)

	if cookies := s.tryFirefoxProfiles(ctx); len(cookies) > 0 {
		return cookies, nil
	}

	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(CookieDomain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}
	if len(kookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}

	return s.filterEssential(kookies), nil
}

// tryFirefoxProfiles globs cookie databases from the usual Firefox profile
// locations, which kooky does not always detect on its own.
func (s *BrowserSource) tryFirefoxProfiles(ctx context.Context) map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	patterns := []string{
		filepath.Join(home, ".mozilla", "firefox", "*", "cookies.sqlite"),
		filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles", "*", "cookies.sqlite"),
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, f := range matches {
			kookies, err := firefox.ReadCookies(ctx, f, kooky.Valid, kooky.DomainHasSuffix(CookieDomain))
			if err != nil || len(kookies) == 0 {
				continue
			}
			s.logger.Debug("found Firefox cookies",
				"profile", filepath.Base(filepath.Dir(f)),
				"count", len(kookies))
			return s.filterEssential(kookies)
		}
	}

	return nil
}

// filterEssential keeps only the cookies the Instagram API cares about.
func (s *BrowserSource) filterEssential(kookies []*kooky.Cookie) map[string]string {
	wanted := make(map[string]bool, len(essentialCookies))
	for _, name := range essentialCookies {
		wanted[name] = true
	}

	cookies := make(map[string]string)
	for _, c := range kookies {
		if wanted[c.Name] {
			cookies[c.Name] = c.Value
		}
	}

	var found, missing []string
	for _, name := range essentialCookies {
		if _, ok := cookies[name]; ok {
			found = append(found, name)
		} else {
			missing = append(missing, name)
		}
	}
	if len(found) > 0 {
		s.logger.Info("browser cookies found", "keys", found)
	}
	if len(missing) > 0 {
		s.logger.Info("browser cookies missing", "keys", missing)
	}

	return cookies
}
