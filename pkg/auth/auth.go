// Package auth resolves Instagram session cookies for authenticated live
// fetches. Anonymous access works for most public profiles; cookies only
// widen coverage.
package auth

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
)

// CookieDomain is the domain the resolved cookies belong to.
const CookieDomain = "instagram.com"

// essentialCookies are the cookie names Instagram's web API cares about.
var essentialCookies = []string{"sessionid", "csrftoken"}

// envCookieVars maps environment variable names to cookie names.
var envCookieVars = map[string]string{
	"INSTAGRAM_SESSIONID": "sessionid",
	"INSTAGRAM_CSRFTOKEN": "csrftoken",
}

// Source is a provider of session cookies.
type Source interface {
	// Cookies returns cookies keyed by name, or nil if unavailable.
	Cookies(ctx context.Context) (map[string]string, error)
}

// ChainSources returns cookies from the first source that provides any.
func ChainSources(ctx context.Context, sources ...Source) (map[string]string, error) {
	for _, src := range sources {
		cookies, err := src.Cookies(ctx)
		if err != nil {
			return nil, err
		}
		if len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil //nolint:nilnil // no source had cookies, but this is not an error
}

// NewCookieJar creates an http.CookieJar populated with the given cookies for
// the Instagram domain.
func NewCookieJar(cookies map[string]string) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse("https://" + CookieDomain)
	if err != nil {
		return nil, err
	}

	var httpCookies []*http.Cookie
	for name, value := range cookies {
		if value != "" {
			httpCookies = append(httpCookies, &http.Cookie{
				Name:   name,
				Value:  value,
				Domain: "." + CookieDomain,
				Path:   "/",
			})
		}
	}

	jar.SetCookies(u, httpCookies)
	return jar, nil
}

// StaticSource provides cookies from a fixed map, for tests or explicit
// option values.
type StaticSource struct {
	cookies map[string]string
}

// NewStaticSource creates a cookie source from a static map.
func NewStaticSource(cookies map[string]string) *StaticSource {
	return &StaticSource{cookies: cookies}
}

// Cookies returns a copy of the static cookies.
func (s *StaticSource) Cookies(_ context.Context) (map[string]string, error) {
	if len(s.cookies) == 0 {
		return nil, nil //nolint:nilnil // empty static source is not an error
	}
	result := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		result[k] = v
	}
	return result, nil
}

// EnvSource reads cookies from INSTAGRAM_SESSIONID and INSTAGRAM_CSRFTOKEN.
type EnvSource struct{}

// Cookies returns cookies found in the environment.
func (EnvSource) Cookies(_ context.Context) (map[string]string, error) {
	cookies := make(map[string]string)
	for envVar, cookieName := range envCookieVars {
		if value := os.Getenv(envVar); value != "" {
			cookies[cookieName] = value
		}
	}

	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return cookies, nil
}

// EnvVars returns the environment variable names the EnvSource consults, for
// help messages.
func EnvVars() []string {
	vars := make([]string, 0, len(envCookieVars))
	for envVar := range envCookieVars {
		vars = append(vars, envVar)
	}
	return vars
}
