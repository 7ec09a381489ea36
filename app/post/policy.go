package post

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultReferrerDomain = "facebook.com"
	DefaultTrackingParam  = "fbclid"
)

// Policy decides which requests are redirected instead of rendered.
type Policy struct {
	ReferrerDomains []string `yaml:"referrer_domains"`
	TrackingParams  []string `yaml:"tracking_params"`
}

func DefaultPolicy() *Policy {
	return &Policy{
		ReferrerDomains: []string{DefaultReferrerDomain},
		TrackingParams:  []string{DefaultTrackingParam},
	}
}

// LoadPolicy reads a policy file. An empty path yields the default policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(policy.ReferrerDomains) == 0 {
		policy.ReferrerDomains = []string{DefaultReferrerDomain}
	}
	if len(policy.TrackingParams) == 0 {
		policy.TrackingParams = []string{DefaultTrackingParam}
	}

	if err := policy.validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	slog.Debug("Redirect policy loaded",
		"file", path,
		"referrer_domains", policy.ReferrerDomains,
		"tracking_params", policy.TrackingParams)

	return &policy, nil
}

func (p *Policy) validate() error {
	for i, domain := range p.ReferrerDomains {
		if strings.TrimSpace(domain) == "" {
			return fmt.Errorf("referrer domain at index %d is empty", i)
		}
	}
	for i, param := range p.TrackingParams {
		if strings.TrimSpace(param) == "" {
			return fmt.Errorf("tracking param at index %d is empty", i)
		}
	}
	return nil
}

// IsRedirectEligible reports whether a request should take the redirect
// branch. It looks only at the request, never at the article.
func (p *Policy) IsRedirectEligible(referrer string, hasTrackingParam bool) bool {
	if hasTrackingParam {
		return true
	}
	if referrer == "" {
		return false
	}
	for _, domain := range p.ReferrerDomains {
		if strings.Contains(referrer, domain) {
			return true
		}
	}
	return false
}

// HasTrackingParam reports whether any configured tracking parameter is
// present with a non-empty value. lookup returns every value of a repeated
// parameter.
func (p *Policy) HasTrackingParam(lookup func(string) []string) bool {
	for _, param := range p.TrackingParams {
		for _, value := range lookup(param) {
			if value != "" {
				return true
			}
		}
	}
	return false
}
