package search

import (
	"fmt"
	"strings"
)

// RepositorySearchConfig holds per-repository search settings: the
// extension prefix prepended to queries and the path filters applied to
// results.
type RepositorySearchConfig struct {
	Name          string
	Organization  string
	Project       string
	SearchPrefix  string
	ExcludedPaths []string
	IncludedPaths []string
}

// ApplyPrefix prepends the repository's search prefix to the query.
func (c RepositorySearchConfig) ApplyPrefix(searchText string) string {
	if c.SearchPrefix == "" {
		return searchText
	}
	return c.SearchPrefix + " " + searchText
}

// ShouldExcludePath reports whether a result path is filtered out.
// Included paths only bind interactive searches; the research loop
// (agentSearch) sees the whole repository minus exclusions.
func (c RepositorySearchConfig) ShouldExcludePath(path string, agentSearch bool) bool {
	pathLower := strings.ToLower(path)

	if len(c.IncludedPaths) > 0 && !agentSearch {
		matched := false
		for _, included := range c.IncludedPaths {
			if strings.Contains(pathLower, included) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
	}

	for _, excluded := range c.ExcludedPaths {
		if strings.Contains(pathLower, excluded) {
			return true
		}
	}
	return false
}

// Registry resolves repository names to their search configuration.
type Registry struct {
	configs map[string]RepositorySearchConfig
}

func NewRegistry(configs ...RepositorySearchConfig) *Registry {
	m := make(map[string]RepositorySearchConfig, len(configs))
	for _, c := range configs {
		m[c.Name] = c
	}
	return &Registry{configs: m}
}

func (r *Registry) Get(name string) (RepositorySearchConfig, error) {
	c, ok := r.configs[name]
	if !ok {
		return RepositorySearchConfig{}, fmt.Errorf("repository %q is not configured", name)
	}
	return c, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry returns the built-in repository configurations.
func DefaultRegistry() *Registry {
	return NewRegistry(
		RepositorySearchConfig{
			Name:          "AdsAppsMT",
			Organization:  "msasg",
			Project:       "Bing_Ads",
			SearchPrefix:  "(ext:cs)",
			ExcludedPaths: []string{"test", "proxy", "proxies", "campaignservice.cs"},
		},
		RepositorySearchConfig{
			Name:          "AdsAppsDB",
			Organization:  "msasg",
			Project:       "Bing_Ads",
			SearchPrefix:  "(ext:sql)",
			IncludedPaths: []string{"prc_public"},
		},
		RepositorySearchConfig{
			Name:          "AdsAppsCampaignUI",
			Organization:  "msasg",
			Project:       "Bing_Ads",
			SearchPrefix:  "(ext:js OR ext:ts OR ext:jsx OR ext:tsx)",
			ExcludedPaths: []string{"test", "suite", "tapi", "demo"},
		},
		RepositorySearchConfig{
			Name:          "AdsAppUISharedComponents",
			Organization:  "msasg",
			Project:       "Bing_Ads",
			SearchPrefix:  "(ext:js OR ext:ts OR ext:jsx OR ext:tsx OR ext:es)",
			ExcludedPaths: []string{"test", "suite", "tapi", "demo"},
		},
		RepositorySearchConfig{
			Name:          "AdsAppUI",
			Organization:  "msasg",
			Project:       "Bing_Ads",
			SearchPrefix:  "(ext:js OR ext:ts OR ext:jsx OR ext:tsx)",
			ExcludedPaths: []string{"test", "suite", "tapi", "demo"},
		},
		RepositorySearchConfig{
			Name:          "msnews-experiences",
			Organization:  "msasg",
			Project:       "ContentServices",
			SearchPrefix:  "(ext:js OR ext:ts OR ext:jsx OR ext:tsx)",
			ExcludedPaths: []string{"test", "undefined"},
		},
		RepositorySearchConfig{
			Name:         "coreux-components",
			Organization: "msasg",
			Project:      "ContentServices",
			SearchPrefix: "(ext:js OR ext:ts OR ext:jsx OR ext:tsx)",
		},
	)
}
