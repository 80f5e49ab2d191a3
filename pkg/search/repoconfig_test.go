package search

import "testing"

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		name   string
		cfg    RepositorySearchConfig
		query  string
		want   string
	}{
		{
			name:  "prefix prepended",
			cfg:   RepositorySearchConfig{SearchPrefix: "(ext:cs)"},
			query: "account schema",
			want:  "(ext:cs) account schema",
		},
		{
			name:  "no prefix passes through",
			cfg:   RepositorySearchConfig{},
			query: "account schema",
			want:  "account schema",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ApplyPrefix(tt.query); got != tt.want {
				t.Errorf("ApplyPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldExcludePath(t *testing.T) {
	cfg := RepositorySearchConfig{
		ExcludedPaths: []string{"test", "proxy"},
		IncludedPaths: []string{"prc_public"},
	}

	tests := []struct {
		name        string
		path        string
		agentSearch bool
		want        bool
	}{
		{"excluded substring", "/prc_public/TestHelpers.cs", false, true},
		{"excluded case-insensitive", "/prc_public/Account.Proxy.cs", false, true},
		{"included path allowed", "/prc_public/prc_GetAccount.sql", false, false},
		{"outside included paths blocked for users", "/src/Account.cs", false, true},
		{"agent search ignores included paths", "/src/Account.cs", true, false},
		{"agent search still honors exclusions", "/src/test/Account.cs", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ShouldExcludePath(tt.path, tt.agentSearch); got != tt.want {
				t.Errorf("ShouldExcludePath(%q, %v) = %v, want %v", tt.path, tt.agentSearch, got, tt.want)
			}
		})
	}
}

func TestRegistryGet(t *testing.T) {
	r := DefaultRegistry()

	cfg, err := r.Get("AdsAppsMT")
	if err != nil {
		t.Fatalf("Get(AdsAppsMT): %v", err)
	}
	if cfg.Organization != "msasg" || cfg.Project != "Bing_Ads" {
		t.Errorf("unexpected org/project: %s/%s", cfg.Organization, cfg.Project)
	}
	if cfg.SearchPrefix != "(ext:cs)" {
		t.Errorf("SearchPrefix = %q", cfg.SearchPrefix)
	}

	if _, err := r.Get("nope"); err == nil {
		t.Error("Get(nope) succeeded, want error")
	}
}
