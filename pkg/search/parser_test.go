package search

import "testing"

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SearchFilters
	}{
		{
			name: "plain query",
			raw:  "account schema",
			want: SearchFilters{SearchQuery: "account schema"},
		},
		{
			name: "repo filter",
			raw:  "/repo:AdsAppsMT account schema",
			want: SearchFilters{Repository: "AdsAppsMT", SearchQuery: "account schema"},
		},
		{
			name: "in alias",
			raw:  "account /in:AdsAppsDB schema",
			want: SearchFilters{Repository: "AdsAppsDB", SearchQuery: "account schema"},
		},
		{
			name: "branch filter",
			raw:  "/repo:AdsAppsMT /branch:release account",
			want: SearchFilters{Repository: "AdsAppsMT", Branch: "release", SearchQuery: "account"},
		},
		{
			name: "filters only",
			raw:  "/repo:AdsAppsMT",
			want: SearchFilters{Repository: "AdsAppsMT"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQuery(tt.raw); got != tt.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyQueryParser(t *testing.T) {
	tests := []struct {
		query string
		want  QueryKind
	}{
		{"AccountStore", KindLiteral},
		{"prc_GetAccount", KindLiteral},
		{"(ext:script) budget", KindLiteral},
		{"src/account.cs", KindLiteral},
		{"how are accounts persisted", KindNatural},
		{"account schema", KindNatural},
	}
	for _, tt := range tests {
		if got := ClassifyQuery(tt.query); got != tt.want {
			t.Errorf("ClassifyQuery(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
