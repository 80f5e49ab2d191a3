package search

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const apiVersion = "7.1"

// AzureDevOpsClient searches code through the Azure DevOps almsearch API
// and fetches file content through the git items API, authenticating
// with a personal access token.
type AzureDevOpsClient struct {
	registry *Registry
	pat      string
	client   *http.Client

	// Overridable for tests.
	searchBaseURL string
	itemsBaseURL  string
}

var _ ISearchClient = &AzureDevOpsClient{}

func NewAzureDevOpsClient(registry *Registry, pat string) *AzureDevOpsClient {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &AzureDevOpsClient{
		registry:      registry,
		pat:           pat,
		client:        &http.Client{Timeout: 60 * time.Second},
		searchBaseURL: "https://almsearch.dev.azure.com",
		itemsBaseURL:  "https://dev.azure.com",
	}
}

// --- Wire structs ---

type codeSearchRequest struct {
	SearchText string              `json:"searchText"`
	Top        int                 `json:"$top"`
	Filters    map[string][]string `json:"filters,omitempty"`
}

type codeSearchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		Path       string `json:"path"`
		Repository struct {
			Name string `json:"name"`
		} `json:"repository"`
		Versions []struct {
			BranchName string `json:"branchName"`
		} `json:"versions"`
		Matches struct {
			Content []json.RawMessage `json:"content"`
		} `json:"matches"`
	} `json:"results"`
}

func (c *AzureDevOpsClient) authHeader() string {
	token := base64.StdEncoding.EncodeToString([]byte(":" + c.pat))
	return "Basic " + token
}

// SearchCode searches one repository. The repository's configured
// prefix is applied to the query and its path filters to the results,
// which come back ordered by path relevance then match count.
func (c *AzureDevOpsClient) SearchCode(ctx context.Context, searchText, repository string, params SearchParams) ([]CodeResult, error) {
	cfg, err := c.registry.Get(repository)
	if err != nil {
		return nil, err
	}

	query := searchText
	if !params.WithoutPrefix && ClassifyQuery(searchText) != KindFiltered {
		query = cfg.ApplyPrefix(searchText)
	}
	branch := params.Branch
	if branch == "" {
		branch = "master"
	}
	top := params.MaxResults
	if top <= 0 {
		top = 1000
	}

	payload := codeSearchRequest{
		SearchText: query,
		Top:        top,
		Filters: map[string][]string{
			"Repository": {repository},
			"Branch":     {branch},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/_apis/search/codesearchresults?api-version=%s",
		c.searchBaseURL, cfg.Organization, cfg.Project, apiVersion)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("code search error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp codeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]CodeResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		if cfg.ShouldExcludePath(r.Path, params.AgentSearch) {
			continue
		}
		resultBranch := branch
		if len(r.Versions) > 0 && r.Versions[0].BranchName != "" {
			resultBranch = r.Versions[0].BranchName
		}
		repoName := r.Repository.Name
		if repoName == "" {
			repoName = repository
		}
		results = append(results, CodeResult{
			Repository:     repoName,
			Path:           r.Path,
			Branch:         resultBranch,
			ContentMatches: len(r.Matches.Content),
		})
	}

	// Files with the query in their path rank first, then by match count.
	queryLower := strings.ToLower(searchText)
	sort.SliceStable(results, func(i, j int) bool {
		iInPath := strings.Contains(strings.ToLower(results[i].Path), queryLower)
		jInPath := strings.Contains(strings.ToLower(results[j].Path), queryLower)
		if iInPath != jInPath {
			return iInPath
		}
		return results[i].ContentMatches > results[j].ContentMatches
	})
	return results, nil
}

// FetchContent retrieves one file as plain text via the git items API.
func (c *AzureDevOpsClient) FetchContent(ctx context.Context, repository, path, branch string) (string, error) {
	cfg, err := c.registry.Get(repository)
	if err != nil {
		return "", err
	}
	if branch == "" {
		branch = "master"
	}

	endpoint := fmt.Sprintf("%s/%s/%s/_apis/git/repositories/%s/items?path=%s&versionDescriptor.version=%s&includeContent=true&api-version=%s",
		c.itemsBaseURL, cfg.Organization, cfg.Project, url.PathEscape(repository),
		url.QueryEscape(path), url.QueryEscape(branch), apiVersion)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create content request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Accept", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("content fetch error for %s: status %d", path, resp.StatusCode)
	}
	return string(bodyBytes), nil
}
