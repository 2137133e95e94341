// Package metacpan resolves the release history of CPAN distributions through
// the MetaCPAN release search API.
package metacpan

import (
	"encoding/json"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/cpansec/cpan-vulndb/utils"
)

const (
	// DefaultSearchURL is the MetaCPAN release search endpoint.
	DefaultSearchURL = "https://fastapi.metacpan.org/v1/release/_search"

	// pageSize is well above the release count of any CPAN distribution, so a
	// single request returns the full history.
	pageSize = 5000
)

var requestedFields = []string{"date", "version", "status", "main_module"}

type options struct {
	url string
}

type option func(*options)

func WithURL(url string) option {
	return func(opts *options) { opts.url = url }
}

type Client struct {
	*options
}

func NewClient(opts ...option) Client {
	o := &options{
		url: DefaultSearchURL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return Client{options: o}
}

// Releases returns the full release history of a distribution, ascending by
// release date. An unknown distribution yields an empty history; a failed
// request is an error the caller must treat as fatal.
func (c Client) Releases(dist string) ([]Release, error) {
	req := searchRequest{
		Size:   pageSize,
		Fields: requestedFields,
		Filter: searchFilter{
			Term: map[string]string{"distribution": dist},
		},
		Sort: []map[string]string{{"date": "asc"}},
	}

	body, err := utils.PostJSON(c.url, req)
	if err != nil {
		return nil, xerrors.Errorf("MetaCPAN release search failed for %s: %w", dist, err)
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, xerrors.Errorf("failed to parse MetaCPAN response for %s: %w", dist, err)
	}

	return lo.Map(res.Hits.Hits, func(h searchHit, _ int) Release {
		return h.Fields
	}), nil
}

// MainModule returns the module name of the release marked "latest", falling
// back to the most recent release when no release carries that status.
func MainModule(releases []Release) string {
	for _, r := range releases {
		if r.Status == "latest" {
			return r.MainModule
		}
	}
	return lo.LastOrEmpty(releases).MainModule
}
