// Package cpan builds the module-to-distribution index from the CPAN
// 02packages package index.
package cpan

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/xerrors"

	"github.com/cpansec/cpan-vulndb/logger"
	"github.com/cpansec/cpan-vulndb/utils"
)

const (
	// DefaultIndexURL is the authoritative module index of the CPAN registry.
	DefaultIndexURL = "https://www.cpan.org/modules/02packages.details.txt.gz"

	retry = 3

	// 02packages lines can carry long module names; the default Scanner
	// buffer is plenty, this is just a safety margin.
	maxLineSize = 1024 * 1024
)

type options struct {
	url    string
	retry  int
	logger logger.Logger
}

type option func(*options)

func WithURL(url string) option {
	return func(opts *options) { opts.url = url }
}

func WithLogger(l logger.Logger) option {
	return func(opts *options) { opts.logger = l }
}

func WithRetry(n int) option {
	return func(opts *options) { opts.retry = n }
}

type Index struct {
	*options
}

func NewIndex(opts ...option) Index {
	o := &options{
		url:    DefaultIndexURL,
		retry:  retry,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return Index{options: o}
}

// Provides downloads the package index and maps every listed module to its
// owning distribution, restricted to the given distribution set. Duplicate
// module rows follow file order, last occurrence wins. Rows whose pathname is
// not a recognizable distribution archive are skipped and only surfaced as an
// aggregate count.
func (c Index) Provides(dists map[string]struct{}) (map[string]string, error) {
	c.logger.Infof("Fetching the CPAN package index...")
	body, err := utils.FetchURL(c.url, "", c.retry)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch the CPAN package index: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.Errorf("failed to decompress the CPAN package index: %w", err)
	}
	defer gz.Close()

	provides := map[string]string{}
	unparseable := 0
	inHeader := true

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			// The header block ends at the first blank line.
			if strings.TrimSpace(line) == "" {
				inHeader = false
			}
			continue
		}

		// module_name  module_version  package_pathname
		fields := strings.Fields(line)
		if len(fields) < 3 {
			unparseable++
			continue
		}

		info, ok := ParseDistname(fields[2])
		if !ok || info.Name == "" {
			unparseable++
			continue
		}
		if _, ok := dists[info.Name]; !ok {
			continue
		}
		provides[fields[0]] = info.Name
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("failed to read the CPAN package index: %w", err)
	}

	if unparseable > 0 {
		c.logger.Infof("skipped %d unparseable index lines", unparseable)
	}
	return provides, nil
}
