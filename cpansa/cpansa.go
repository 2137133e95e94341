package cpansa

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/cpansec/cpan-vulndb/logger"
	"github.com/cpansec/cpan-vulndb/utils"
)

const (
	// DefaultArchiveURL is the CPAN-Security-Advisory repository archive used
	// when no advisory files are given on the command line.
	DefaultArchiveURL = "https://github.com/briandfoy/cpan-security-advisory/archive/refs/heads/master.zip"

	archiveRoot = "cpan-security-advisory-master"
	advisoryDir = "cpansa"
	yamlExt     = ".yml"
)

type options struct {
	archiveURL string
	logger     logger.Logger
}

type option func(*options)

func WithArchiveURL(url string) option {
	return func(opts *options) { opts.archiveURL = url }
}

func WithLogger(l logger.Logger) option {
	return func(opts *options) { opts.logger = l }
}

type Loader struct {
	*options
}

func NewLoader(opts ...option) Loader {
	o := &options{
		archiveURL: DefaultArchiveURL,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return Loader{options: o}
}

// Load reads the given advisory files in order and groups their advisories by
// distribution. An unreadable file is fatal; a file with an unrecognized shape
// or no distribution name is skipped with a warning. Advisories for the same
// distribution coming from later files are appended after earlier ones, and
// duplicates are kept as-is.
func (l Loader) Load(files []string) (map[string][]Advisory, error) {
	advisories := map[string][]Advisory{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, xerrors.Errorf("unable to read %s: %w", file, err)
		}

		dist, advs, err := parseDocument(data)
		if err != nil {
			l.logger.Warnf("skipping %s: %s", file, err)
			continue
		}
		if dist == "" {
			l.logger.Warnf("skipping %s: no distribution name", file)
			continue
		}

		advisories[dist] = append(advisories[dist], advs...)
	}
	return advisories, nil
}

// LoadDefault downloads the advisory repository archive to a temp dir and
// loads every advisory file under its cpansa directory.
func (l Loader) LoadDefault(ctx context.Context) (map[string][]Advisory, error) {
	l.logger.Infof("Downloading CPAN security advisories...")
	dir, err := utils.DownloadToTempDir(ctx, l.archiveURL)
	if err != nil {
		return nil, xerrors.Errorf("failed to download %s: %w", l.archiveURL, err)
	}
	defer os.RemoveAll(dir)

	files, err := filepath.Glob(filepath.Join(dir, archiveRoot, advisoryDir, "*"+yamlExt))
	if err != nil {
		return nil, xerrors.Errorf("failed to list advisory files: %w", err)
	}
	if len(files) == 0 {
		return nil, xerrors.Errorf("no advisory files found in %s", l.archiveURL)
	}

	return l.Load(files)
}

func parseDocument(data []byte) (string, []Advisory, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc.Distribution, doc.Advisories, nil
	}

	// Not a mapping; the older corpus format is a bare sequence of advisories
	// where the first element names the distribution.
	var advs []Advisory
	if err := yaml.Unmarshal(data, &advs); err == nil && len(advs) > 0 {
		return advs[0].Distribution, advs, nil
	}

	return "", nil, xerrors.New("unrecognized advisory document shape")
}
