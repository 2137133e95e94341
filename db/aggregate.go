// Package db defines the vulnerability database model and the aggregator that
// builds it from the advisory corpus, the CPAN package index and the MetaCPAN
// release history.
package db

import (
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/cpansec/cpan-vulndb/cpansa"
	"github.com/cpansec/cpan-vulndb/logger"
	"github.com/cpansec/cpan-vulndb/metacpan"
)

// ModuleIndexer maps importable module names to the distributions owning
// them, restricted to the given distribution set.
type ModuleIndexer interface {
	Provides(dists map[string]struct{}) (map[string]string, error)
}

// ReleaseResolver returns the full release history of one distribution,
// ascending by date.
type ReleaseResolver interface {
	Releases(dist string) ([]metacpan.Release, error)
}

type options struct {
	logger   logger.Logger
	progress bool
}

type option func(*options)

func WithLogger(l logger.Logger) option {
	return func(opts *options) { opts.logger = l }
}

func WithProgress(show bool) option {
	return func(opts *options) { opts.progress = show }
}

type Aggregator struct {
	*options
	index    ModuleIndexer
	releases ReleaseResolver
}

func NewAggregator(index ModuleIndexer, releases ReleaseResolver, opts ...option) Aggregator {
	o := &options{
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return Aggregator{
		options:  o,
		index:    index,
		releases: releases,
	}
}

// Build assembles the Database for the given advisory corpus: the module
// index filtered to advisory-bearing distributions, then one release lookup
// per distribution in sorted order. Distributions without any release are
// dropped with a warning. A failed lookup aborts the whole run; the database
// is meant to be a complete snapshot, not a partial one.
func (a Aggregator) Build(advisories map[string][]cpansa.Advisory) (*Database, error) {
	dists := lo.Keys(advisories)
	slices.Sort(dists)

	distSet := lo.SliceToMap(dists, func(d string) (string, struct{}) {
		return d, struct{}{}
	})
	provides, err := a.index.Provides(distSet)
	if err != nil {
		return nil, xerrors.Errorf("failed to build the module index: %w", err)
	}

	database := &Database{
		Packages:        map[string]*Package{},
		ModuleToPackage: provides,
	}

	a.logger.Infof("Resolving releases for %d distributions...", len(dists))
	var bar *pb.ProgressBar
	if a.progress {
		bar = pb.New(len(dists))
		bar.SetWriter(os.Stderr)
		bar.Start()
	}

	for _, dist := range dists {
		if bar != nil {
			bar.Increment()
		}

		releases, err := a.releases.Releases(dist)
		if err != nil {
			return nil, xerrors.Errorf("failed to resolve releases for %s: %w", dist, err)
		}
		if len(releases) == 0 {
			// Renamed or withdrawn distributions legitimately have advisories
			// but no resolvable releases.
			a.logger.Warnf("no releases found for %s, dropping it", dist)
			continue
		}

		database.Packages[dist] = &Package{
			Advisories: advisories[dist],
			Versions: lo.Map(releases, func(r metacpan.Release, _ int) Release {
				return Release{Date: r.Date, Version: r.Version}
			}),
			MainModule: metacpan.MainModule(releases),
		}
	}
	if bar != nil {
		bar.Finish()
	}

	// The index reports an encoding artifact as the main module of perl
	// itself, so it is pinned here.
	if p, ok := database.Packages["perl"]; ok {
		p.MainModule = "perl"
	}

	return database, nil
}
