package main

import (
	"context"
	"flag"
	"log"
	"os"

	"golang.org/x/xerrors"

	"github.com/cpansec/cpan-vulndb/cpan"
	"github.com/cpansec/cpan-vulndb/cpansa"
	"github.com/cpansec/cpan-vulndb/db"
	"github.com/cpansec/cpan-vulndb/logger"
	"github.com/cpansec/cpan-vulndb/metacpan"
	"github.com/cpansec/cpan-vulndb/snapshot"
	"github.com/cpansec/cpan-vulndb/utils"
)

var (
	output = flag.String("o", "", "output file (default: stdout)")
	gpgKey = flag.String("gpg-key", "", "sign the snapshot with this GPG key id")
	quiet  = flag.Bool("quiet", false, "suppress diagnostics")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()

	lg := logger.New(os.Stderr)
	if *quiet {
		lg = logger.Nop()
	}

	loader := cpansa.NewLoader(
		cpansa.WithArchiveURL(utils.LookupEnv("CPANSA_ARCHIVE_URL", cpansa.DefaultArchiveURL)),
		cpansa.WithLogger(lg),
	)

	var advisories map[string][]cpansa.Advisory
	var err error
	if files := flag.Args(); len(files) > 0 {
		advisories, err = loader.Load(files)
	} else {
		advisories, err = loader.LoadDefault(context.Background())
	}
	if err != nil {
		return xerrors.Errorf("failed to load advisories: %w", err)
	}

	index := cpan.NewIndex(
		cpan.WithURL(utils.LookupEnv("CPAN_INDEX_URL", cpan.DefaultIndexURL)),
		cpan.WithLogger(lg),
	)
	releases := metacpan.NewClient(
		metacpan.WithURL(utils.LookupEnv("METACPAN_URL", metacpan.DefaultSearchURL)),
	)

	aggregator := db.NewAggregator(index, releases,
		db.WithLogger(lg),
		db.WithProgress(!*quiet),
	)
	database, err := aggregator.Build(advisories)
	if err != nil {
		return xerrors.Errorf("failed to build the database: %w", err)
	}

	writer := snapshot.NewWriter(
		snapshot.WithGPGKey(*gpgKey),
		snapshot.WithLogger(lg),
	)
	if err := writer.Write(*output, database); err != nil {
		return xerrors.Errorf("failed to write the snapshot: %w", err)
	}

	return nil
}
