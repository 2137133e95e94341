// Package snapshot serializes the vulnerability database into a versioned
// JSON artifact and optionally signs it.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/cpansec/cpan-vulndb/db"
	"github.com/cpansec/cpan-vulndb/logger"
	"github.com/cpansec/cpan-vulndb/utils"
)

const stampLayout = "20060102"

// Envelope is the persisted snapshot. Key names follow the CPAN audit
// database layout so existing consumers can load the artifact.
type Envelope struct {
	Version         string                 `json:"version"`
	Generated       string                 `json:"generated"`
	Packages        map[string]*db.Package `json:"db"`
	ModuleToPackage map[string]string      `json:"module2dist"`
}

type options struct {
	fs     afero.Fs
	out    io.Writer
	gpgKey string
	logger logger.Logger
	now    func() time.Time
}

type option func(*options)

func WithFs(fs afero.Fs) option {
	return func(opts *options) { opts.fs = fs }
}

// WithOut sets the stream used when no output path is given.
func WithOut(w io.Writer) option {
	return func(opts *options) { opts.out = w }
}

func WithGPGKey(keyID string) option {
	return func(opts *options) { opts.gpgKey = keyID }
}

func WithLogger(l logger.Logger) option {
	return func(opts *options) { opts.logger = l }
}

func WithNow(now func() time.Time) option {
	return func(opts *options) { opts.now = now }
}

type Writer struct {
	*options
}

func NewWriter(opts ...option) Writer {
	o := &options{
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return Writer{options: o}
}

// Write serializes the database to path, deriving the version stamp from any
// previous snapshot found there. An empty path writes to the configured
// stream instead and skips signing.
func (w Writer) Write(path string, database *db.Database) error {
	env := Envelope{
		Version:         w.nextVersion(path),
		Generated:       w.now().UTC().Format(time.RFC3339),
		Packages:        database.Packages,
		ModuleToPackage: database.ModuleToPackage,
	}

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal the snapshot: %w", err)
	}
	b = append(b, '\n')

	if path == "" {
		if _, err := w.out.Write(b); err != nil {
			return xerrors.Errorf("failed to write the snapshot: %w", err)
		}
		return nil
	}

	if err := afero.WriteFile(w.fs, path, b, 0644); err != nil {
		return xerrors.Errorf("failed to write the snapshot to %s: %w", path, err)
	}
	w.logger.Infof("wrote %s (version %s)", path, env.Version)

	if w.gpgKey != "" {
		return w.sign(path)
	}
	return nil
}

// nextVersion derives the YYYYMMDD.NNN stamp: the serial continues from a
// previous same-day snapshot at the same path and restarts at 001 otherwise.
func (w Writer) nextVersion(path string) string {
	today := w.now().UTC().Format(stampLayout)
	serial := 1

	if path != "" {
		if b, err := afero.ReadFile(w.fs, path); err == nil {
			var prev struct {
				Version string `json:"version"`
			}
			if err := json.Unmarshal(b, &prev); err == nil {
				if date, n, ok := splitStamp(prev.Version); ok && date == today {
					serial = n + 1
				}
			}
		}
	}

	return fmt.Sprintf("%s.%03d", today, serial)
}

func splitStamp(stamp string) (string, int, bool) {
	date, serial, found := strings.Cut(stamp, ".")
	if !found || len(date) != len(stampLayout) {
		return "", 0, false
	}
	n, err := strconv.Atoi(serial)
	if err != nil {
		return "", 0, false
	}
	return date, n, true
}

// sign writes a detached armored signature over the exact serialized bytes.
func (w Writer) sign(path string) error {
	if !utils.IsCommandAvailable("gpg") {
		return xerrors.New("gpg command not available")
	}

	args := []string{
		"--batch", "--yes", "--armor",
		"--local-user", w.gpgKey,
		"--output", path + ".asc",
		"--detach-sign", path,
	}
	if _, err := utils.Exec("gpg", args); err != nil {
		return xerrors.Errorf("failed to sign %s: %w", path, err)
	}

	w.logger.Infof("wrote %s.asc", path)
	return nil
}
