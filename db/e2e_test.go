package db_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpansec/cpan-vulndb/cpan"
	"github.com/cpansec/cpan-vulndb/cpansa"
	"github.com/cpansec/cpan-vulndb/db"
	"github.com/cpansec/cpan-vulndb/metacpan"
	"github.com/cpansec/cpan-vulndb/snapshot"
)

// Exercises the whole pipeline with real components: one advisory document,
// a one-line package index and a single-release search response.
func TestPipeline(t *testing.T) {
	advisoryFile := filepath.Join(t.TempDir(), "CPANSA-Foo-Bar.yml")
	require.NoError(t, os.WriteFile(advisoryFile, []byte(`distribution: Foo-Bar
advisories:
  - id: CPANSA-1
`), 0644))

	mux := http.NewServeMux()
	mux.HandleFunc("/modules/02packages.details.txt.gz", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join("testdata", "02packages.details.txt.gz"))
	})
	mux.HandleFunc("/v1/release/_search", func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(`{
  "hits": {
    "hits": [
      {"fields": {"date": "2020-01-01", "version": "1.0", "status": "latest", "main_module": "Foo::Bar"}}
    ]
  }
}`))
		require.NoError(t, err)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	loader := cpansa.NewLoader()
	advisories, err := loader.Load([]string{advisoryFile})
	require.NoError(t, err)

	aggregator := db.NewAggregator(
		cpan.NewIndex(cpan.WithURL(ts.URL+"/modules/02packages.details.txt.gz"), cpan.WithRetry(0)),
		metacpan.NewClient(metacpan.WithURL(ts.URL+"/v1/release/_search")),
	)
	database, err := aggregator.Build(advisories)
	require.NoError(t, err)

	require.Contains(t, database.Packages, "Foo-Bar")
	pkg := database.Packages["Foo-Bar"]
	assert.Equal(t, []cpansa.Advisory{{ID: "CPANSA-1"}}, pkg.Advisories)
	assert.Equal(t, []db.Release{{Date: "2020-01-01", Version: "1.0"}}, pkg.Versions)
	assert.Equal(t, "Foo::Bar", pkg.MainModule)
	assert.Equal(t, map[string]string{"Foo::Bar": "Foo-Bar"}, database.ModuleToPackage)

	fs := afero.NewMemMapFs()
	writer := snapshot.NewWriter(snapshot.WithFs(fs))
	require.NoError(t, writer.Write("db.json", database))

	got, err := afero.ReadFile(fs, "db.json")
	require.NoError(t, err)
	assert.Contains(t, string(got), `"module2dist"`)
}
