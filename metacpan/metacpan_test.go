package metacpan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleases(t *testing.T) {
	fixtures := map[string]string{
		"Foo-Bar":  "release-foo-bar.json",
		"Old-Dist": "release-no-latest.json",
		"Gone":     "release-empty.json",
	}

	tests := []struct {
		name           string
		dist           string
		serverStatus   int
		wantReleases   int
		wantMainModule string
		wantErr        string
	}{
		{
			name:           "latest release in the middle of the history",
			dist:           "Foo-Bar",
			wantReleases:   3,
			wantMainModule: "Foo::Bar",
		},
		{
			name:           "no latest release, last entry wins",
			dist:           "Old-Dist",
			wantReleases:   2,
			wantMainModule: "New::Name",
		},
		{
			name:           "unknown distribution yields an empty history",
			dist:           "Gone",
			wantReleases:   0,
			wantMainModule: "",
		},
		{
			name:         "sad path, search failure is an error",
			dist:         "Foo-Bar",
			serverStatus: http.StatusInternalServerError,
			wantErr:      "status code: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)

				var req searchRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, pageSize, req.Size)
				assert.Equal(t, requestedFields, req.Fields)
				assert.Equal(t, []map[string]string{{"date": "asc"}}, req.Sort)

				if tt.serverStatus != 0 {
					w.WriteHeader(tt.serverStatus)
					return
				}

				dist := req.Filter.Term["distribution"]
				fixture, ok := fixtures[dist]
				require.Truef(t, ok, "unexpected distribution %q", dist)

				b, err := os.ReadFile(filepath.Join("testdata", fixture))
				require.NoError(t, err)
				_, err = w.Write(b)
				require.NoError(t, err)
			}))
			defer ts.Close()

			client := NewClient(WithURL(ts.URL))

			got, err := client.Releases(tt.dist)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Len(t, got, tt.wantReleases)
			assert.Equal(t, tt.wantMainModule, MainModule(got))
		})
	}
}

func TestReleasesOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(filepath.Join("testdata", "release-foo-bar.json"))
		require.NoError(t, err)
		_, err = w.Write(b)
		require.NoError(t, err)
	}))
	defer ts.Close()

	client := NewClient(WithURL(ts.URL))

	got, err := client.Releases("Foo-Bar")
	require.NoError(t, err)

	want := []Release{
		{Date: "2019-05-01T00:00:00", Version: "0.90", Status: "backpan", MainModule: "Foo::Bar"},
		{Date: "2020-01-01T00:00:00", Version: "1.00", Status: "latest", MainModule: "Foo::Bar"},
		{Date: "2020-06-01T00:00:00", Version: "1.01-TRIAL", Status: "cpan", MainModule: "Foo::Bar::Dev"},
	}
	assert.Equal(t, want, got)
}
