package internal

import "testing"

func Test_Version(t *testing.T) {
	tests := map[string]struct {
		revision string
		modified bool
		want     string
	}{
		"ok, unknown":        {revision: "unknown", want: "unknown"},
		"ok, short revision": {revision: "0123456789abcdef0123", want: "0123456789ab"},
		"ok, modified":       {revision: "0123456789abcdef0123", modified: true, want: "0123456789ab-dirty"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			revision, modified := BuildRevision, BuildLocalModified
			t.Cleanup(func() {
				BuildRevision, BuildLocalModified = revision, modified
			})

			BuildRevision, BuildLocalModified = tc.revision, tc.modified

			got := Version()
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
