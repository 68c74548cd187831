package objectstore

import "testing"

const (
	testPublicBase = "https://resources.pohualizcalli.link"
	testRegion     = "us-east-1"
)

func TestKeyFromRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "resources domain url",
			ref:  testPublicBase + "/generacion-diplomas/signatures/2026-01-02/firma.png",
			want: "generacion-diplomas/signatures/2026-01-02/firma.png",
		},
		{
			name: "raw s3 url",
			ref:  "https://academy-resources.s3.us-east-1.amazonaws.com/generacion-diplomas/empty-templates/2026-01-02/a.pdf",
			want: "generacion-diplomas/empty-templates/2026-01-02/a.pdf",
		},
		{
			name: "bare key",
			ref:  "generacion-diplomas/generated-diplomas/2026-01-02/proceso-9/r.csv",
			want: "generacion-diplomas/generated-diplomas/2026-01-02/proceso-9/r.csv",
		},
		{
			name: "bare key with leading slash",
			ref:  "/generacion-diplomas/signatures/2026-01-02/firma.png",
			want: "generacion-diplomas/signatures/2026-01-02/firma.png",
		},
		{
			name: "third party url",
			ref:  "https://example.com/some/file.png",
			want: "",
		},
		{
			name: "empty",
			ref:  "  ",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := KeyFromRef(tt.ref, testPublicBase, testRegion)
			if got != tt.want {
				t.Fatalf("KeyFromRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestParentPrefixFromRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "url",
			ref:  testPublicBase + "/generacion-diplomas/empty-templates/2026-01-02/03-04-05/layout.pdf",
			want: "generacion-diplomas/empty-templates/2026-01-02/03-04-05",
		},
		{
			name: "bare key",
			ref:  "generacion-diplomas/signatures/2026-01-02/firma.png",
			want: "generacion-diplomas/signatures/2026-01-02",
		},
		{
			name: "single segment has no parent",
			ref:  "orphan.png",
			want: "",
		},
		{
			name: "empty",
			ref:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParentPrefixFromRef(tt.ref)
			if got != tt.want {
				t.Fatalf("ParentPrefixFromRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
