package typo

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/tap-typo/pkg/clients"
)

func TestHasNextLink(t *testing.T) {
	const base = "https://typo.example.com/repositories/r/datasets/d/results"

	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{name: "no header", values: nil, want: false},
		{name: "empty header", values: []string{""}, want: false},
		{name: "prev only", values: []string{`<` + base + `?page=1>; rel="prev"`}, want: false},
		{name: "last only", values: []string{`<` + base + `?page=4>; rel="last"`}, want: false},
		{
			name:   "prev and next in one header",
			values: []string{`<` + base + `?page=1>; rel="prev", <` + base + `?page=3>; rel="next"`},
			want:   true,
		},
		{
			name:   "prev and next in separate headers",
			values: []string{`<` + base + `?page=1>; rel="prev"`, `<` + base + `?page=3>; rel="next"`},
			want:   true,
		},
		{name: "unquoted next", values: []string{`<` + base + `?page=2>; rel=next`}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			for _, v := range tt.values {
				header.Add("Link", v)
			}
			assert.Equal(t, tt.want, hasNextLink(&clients.Response{StatusCode: http.StatusOK, Header: header}))
		})
	}
}
