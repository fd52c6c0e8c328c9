package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name                 string
		limit, offset, total int
		want                 Pagination
	}{
		{"first page", 50, 0, 120, Pagination{Page: 1, PerPage: 50, Total: 120, TotalPages: 3}},
		{"second page", 50, 50, 120, Pagination{Page: 2, PerPage: 50, Total: 120, TotalPages: 3}},
		{"exact fit", 20, 40, 60, Pagination{Page: 3, PerPage: 20, Total: 60, TotalPages: 3}},
		{"empty result", 50, 0, 0, Pagination{Page: 1, PerPage: 50, Total: 0, TotalPages: 0}},
		{"zero limit falls back", 0, 0, 5, Pagination{Page: 1, PerPage: 20, Total: 5, TotalPages: 1}},
		{"negative offset clamps", 10, -3, 25, Pagination{Page: 1, PerPage: 10, Total: 25, TotalPages: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NewPagination(tc.limit, tc.offset, tc.total))
		})
	}
}
