package models

import (
	"testing"
)

func TestNewPageParams_Clamping(t *testing.T) {
	cases := []struct {
		name      string
		pageStr   string
		limitStr  string
		wantPage  int
		wantLimit int
	}{
		{"defaults on empty", "", "", 1, 20},
		{"garbage falls back", "abc", "xyz", 1, 20},
		{"zero page clamps", "0", "-5", 1, 20},
		{"normal values pass", "3", "50", 3, 50},
		{"limit capped", "2", "500", 2, 200},
		{"negative page clamps", "-1", "10", 1, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewPageParams(tc.pageStr, tc.limitStr)
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("expected {%d %d}, got {%d %d}", tc.wantPage, tc.wantLimit, got.Page, got.Limit)
			}
		})
	}
}

func TestPageParams_Offset(t *testing.T) {
	if off := (PageParams{Page: 1, Limit: 20}).Offset(); off != 0 {
		t.Fatalf("first page offset should be 0, got %d", off)
	}
	if off := (PageParams{Page: 4, Limit: 25}).Offset(); off != 75 {
		t.Fatalf("expected offset 75, got %d", off)
	}
}

func TestNewPaginated_PagesMath(t *testing.T) {
	params := PageParams{Page: 1, Limit: 20}

	p := NewPaginated([]*Vendor{{}, {}}, params, 41)
	if p.Pagination.Pages != 3 {
		t.Fatalf("41 rows at limit 20 should be 3 pages, got %d", p.Pagination.Pages)
	}

	p = NewPaginated([]*Vendor{}, params, 40)
	if p.Pagination.Pages != 2 {
		t.Fatalf("40 rows at limit 20 should be 2 pages, got %d", p.Pagination.Pages)
	}

	p = NewPaginated([]*Vendor{}, params, 0)
	if p.Pagination.Pages != 0 {
		t.Fatalf("no rows should be 0 pages, got %d", p.Pagination.Pages)
	}
}

func TestNewPaginated_NilDataBecomesEmptySlice(t *testing.T) {
	p := NewPaginated[Vendor](nil, PageParams{Page: 1, Limit: 20}, 0)
	if p.Data == nil {
		t.Fatal("nil data must marshal as [] not null")
	}
	if len(p.Data) != 0 {
		t.Fatalf("expected empty slice, got %d entries", len(p.Data))
	}
}
