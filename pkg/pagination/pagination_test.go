package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		in           Params
		defaultLimit int
		want         Params
	}{
		{name: "defaults applied", in: Params{}, defaultLimit: 0, want: Params{Page: 1, Limit: DefaultLimit}},
		{name: "custom default", in: Params{}, defaultLimit: 50, want: Params{Page: 1, Limit: 50}},
		{name: "explicit values kept", in: Params{Page: 3, Limit: 10}, defaultLimit: 20, want: Params{Page: 3, Limit: 10}},
		{name: "limit capped", in: Params{Page: 1, Limit: 500}, defaultLimit: 20, want: Params{Page: 1, Limit: MaxLimit}},
		{name: "negative inputs", in: Params{Page: -1, Limit: -5}, defaultLimit: 20, want: Params{Page: 1, Limit: 20}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize(tc.defaultLimit)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 1, Limit: 20}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := (Params{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := (Params{Page: 0, Limit: 10}).Offset(); got != 0 {
		t.Fatalf("expected offset 0 for unset page, got %d", got)
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage(Params{Page: 2, Limit: 20}, 41)
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", page.TotalPages)
	}
	if page.Total != 41 || page.Page != 2 || page.Limit != 20 {
		t.Fatalf("unexpected page metadata %+v", page)
	}

	empty := NewPage(Params{Page: 1, Limit: 20}, 0)
	if empty.TotalPages != 0 {
		t.Fatalf("expected 0 total pages, got %d", empty.TotalPages)
	}
}
