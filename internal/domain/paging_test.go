package domain

import "testing"

func TestPageNormalize(t *testing.T) {
	p := Page{Number: -3, Size: 500}.Normalize()
	if p.Number != 0 || p.Size != MaxPageSize {
		t.Fatalf("normalize: want=(0,%d) got=(%d,%d)", MaxPageSize, p.Number, p.Size)
	}
	if got := (Page{Number: 2, Size: 10}).Offset(); got != 20 {
		t.Fatalf("offset: want=%d got=%d", 20, got)
	}
}

func TestNewPagedResultTotals(t *testing.T) {
	r := NewPagedResult[int](nil, Page{Number: 0, Size: 10}, 21)
	if r.TotalPages != 3 {
		t.Fatalf("total pages: want=%d got=%d", 3, r.TotalPages)
	}
	if r.Items == nil {
		t.Fatalf("items should be an empty slice, not nil")
	}
}
