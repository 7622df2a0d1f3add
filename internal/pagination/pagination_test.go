package pagination

import (
	"encoding/json"
	"testing"
)

func TestPageRequest_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"empty", PageRequest{}, 1, DefaultPageSize, 0},
		{"explicit", PageRequest{Page: 3, PageSize: 10}, 3, 10, 20},
		{"oversized_page", PageRequest{Page: 2, PageSize: 500}, 2, MaxPageSize, MaxPageSize},
		{"negative", PageRequest{Page: -1, PageSize: -5}, 1, DefaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Defaults()
			if p.Page != tt.wantPage || p.PageSize != tt.wantPageSize {
				t.Errorf("expected %d/%d, got %d/%d", tt.wantPage, tt.wantPageSize, p.Page, p.PageSize)
			}
			if got := p.Offset(); got != tt.wantOffset {
				t.Errorf("expected offset %d, got %d", tt.wantOffset, got)
			}
		})
	}
}

func TestPageRequest_Values(t *testing.T) {
	v := PageRequest{Page: 2}.Values()
	if v.Get("page") != "2" || v.Get("page_size") != "20" {
		t.Errorf("unexpected values: %v", v.Encode())
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("rounds_total_pages_up", func(t *testing.T) {
		resp := NewPageResponse([]int{1, 2}, 1, 2, 5)
		if resp.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", resp.TotalPages)
		}
	})

	t.Run("nil_data_encodes_as_empty_array", func(t *testing.T) {
		resp := NewPageResponse[string](nil, 1, 20, 0)
		body, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if data, ok := decoded["data"].([]interface{}); !ok || len(data) != 0 {
			t.Errorf("expected empty array, got %v", decoded["data"])
		}
	})
}
