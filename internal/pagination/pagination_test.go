package pagination

import "testing"

func TestPageRequest_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		in        PageRequest
		wantSkip  int
		wantLimit int
	}{
		{"empty", PageRequest{}, 0, DefaultLimit},
		{"kept", PageRequest{Skip: 20, Limit: 10}, 20, 10},
		{"negative_skip", PageRequest{Skip: -5, Limit: 10}, 0, 10},
		{"limit_too_large", PageRequest{Limit: 500}, 0, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Skip != tt.wantSkip || req.Limit != tt.wantLimit {
				t.Errorf("got skip=%d limit=%d, want skip=%d limit=%d", req.Skip, req.Limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("nil_data_becomes_empty", func(t *testing.T) {
		resp := NewPageResponse[int](nil, PageRequest{Limit: 10}, 0)
		if resp.Data == nil || len(resp.Data) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", resp.Data)
		}
		if resp.HasMore {
			t.Error("expected has_more false")
		}
	})

	t.Run("has_more", func(t *testing.T) {
		resp := NewPageResponse([]int{1, 2}, PageRequest{Skip: 2, Limit: 2}, 5)
		if !resp.HasMore {
			t.Error("expected has_more true")
		}
		last := NewPageResponse([]int{5}, PageRequest{Skip: 4, Limit: 2}, 5)
		if last.HasMore {
			t.Error("expected has_more false on last window")
		}
	})
}
