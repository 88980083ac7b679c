package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type sample struct {
	Role    string `binding:"required,user_role"`
	Rail    string `binding:"omitempty,rail_type"`
	Routing string `binding:"required,routing_number"`
}

func TestRegister(t *testing.T) {
	Register()

	tests := []struct {
		name  string
		input sample
		valid bool
	}{
		{"valid", sample{Role: "renter", Rail: "wire", Routing: "021000021"}, true},
		{"rail_optional", sample{Role: "landlord", Routing: "021000021"}, true},
		{"unknown_role", sample{Role: "tenant", Routing: "021000021"}, false},
		{"unknown_rail", sample{Role: "renter", Rail: "swift", Routing: "021000021"}, false},
		{"short_routing", sample{Role: "renter", Routing: "02100002"}, false},
		{"alpha_routing", sample{Role: "renter", Routing: "02100002a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.input)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
