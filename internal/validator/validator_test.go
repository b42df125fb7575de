package validator

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
)

type transferRequest struct {
	To     string `json:"to" validate:"required,principal"`
	Amount uint64 `json:"amount" validate:"gt=0"`
}

func TestTranslateErrors(t *testing.T) {
	v := govalidator.New()
	register(v)

	err := v.Struct(transferRequest{To: "Not-A-Principal"})
	fields := TranslateErrors(err)

	if fields["to"] != "to must be a valid principal" {
		t.Fatalf("unexpected message for to: %q", fields["to"])
	}
	if fields["amount"] == "" {
		t.Fatalf("missing message for amount: %v", fields)
	}

	if err := v.Struct(transferRequest{To: "ryjl3-tyaaa-aaaaa-aaaba-cai", Amount: 1}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
