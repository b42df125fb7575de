package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDeriveMaxRespondent(t *testing.T) {
	m := Metadata{RewardAmount: 2_000_000, MaxRewardPool: 10_000_000}
	m.DeriveMaxRespondent()
	if m.MaxRespondent != 5 {
		t.Fatalf("expected 5 respondents, got %d", m.MaxRespondent)
	}

	zero := Metadata{RewardAmount: 0, MaxRewardPool: 10_000_000, MaxRespondent: 7}
	zero.DeriveMaxRespondent()
	if zero.MaxRespondent != 7 {
		t.Fatalf("zero reward must leave maxRespondent untouched, got %d", zero.MaxRespondent)
	}
}

func TestSetFieldRewardClampAndDerive(t *testing.T) {
	var m Metadata
	if err := m.SetField(FieldMaxRewardPool, float64(50_000_000)); err != nil {
		t.Fatalf("set pool: %v", err)
	}
	if err := m.SetField(FieldRewardAmount, 10); err != nil {
		t.Fatalf("set reward: %v", err)
	}
	if m.RewardAmount != MinRewardE8s {
		t.Fatalf("reward not clamped: %d", m.RewardAmount)
	}
	if m.MaxRespondent != 50 {
		t.Fatalf("expected 50 respondents, got %d", m.MaxRespondent)
	}
}

func TestSetFieldTypes(t *testing.T) {
	var m Metadata
	tests := []struct {
		field MetadataField
		value any
	}{
		{FieldTitle, "Survey"},
		{FieldDescription, "About things"},
		{FieldDeadline, json.Number("1700000000000000000")},
		{FieldMinAge, float64(18)},
		{FieldMaxAge, uint64(60)},
		{FieldCountry, "ID"},
		{FieldCity, nil},
		{FieldCategories, []any{"education-research"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			if err := m.SetField(tt.field, tt.value); err != nil {
				t.Fatalf("set %s: %v", tt.field, err)
			}
		})
	}

	if m.Title != "Survey" || *m.Deadline != 1700000000000000000 || *m.MinAge != 18 || *m.MaxAge != 60 {
		t.Fatalf("unexpected metadata: %+v", m)
	}
	if m.City != nil || len(m.Categories) != 1 {
		t.Fatalf("unexpected optional fields: %+v", m)
	}
}

func TestSetFieldRejects(t *testing.T) {
	var m Metadata
	if err := m.SetField(FieldPublished, true); !errors.Is(err, ErrReadOnlyField) {
		t.Fatalf("expected ErrReadOnlyField, got %v", err)
	}
	if err := m.SetField("colour", "red"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := m.SetField(FieldMinAge, -3); !errors.Is(err, ErrFieldValue) {
		t.Fatalf("expected ErrFieldValue, got %v", err)
	}
	if err := m.SetField(FieldTitle, 12); !errors.Is(err, ErrFieldValue) {
		t.Fatalf("expected ErrFieldValue, got %v", err)
	}
}

func TestValidateForPublish(t *testing.T) {
	minAge, maxAge := uint64(40), uint64(20)
	tests := []struct {
		name string
		m    Metadata
		want error
	}{
		{"ok", Metadata{Title: "T", RewardAmount: 1_000_000, MaxRewardPool: 2_000_000}, nil},
		{"no title", Metadata{RewardAmount: 1, MaxRewardPool: 1}, ErrMissingTitle},
		{"ages", Metadata{Title: "T", MinAge: &minAge, MaxAge: &maxAge, RewardAmount: 1, MaxRewardPool: 1}, ErrAgeBounds},
		{"no reward", Metadata{Title: "T"}, ErrRewardRequired},
		{"small pool", Metadata{Title: "T", RewardAmount: 5, MaxRewardPool: 4}, ErrRewardPool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.ValidateForPublish(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMetadataCloneIsDeep(t *testing.T) {
	city := "Bandung"
	m := Metadata{City: &city, Categories: []string{"a"}}
	c := m.Clone()
	*c.City = "Jakarta"
	c.Categories[0] = "b"
	if *m.City != "Bandung" || m.Categories[0] != "a" {
		t.Fatalf("clone shares state with source: %+v", m)
	}
}
