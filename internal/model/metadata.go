package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MinRewardE8s is the smallest reward accepted from an editor (0.01 ICP).
const MinRewardE8s uint64 = 1_000_000

// E8sPerICP is the number of ledger units in one ICP.
const E8sPerICP uint64 = 100_000_000

// Metadata holds publication, eligibility and reward settings for a form.
type Metadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Published     bool     `json:"published"`
	Deadline      *int64   `json:"deadline"`
	MinAge        *uint64  `json:"minAge"`
	MaxAge        *uint64  `json:"maxAge"`
	Country       *string  `json:"country"`
	City          *string  `json:"city"`
	Occupation    *string  `json:"occupation"`
	Categories    []string `json:"categories"`
	RewardAmount  uint64   `json:"rewardAmount"`
	MaxRewardPool uint64   `json:"maxRewardPool"`
	MaxRespondent uint64   `json:"maxRespondent"`
}

// Metadata errors.
var (
	ErrUnknownField   = errors.New("unknown metadata field")
	ErrReadOnlyField  = errors.New("metadata field is not editable")
	ErrFieldValue     = errors.New("invalid metadata field value")
	ErrMissingTitle   = errors.New("form title is required")
	ErrAgeBounds      = errors.New("minimum age exceeds maximum age")
	ErrRewardRequired = errors.New("reward amount must be positive")
	ErrRewardPool     = errors.New("reward pool must cover at least one reward")
)

// MetadataField names an editable metadata attribute by its wire name.
type MetadataField string

const (
	FieldTitle         MetadataField = "title"
	FieldDescription   MetadataField = "description"
	FieldPublished     MetadataField = "published"
	FieldDeadline      MetadataField = "deadline"
	FieldMinAge        MetadataField = "minAge"
	FieldMaxAge        MetadataField = "maxAge"
	FieldCountry       MetadataField = "country"
	FieldCity          MetadataField = "city"
	FieldOccupation    MetadataField = "occupation"
	FieldCategories    MetadataField = "categories"
	FieldRewardAmount  MetadataField = "rewardAmount"
	FieldMaxRewardPool MetadataField = "maxRewardPool"
	FieldMaxRespondent MetadataField = "maxRespondent"
)

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	out.Deadline = clonePtr(m.Deadline)
	out.MinAge = clonePtr(m.MinAge)
	out.MaxAge = clonePtr(m.MaxAge)
	out.Country = clonePtr(m.Country)
	out.City = clonePtr(m.City)
	out.Occupation = clonePtr(m.Occupation)
	out.Categories = cloneStrings(m.Categories)
	return out
}

// DeriveMaxRespondent recomputes MaxRespondent from the pool and per-response
// reward. A zero reward leaves the previous value untouched.
func (m *Metadata) DeriveMaxRespondent() {
	if m.RewardAmount == 0 {
		return
	}
	m.MaxRespondent = m.MaxRewardPool / m.RewardAmount
}

// ClampReward floors an editor-entered reward at MinRewardE8s.
func ClampReward(e8s uint64) uint64 {
	if e8s < MinRewardE8s {
		return MinRewardE8s
	}
	return e8s
}

// SetField merges one field into m. Reward fields are clamped and
// MaxRespondent re-derived. Published and MaxRespondent cannot be set this way.
// Optional fields accept nil to clear them.
func (m *Metadata) SetField(field MetadataField, value any) error {
	var err error
	switch field {
	case FieldTitle:
		m.Title, err = toString(value)
	case FieldDescription:
		m.Description, err = toString(value)
	case FieldDeadline:
		m.Deadline, err = toOptionalInt(value)
	case FieldMinAge:
		m.MinAge, err = toOptionalUint(value)
	case FieldMaxAge:
		m.MaxAge, err = toOptionalUint(value)
	case FieldCountry:
		m.Country, err = toOptionalString(value)
	case FieldCity:
		m.City, err = toOptionalString(value)
	case FieldOccupation:
		m.Occupation, err = toOptionalString(value)
	case FieldCategories:
		m.Categories, err = toStrings(value)
	case FieldRewardAmount:
		var n uint64
		if n, err = toUint(value); err == nil {
			m.RewardAmount = ClampReward(n)
			m.DeriveMaxRespondent()
		}
	case FieldMaxRewardPool:
		var n uint64
		if n, err = toUint(value); err == nil {
			m.MaxRewardPool = ClampReward(n)
			m.DeriveMaxRespondent()
		}
	case FieldPublished, FieldMaxRespondent:
		return fmt.Errorf("%s: %w", field, ErrReadOnlyField)
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// ValidateForPublish checks what must hold before a form goes live.
func (m Metadata) ValidateForPublish() error {
	if m.Title == "" {
		return ErrMissingTitle
	}
	if m.MinAge != nil && m.MaxAge != nil && *m.MinAge > *m.MaxAge {
		return ErrAgeBounds
	}
	if m.RewardAmount == 0 {
		return ErrRewardRequired
	}
	if m.MaxRewardPool < m.RewardAmount {
		return ErrRewardPool
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func toString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: want string, got %T", ErrFieldValue, value)
	}
	return s, nil
}

func toOptionalString(value any) (*string, error) {
	if value == nil {
		return nil, nil
	}
	s, err := toString(value)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return cloneStrings(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: want string list, got %T", ErrFieldValue, value)
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows", ErrFieldValue, v)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrFieldValue, v)
		}
		return int64(v), nil
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFieldValue, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFieldValue, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %T", ErrFieldValue, value)
	}
}

func toUint(value any) (uint64, error) {
	if u, ok := value.(uint64); ok {
		return u, nil
	}
	if n, ok := value.(json.Number); ok {
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFieldValue, err)
		}
		return u, nil
	}
	n, err := toInt(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrFieldValue, n)
	}
	return uint64(n), nil
}

func toOptionalInt(value any) (*int64, error) {
	if value == nil {
		return nil, nil
	}
	n, err := toInt(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func toOptionalUint(value any) (*uint64, error) {
	if value == nil {
		return nil, nil
	}
	n, err := toUint(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
