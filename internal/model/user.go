package model

// User is the respondent/creator profile kept by the backend.
type User struct {
	ID         string  `json:"id"`
	Name       *string `json:"name"`
	Age        *uint64 `json:"age"`
	Gender     *string `json:"gender"`
	Country    *string `json:"country"`
	City       *string `json:"city"`
	Occupation *string `json:"occupation"`
	IsVerified bool    `json:"isVerified"`
}

// Profile defaults applied when the editor leaves a field blank.
const (
	DefaultAge    uint64 = 17
	DefaultGender        = "male"
)

// UpdateUserRequest is the payload for editing the caller's profile.
type UpdateUserRequest struct {
	Name       string  `json:"name" binding:"required,min=2,max=100"`
	Age        *uint64 `json:"age" binding:"omitempty,min=1,max=150"`
	Gender     string  `json:"gender" binding:"omitempty,max=30"`
	Country    string  `json:"country" binding:"required,max=100"`
	City       string  `json:"city" binding:"required,min=2,max=100"`
	Occupation string  `json:"occupation" binding:"required,max=100"`
}

// UserUpdate is the positional argument list of updateUser.
type UserUpdate struct {
	Name       *string
	Age        *uint64
	Gender     *string
	Country    *string
	City       *string
	Occupation *string
}

// Args renders the update in call order: name, age, gender, country, city, occupation.
func (u UserUpdate) Args() []any {
	return []any{u.Name, u.Age, u.Gender, u.Country, u.City, u.Occupation}
}

// ToUpdate applies the profile defaults and converts the request to call arguments.
func (r UpdateUserRequest) ToUpdate() UserUpdate {
	age := DefaultAge
	if r.Age != nil {
		age = *r.Age
	}
	gender := r.Gender
	if gender == "" {
		gender = DefaultGender
	}
	return UserUpdate{
		Name:       optional(r.Name),
		Age:        &age,
		Gender:     &gender,
		Country:    optional(r.Country),
		City:       optional(r.City),
		Occupation: optional(r.Occupation),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
