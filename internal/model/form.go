package model

// Form is the survey aggregate: ordered questions plus metadata, owned by its creator.
type Form struct {
	ID        string         `json:"id"`
	Creator   string         `json:"creator"`
	CreatedAt int64          `json:"createdAt"`
	Questions []Question     `json:"questions"`
	Metadata  Metadata       `json:"metadata"`
	Responses []FormResponse `json:"responses"`
}

// FormResponse is one stored submission as returned with a form.
type FormResponse struct {
	User      string  `json:"user"`
	Timestamp int64   `json:"timestamp"`
	Answers   Answers `json:"answers"`
}

// Clone returns a deep copy of the form's questions and metadata.
func (f Form) Clone() Form {
	out := f
	out.Questions = make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		out.Questions[i] = q.Clone()
	}
	out.Metadata = f.Metadata.Clone()
	return out
}

// CreateFormRequest is the payload for starting a new form.
type CreateFormRequest struct {
	Title string `json:"title" binding:"omitempty,max=255"`
}
