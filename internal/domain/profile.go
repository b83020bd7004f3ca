package domain

// UserRole distinguishes student and teacher accounts.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// UserProfile is the read-only identity input to settings resolution.
// Class and School are set for students; ClassesTaught and SubjectsTaught for
// teachers.
type UserProfile struct {
	UserID         string   `json:"user_id"`
	Role           UserRole `json:"role"`
	Class          string   `json:"class,omitempty"`
	School         string   `json:"school,omitempty"`
	ClassesTaught  []string `json:"classes_taught,omitempty"`
	SubjectsTaught []string `json:"subjects_taught,omitempty"`
}

// Teaches reports whether the profile lists subject among its taught subjects.
func (p *UserProfile) Teaches(subject string) bool {
	for _, s := range p.SubjectsTaught {
		if s == subject {
			return true
		}
	}
	return false
}
