package model

// User is a dashboard account. The backend never returns password material.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt Timestamp `json:"created_at"`
}

// NewUser is the create-user payload; the full form is sent as-is.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (u NewUser) Validate() error {
	if err := required("name", u.Name); err != nil {
		return err
	}
	if err := validEmail("email", u.Email); err != nil {
		return err
	}
	if err := required("password", u.Password); err != nil {
		return err
	}
	if _, ok := ParseRole(string(u.Role)); !ok {
		return &ValidationError{Field: "role", Message: "must be ADMIN or TECH_LEAD"}
	}
	return nil
}

// Member is one row of a project's member list.
type Member struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	AssignedAt Timestamp `json:"assigned_at"`
}

// AssignableUsers returns the tech leads that are not yet members of the
// project, keeping the order of techLeads.
func AssignableUsers(techLeads []User, members []Member) []User {
	assigned := make(map[int]struct{}, len(members))
	for _, m := range members {
		assigned[m.ID] = struct{}{}
	}
	out := make([]User, 0, len(techLeads))
	seen := make(map[int]struct{}, len(techLeads))
	for _, u := range techLeads {
		if _, ok := assigned[u.ID]; ok {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}
