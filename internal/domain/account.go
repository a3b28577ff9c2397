package domain

// Group is the upstream representation of a role assignment.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Account is a platform user account as managed on the users screen.
type Account struct {
	ID          int    `json:"id"`
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phoneNumber"`
	ImagePath   string `json:"imagePath"`
	Group       Group  `json:"group"`
}

// IsSuperAdmin reports whether the account belongs to the admin group.
func (a Account) IsSuperAdmin() bool {
	return Role(a.Group.Name) == RoleSuperAdmin
}
