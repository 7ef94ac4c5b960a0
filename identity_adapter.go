package guard

// authIdentity adapts a User record to the Identity interface.
type authIdentity struct {
	id       string
	username string
	email    string
	role     string
	active   bool
}

var _ Identity = authIdentity{}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Email() string    { return a.email }
func (a authIdentity) Role() string     { return a.role }
func (a authIdentity) Active() bool     { return a.active }

// IdentityFromUser adapts a stored User to the Identity the guard consumes.
func IdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		role:     string(user.Role),
		active:   user.IsActive && user.DeletedAt == nil,
	}
}
