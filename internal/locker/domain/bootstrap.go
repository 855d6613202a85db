package domain

// DefaultUser describes the identity ensured at first-run bootstrap. An empty
// Password means one is generated.
type DefaultUser struct {
	Username string
	Email    string
	Password string
}
