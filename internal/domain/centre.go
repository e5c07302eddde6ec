package domain

import "time"

// DemoCentreName is the distinguished centre readable by every authenticated
// user and immune to permission mutation.
const DemoCentreName = "Demo"

// ResponsibilityCentre is the organizational unit access control is scoped to.
//
// DesignatedOwnerID points at the creator-owner. It is immutable metadata of
// the centre itself, not a revocable grant: the designated owner's effective
// level is always OWNER whether or not an explicit AccessRecord exists.
type ResponsibilityCentre struct {
	ID                string
	Name              string
	DesignatedOwnerID string
	Active            bool
	Version           int64
	CreatedAt         time.Time
}

// IsDemo reports whether this is the distinguished demo centre.
func (c *ResponsibilityCentre) IsDemo() bool { return c.Name == DemoCentreName }

// User is an authentication principal with a stable unique username.
// Referenced read-only by the authorization core.
type User struct {
	ID          string
	Username    string
	DisplayName string
	CreatedAt   time.Time
}

// CreateCentreRequest holds parameters for creating a responsibility centre.
type CreateCentreRequest struct {
	Name string
}

// Validate checks that the request is well-formed.
func (r *CreateCentreRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("centre name is required")
	}
	return nil
}

// CreateUserRequest holds parameters for creating a local user.
type CreateUserRequest struct {
	Username    string
	DisplayName string
}

// Validate checks that the request is well-formed.
func (r *CreateUserRequest) Validate() error {
	if r.Username == "" {
		return ErrValidation("username is required")
	}
	return nil
}
