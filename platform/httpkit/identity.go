// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated professional's identity.
// It abstracts identity extraction from the web framework so handlers can
// read caller information without depending on Gin internals.
type Identity interface {
	// ProfessionalID returns the authenticated professional's ID.
	ProfessionalID() uuid.UUID
	// Roles returns the caller's assigned roles.
	Roles() []string
	// HasRole checks if the caller has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the caller is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	professionalID uuid.UUID
	roles          []string
	authenticated  bool
}

func (i *identity) ProfessionalID() uuid.UUID {
	return i.professionalID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if caller info is not present.
func GetIdentity(c *gin.Context) Identity {
	rawID, idOK := c.Get(ContextProfessionalIDKey)
	rawRoles, rolesOK := c.Get(ContextRolesKey)

	if !idOK {
		return &identity{authenticated: false}
	}

	professionalID, ok := rawID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var roleList []string
	if rolesOK {
		roleList, _ = rawRoles.([]string)
	}

	return &identity{
		professionalID: professionalID,
		roles:          roleList,
		authenticated:  true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the caller is not authenticated it aborts with 401 and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
