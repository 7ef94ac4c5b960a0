package guard

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record this core reads. It is owned and mutated by
// the user-management collaborator; nothing in this package writes to it
// except the provisioning helpers.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username     string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email        string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role         UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsActive     bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt    *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
