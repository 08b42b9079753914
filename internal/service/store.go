package service

import (
	"context"

	"github.com/gochop/gochop-auth/internal/model"
)

// CredentialStore is the persistence contract the auth services depend on.
// Implementations must normalize emails to lower case before comparison and
// storage, and report duplicates with the repository sentinel errors.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindCredential(ctx context.Context, userID, provider string) (*model.Credential, error)
	// CreateUserWithCredential creates both rows or neither; a failure must
	// not leave an orphaned user that blocks re-registration.
	CreateUserWithCredential(ctx context.Context, name, email string, cred *model.Credential) (*model.User, error)
	CreateCredential(ctx context.Context, cred *model.Credential) error
	UpsertExternalUser(ctx context.Context, name, email, image string) (*model.User, error)
}
