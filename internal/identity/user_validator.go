package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/identity-api/internal/domain"
)

// AllowedUserNameCharacters lists every rune accepted in a user name
const AllowedUserNameCharacters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"

func (s *Store) validateUser(ctx context.Context, user *domain.User) error {
	var errs []domain.IdentityError

	if !validUserName(user.UserName) {
		errs = append(errs, domain.IdentityError{
			Code:        domain.CodeInvalidUserName,
			Description: fmt.Sprintf("User name '%s' is invalid, can only contain letters or digits.", user.UserName),
		})
	} else {
		existing, err := s.users.GetByNormalizedUserName(ctx, user.NormalizedUserName)
		if err != nil {
			return fmt.Errorf("failed to check user name: %w", err)
		}
		if existing != nil {
			errs = append(errs, duplicateError(FieldUserName, user))
		}
	}

	if user.NormalizedEmail != "" {
		existing, err := s.users.GetByNormalizedEmail(ctx, user.NormalizedEmail)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			errs = append(errs, duplicateError(FieldEmail, user))
		}
	}

	if len(errs) > 0 {
		return &domain.RegistrationError{Errors: errs}
	}
	return nil
}

func validUserName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !strings.ContainsRune(AllowedUserNameCharacters, r) {
			return false
		}
	}
	return true
}

func duplicateError(field string, user *domain.User) domain.IdentityError {
	if field == FieldEmail {
		return domain.IdentityError{
			Code:        domain.CodeDuplicateEmail,
			Description: fmt.Sprintf("Email '%s' is already taken.", user.Email),
		}
	}
	return domain.IdentityError{
		Code:        domain.CodeDuplicateUserName,
		Description: fmt.Sprintf("User name '%s' is already taken.", user.UserName),
	}
}
