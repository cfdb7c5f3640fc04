// Package identity maps credentials and federated assertions to canonical
// users. It owns the authentication error taxonomy: registration conflicts
// and the single, enumeration-safe invalid-credentials failure.
package identity

import (
	"context"
	"errors"
	"strings"

	accountstore "github.com/loftwork/loftwork/internal/app/store/accounts"
	userstore "github.com/loftwork/loftwork/internal/app/store/users"
	"github.com/loftwork/loftwork/internal/app/system/authutil"
	"github.com/loftwork/loftwork/internal/app/system/htmlsanitize"
	"github.com/loftwork/loftwork/internal/app/system/normalize"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned for unknown email, missing local
	// account, and wrong password alike. Callers must not distinguish the
	// cases, or login becomes a user-enumeration oracle.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registration collides with an existing
	// local account.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrInvalidEmail is returned for inputs that cannot be an email address.
	ErrInvalidEmail = errors.New("invalid email address")
)

// dummyHash is compared against when no user or stored hash exists, so the
// failure path costs one bcrypt verification either way. (bcrypt of an
// unguessable throwaway string, cost 12.)
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Resolver implements local registration, local login, and federated
// first-contact resolution.
type Resolver struct {
	users    *userstore.Store
	accounts *accountstore.Store
	log      *zap.Logger
}

func New(users *userstore.Store, accounts *accountstore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, accounts: accounts, log: logger}
}

// Register creates a User plus its local Account. Fails with ErrEmailTaken
// when the email is already claimed; duplicate detection rides on the unique
// indexes, so two racing registrations cannot both win.
func (r *Resolver) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = normalize.Email(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return nil, err
	}

	displayName = htmlsanitize.Plain(displayName)
	if displayName == "" {
		displayName = email[:strings.Index(email, "@")]
	}

	user, err := r.users.Create(ctx, models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: &hash,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if _, err := r.accounts.Create(ctx, models.Account{
		UserID:     user.ID,
		Provider:   models.ProviderLocal,
		ExternalID: email,
	}); err != nil {
		if errors.Is(err, accountstore.ErrDuplicateAccount) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	r.log.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("email", email))
	return &user, nil
}

// Login verifies local credentials. Every failure is ErrInvalidCredentials;
// the no-such-account path burns a bcrypt comparison so its timing matches
// the wrong-password path.
func (r *Resolver) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalize.Email(email)

	account, err := r.accounts.GetByProviderID(ctx, models.ProviderLocal, email)
	if err != nil {
		if errors.Is(err, accountstore.ErrNotFound) {
			authutil.CheckPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := r.users.GetByID(ctx, account.UserID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			// A local account without its user is store corruption; fail
			// closed as a credential failure and leave a trail.
			r.log.Warn("local account references missing user",
				zap.String("account_id", account.ID.Hex()),
				zap.String("user_id", account.UserID.Hex()))
			authutil.CheckPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.HasPassword() {
		authutil.CheckPassword(password, dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !authutil.CheckPassword(password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetPassword stores a new password hash for the user. Accounts that already
// hold a password must present the current one. A federated-only account gets
// a local Account row as well, so credential login works afterwards.
func (r *Resolver) SetPassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if err := authutil.ValidatePassword(next); err != nil {
		return err
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasPassword() && !authutil.CheckPassword(current, *user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := authutil.HashPassword(next)
	if err != nil {
		return err
	}
	if err := r.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	if _, err := r.accounts.Create(ctx, models.Account{
		UserID:     user.ID,
		Provider:   models.ProviderLocal,
		ExternalID: user.Email,
	}); err != nil && !errors.Is(err, accountstore.ErrDuplicateAccount) {
		return err
	}

	r.log.Info("password set", zap.String("user_id", userID.Hex()))
	return nil
}

// Federated resolves a provider assertion to a user, creating whatever is
// missing. The branch is exhaustive:
//
//  1. Account(provider, externalID) exists → its user.
//  2. No account, but a user owns the profile email → link a new account
//     to that user (a local account adopting a federated login).
//  3. Neither → create user (no password) and account.
//
// First contact never fails on "not found"; creation is implicit.
func (r *Resolver) Federated(ctx context.Context, provider, externalID, email, displayName string) (*models.User, error) {
	email = normalize.Email(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	// 1. Existing account.
	account, err := r.accounts.GetByProviderID(ctx, provider, externalID)
	if err == nil {
		return r.users.GetByID(ctx, account.UserID)
	}
	if !errors.Is(err, accountstore.ErrNotFound) {
		return nil, err
	}

	// 2. Existing user by email.
	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, userstore.ErrNotFound) {
			return nil, err
		}

		// 3. First contact: create the user.
		displayName = htmlsanitize.Plain(displayName)
		if displayName == "" {
			displayName = email[:strings.Index(email, "@")]
		}
		created, cerr := r.users.Create(ctx, models.User{
			Email:       email,
			DisplayName: displayName,
		})
		if cerr != nil {
			if errors.Is(cerr, userstore.ErrDuplicateEmail) {
				// Lost a race with a concurrent first contact; use the winner.
				return r.linkExisting(ctx, provider, externalID, email)
			}
			return nil, cerr
		}
		user = &created
		r.log.Info("federated first contact created user",
			zap.String("user_id", user.ID.Hex()),
			zap.String("provider", provider))
	}

	if _, err := r.accounts.Create(ctx, models.Account{
		UserID:     user.ID,
		Provider:   provider,
		ExternalID: externalID,
	}); err != nil {
		if errors.Is(err, accountstore.ErrDuplicateAccount) {
			// Concurrent login already linked it; resolve through the account.
			linked, gerr := r.accounts.GetByProviderID(ctx, provider, externalID)
			if gerr != nil {
				return nil, gerr
			}
			return r.users.GetByID(ctx, linked.UserID)
		}
		return nil, err
	}
	return user, nil
}

func (r *Resolver) linkExisting(ctx context.Context, provider, externalID, email string) (*models.User, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if _, err := r.accounts.Create(ctx, models.Account{
		UserID:     user.ID,
		Provider:   provider,
		ExternalID: externalID,
	}); err != nil && !errors.Is(err, accountstore.ErrDuplicateAccount) {
		return nil, err
	}
	return user, nil
}

// isValidEmail applies the minimal shape check authorization needs: one @,
// non-empty local part, a dot inside the domain. Full RFC validation is a
// mail-delivery concern, not an identity one.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.HasSuffix(domain, ".")
}
