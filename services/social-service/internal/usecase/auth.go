package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/event"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/jobfeed-api/shared/provider"
)

// AuthUsecase resolves identities, provisions accounts and issues session tokens.
type AuthUsecase interface {
	ResolveSocialIdentity(ctx context.Context, profile ProviderProfile, fallbackURL string) (*SocialLoginResult, error)
	SignupOrganization(ctx context.Context, params SignupParams) (*SignupResult, error)
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
	VerifyAccount(ctx context.Context, userID string) (VerificationOutcome, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, userID string) (*Account, error)
	IsVerified(ctx context.Context, userID string) (bool, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	IssueToken(subjectID string) (string, error)
}

// VerificationMailer delivers the account verification link.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, name, token string) error
}

// ProviderProfile is the normalized identity returned by a social provider.
type ProviderProfile struct {
	ExternalID  string
	Email       string
	DisplayName string
	GivenName   string
	FamilyName  string
	PictureURL  string
}

// SignupParams defines the parameters of an organization signup.
type SignupParams struct {
	CompanyName       string
	Username          string
	Email             string
	Password          string
	NotificationToken string
}

// LoginParams defines the parameters for password login. Login is a username or an email.
type LoginParams struct {
	Login             string
	Password          string
	NotificationToken string
}

type SocialLoginResult struct {
	Profile     *model.PersonProfile
	Token       string
	FallbackURL string
}

type SignupResult struct {
	Organization *model.OrganizationProfile
	Token        string
}

type LoginOutcome int

const (
	LoginAuthenticated LoginOutcome = iota + 1
	// LoginUnverified means the credentials are right but the email is not confirmed yet.
	// A token is still issued.
	LoginUnverified
)

type LoginResult struct {
	Outcome      LoginOutcome
	Token        string
	User         *model.User
	Organization *model.OrganizationProfile
}

type VerificationOutcome int

const (
	Verified VerificationOutcome = iota + 1
	AlreadyVerified
)

// Account is a user with whichever profile it owns.
type Account struct {
	User         *model.User         `json:"user"`
	Person       *model.Person       `json:"person,omitempty"`
	Organization *model.Organization `json:"organization,omitempty"`
}

var (
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidProfile       = errors.New("provider profile has no id or email")
	ErrOrganizationAccount  = errors.New("email belongs to an organization account")
	ErrSessionNotFound      = errors.New("session not found")
	ErrProfileNotConsistent = errors.New("person does not belong to a user")
)

const userResource = "user"

// AuthDeps groups the collaborators of the auth usecase.
type AuthDeps struct {
	UserRepo         repository.UserRepository
	PersonRepo       repository.PersonRepository
	OrganizationRepo repository.OrganizationRepository
	TokenRepo        repository.TokenRepository
	Hasher           PasswordHasher
	Tokens           TokenIssuer
	Mailer           VerificationMailer
	Events           event.Publisher
	Logger           *zerolog.Logger
}

type authUsecase struct {
	userRepo         repository.UserRepository
	personRepo       repository.PersonRepository
	organizationRepo repository.OrganizationRepository
	tokenRepo        repository.TokenRepository
	hasher           PasswordHasher
	tokens           TokenIssuer
	mailer           VerificationMailer
	events           event.Publisher
	logger           *zerolog.Logger

	// mails tracks verification mails still being delivered.
	mails sync.WaitGroup
}

// verificationMailTimeout bounds a single background verification mail.
const verificationMailTimeout = 30 * time.Second

func NewAuthUsecase(deps AuthDeps) AuthUsecase {
	return &authUsecase{
		userRepo:         deps.UserRepo,
		personRepo:       deps.PersonRepo,
		organizationRepo: deps.OrganizationRepo,
		tokenRepo:        deps.TokenRepo,
		hasher:           deps.Hasher,
		tokens:           deps.Tokens,
		mailer:           deps.Mailer,
		events:           deps.Events,
		logger:           deps.Logger,
	}
}

// FromProvider normalizes a raw provider payload. A missing name leaves both
// name parts empty; only the first email and photo are kept.
func FromProvider(raw provider.RawProfile) ProviderProfile {
	profile := ProviderProfile{
		ExternalID:  raw.ID,
		DisplayName: raw.DisplayName,
	}

	if raw.Name != nil {
		profile.GivenName = raw.Name.GivenName
		profile.FamilyName = raw.Name.FamilyName
	}
	if len(raw.Emails) > 0 {
		profile.Email = normalizeEmail(raw.Emails[0])
	}
	if len(raw.Photos) > 0 {
		profile.PictureURL = raw.Photos[0]
	}

	return profile
}

// DeriveUsername joins the display name without whitespace and the first five
// characters of the external id.
func DeriveUsername(displayName, externalID string) string {
	prefix := []rune(externalID)
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}

	return strings.Join(strings.Fields(displayName), "") + string(prefix)
}

func (u *authUsecase) ResolveSocialIdentity(
	ctx context.Context,
	profile ProviderProfile,
	fallbackURL string,
) (*SocialLoginResult, error) {
	profile.Email = normalizeEmail(profile.Email)
	if profile.ExternalID == "" || profile.Email == "" {
		return nil, ErrInvalidProfile
	}

	person, err := u.personRepo.GetPersonByProviderID(ctx, profile.ExternalID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up person: %w", err)
	}

	user, err := u.userRepo.GetUserByEmail(ctx, profile.Email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if person == nil && user == nil {
		user, err = u.provisionSocialUser(ctx, profile)
		if err != nil {
			return nil, err
		}
	}

	if person == nil {
		if user.IsOrganization() {
			return nil, ErrOrganizationAccount
		}

		person, err = u.personForUser(ctx, user, profile)
		if err != nil {
			return nil, err
		}
	}

	// The provider link is authoritative: the person decides which user signs in.
	if user == nil || user.ID != person.UserID {
		user, err = u.userRepo.GetUser(ctx, person.UserID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrProfileNotConsistent
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
	}

	token, err := u.createSession(ctx, user.ID, "")
	if err != nil {
		return nil, err
	}

	u.events.Publish(event.CreateIndex, event.IndexPayload{
		Title:    user.Username,
		ObjectID: user.Username,
		Resource: userResource,
		Image:    profile.PictureURL,
		Keywords: strings.TrimSpace(profile.GivenName + " " + profile.FamilyName),
	})

	return &SocialLoginResult{
		Profile:     &model.PersonProfile{Person: *person, User: user},
		Token:       token,
		FallbackURL: fallbackURL,
	}, nil
}

// provisionSocialUser creates the user of a first-time social sign-in. Losing
// the unique email race to a concurrent sign-in reloads the winner's user.
func (u *authUsecase) provisionSocialUser(ctx context.Context, profile ProviderProfile) (*model.User, error) {
	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Username:  DeriveUsername(profile.DisplayName, profile.ExternalID),
		Email:     profile.Email,
		Picture:   profile.PictureURL,
		UserType:  model.UserTypePerson,
		Verified:  true,
		FirstName: profile.GivenName,
		LastName:  profile.FamilyName,
	})
	if err == nil {
		return user, nil
	}

	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err = u.userRepo.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return user, nil
}

// personForUser returns the person owned by user, linking a new one to the
// provider identity when the user has none yet.
func (u *authUsecase) personForUser(
	ctx context.Context,
	user *model.User,
	profile ProviderProfile,
) (*model.Person, error) {
	person, err := u.personRepo.GetPersonByUserID(ctx, user.ID)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up person: %w", err)
	}

	person, err = u.personRepo.CreatePerson(ctx, &model.Person{
		ProviderID: profile.ExternalID,
		FirstName:  profile.GivenName,
		LastName:   profile.FamilyName,
		UserID:     user.ID,
	})
	if err == nil {
		return person, nil
	}

	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}

	// A concurrent sign-in linked the identity first.
	person, err = u.personRepo.GetPersonByProviderID(ctx, profile.ExternalID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		person, err = u.personRepo.GetPersonByUserID(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reload person: %w", err)
	}

	return person, nil
}

func (u *authUsecase) SignupOrganization(ctx context.Context, params SignupParams) (*SignupResult, error) {
	email := normalizeEmail(params.Email)

	_, err := u.userRepo.GetUserByLogin(ctx, params.Username)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}

	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Username:     params.Username,
		Email:        email,
		PasswordHash: passwordHash,
		UserType:     model.UserTypeOrganization,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	organization, err := u.organizationRepo.CreateOrganization(ctx, &model.Organization{
		Name:   params.CompanyName,
		UserID: user.ID,
	})
	if err != nil {
		// A user without its organization could never sign up again with the same email.
		if delErr := u.userRepo.DeleteUser(context.WithoutCancel(ctx), user.ID); delErr != nil {
			u.logger.Error().Err(delErr).Str("user_id", user.ID.Hex()).Msg("failed to remove user without organization")
		}

		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	token, err := u.createSession(ctx, user.ID, params.NotificationToken)
	if err != nil {
		return nil, err
	}

	u.sendVerification(ctx, user.Email, params.CompanyName, token)

	u.events.Publish(event.CreateIndex, event.IndexPayload{
		Title:    params.CompanyName,
		ObjectID: params.Username,
		Resource: userResource,
		Keywords: params.CompanyName + " " + params.Username,
	})

	return &SignupResult{
		Organization: &model.OrganizationProfile{Organization: *organization, User: user},
		Token:        token,
	}, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	login := strings.TrimSpace(params.Login)
	if strings.Contains(login, "@") {
		login = normalizeEmail(login)
	}

	user, err := u.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := u.hasher.Verify(params.Password, user.PasswordHash)
	if err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to verify password hash")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := u.createSession(ctx, user.ID, params.NotificationToken)
	if err != nil {
		return nil, err
	}

	if !user.Verified {
		u.sendVerification(ctx, user.Email, user.Username, token)

		return &LoginResult{
			Outcome: LoginUnverified,
			Token:   token,
			User:    user,
		}, nil
	}

	result := &LoginResult{
		Outcome: LoginAuthenticated,
		Token:   token,
		User:    user,
	}

	organization, err := u.organizationRepo.GetOrganizationByUserID(ctx, user.ID)
	switch {
	case err == nil:
		result.Organization = &model.OrganizationProfile{Organization: *organization, User: user}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	return result, nil
}

func (u *authUsecase) VerifyAccount(ctx context.Context, userID string) (VerificationOutcome, error) {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if user.Verified {
		return AlreadyVerified, nil
	}

	verified := true
	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{Verified: &verified}); err != nil {
		return 0, fmt.Errorf("failed to verify user: %w", err)
	}

	return Verified, nil
}

func (u *authUsecase) Logout(ctx context.Context, token string) error {
	if err := u.tokenRepo.SignOut(ctx, token); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrSessionNotFound
		}

		return fmt.Errorf("failed to sign out: %w", err)
	}

	return nil
}

func (u *authUsecase) CurrentUser(ctx context.Context, userID string) (*Account, error) {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	account := &Account{User: user}

	if user.IsOrganization() {
		organization, err := u.organizationRepo.GetOrganizationByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to load organization: %w", err)
		}
		account.Organization = organization
		return account, nil
	}

	person, err := u.personRepo.GetPersonByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to load person: %w", err)
	}
	account.Person = person

	return account, nil
}

func (u *authUsecase) IsVerified(ctx context.Context, userID string) (bool, error) {
	user, err := u.getUser(ctx, userID)
	if err != nil {
		return false, err
	}

	return user.Verified, nil
}

func (u *authUsecase) getUser(ctx context.Context, userID string) (*model.User, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := u.userRepo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return user, nil
}

// createSession issues a token for the user and records it in the audit log.
func (u *authUsecase) createSession(ctx context.Context, userID bson.ObjectID, notificationToken string) (string, error) {
	token, err := u.tokens.IssueToken(userID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	if _, err := u.tokenRepo.CreateToken(ctx, &model.Token{
		UserID:            userID,
		Token:             token,
		NotificationToken: notificationToken,
	}); err != nil {
		return "", fmt.Errorf("failed to record token: %w", err)
	}

	return token, nil
}

// sendVerification delivers the mail in the background; the caller never waits on SMTP.
func (u *authUsecase) sendVerification(ctx context.Context, email, name, token string) {
	u.mails.Add(1)
	go func() {
		defer u.mails.Done()

		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), verificationMailTimeout)
		defer cancel()

		if err := u.mailer.SendVerification(mailCtx, email, name, token); err != nil {
			u.logger.Warn().Err(err).Str("email", email).Msg("failed to send verification email")
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
