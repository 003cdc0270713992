package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(config.LevelFromEnv())
}

// Options configures token issuance
type Options struct {
	JWTSecret string
	// ClientID and ClientSecret identify the first-party web client that
	// login tokens are issued to
	ClientID     string
	ClientSecret string
	TokenTTL     time.Duration
}

// OAuthService issues, validates and revokes access tokens. Tokens are JWTs
// that are also recorded in the token store so they can be revoked.
type OAuthService struct {
	server  *server.Server
	manager *manage.Manager
	db      *gorm.DB
	opts    Options
}

func NewOAuthService(db *gorm.DB, opts Options) *OAuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}

	manager := manage.NewDefaultManager()
	manager.SetPasswordTokenCfg(&manage.Config{AccessTokenExp: opts.TokenTTL})

	// Use JWT for access tokens
	manager.MapAccessGenerate(NewAccessGenerator([]byte(opts.JWTSecret), jwt.SigningMethodHS512, db))

	// Configure token store
	manager.MustTokenStorage(NewGormTokenStore(db), nil)

	// Configure client store
	manager.MapClientStorage(NewGormClientStore(db))

	o := &OAuthService{manager: manager, db: db, opts: opts}

	srv := server.NewDefaultServer(manager)
	srv.SetAllowedGrantType(oauth2.PasswordCredentials)
	srv.SetClientInfoHandler(server.ClientFormHandler)
	srv.SetPasswordAuthorizationHandler(o.authorizePassword)
	o.server = srv

	return o
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// EnsureClient registers the first-party client, rotating its stored secret
// hash when the configured secret changed
func (o *OAuthService) EnsureClient(ctx context.Context) error {
	db := o.db.WithContext(ctx)

	var client models.OAuthClient
	err := db.Where("id = ?", o.opts.ClientID).First(&client).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load oauth client: %w", err)
	}
	if err == nil && client.VerifyPassword(o.opts.ClientSecret) {
		return nil
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(o.opts.ClientSecret), bcrypt.DefaultCost)
	if hashErr != nil {
		return fmt.Errorf("failed to hash client secret: %w", hashErr)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		client = models.OAuthClient{
			ID:     o.opts.ClientID,
			Secret: string(hash),
			Name:   "Foodgram web",
		}
		if err := db.Create(&client).Error; err != nil {
			return fmt.Errorf("failed to create oauth client: %w", err)
		}
		log.WithField("client_id", client.ID).Info("OAuth client created")
		return nil
	}

	if err := db.Model(&client).Update("secret", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to rotate oauth client secret: %w", err)
	}
	log.WithField("client_id", client.ID).Info("OAuth client secret rotated")
	return nil
}

// authorizePassword resolves the username of a password grant, which is the
// account email, to a user id
func (o *OAuthService) authorizePassword(ctx context.Context, clientID, username, password string) (string, error) {
	var user models.User
	if err := o.db.WithContext(ctx).Where("email = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", oautherrors.ErrInvalidGrant
		}
		return "", err
	}
	if !user.CheckPassword(password) {
		return "", oautherrors.ErrInvalidGrant
	}
	return strconv.FormatUint(uint64(user.ID), 10), nil
}
