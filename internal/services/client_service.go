package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

// ClientCreated is returned once when a client is registered; the plain
// secret cannot be read back later
type ClientCreated struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Name         string `json:"name"`
	Domain       string `json:"domain"`
}

// ClientRead describes a registered client without its secret
type ClientRead struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
}

// ClientService manages OAuth2 clients that may use the password grant.
// Clients are owned by the staff member who registered them.
type ClientService interface {
	CreateClient(ctx context.Context, viewer Viewer, name, domain string) (ClientCreated, error)
	ListClients(ctx context.Context, viewer Viewer) ([]ClientRead, error)
	DeleteClient(ctx context.Context, viewer Viewer, clientID string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(ctx context.Context, viewer Viewer, name, domain string) (ClientCreated, error) {
	if !viewer.IsStaff {
		return ClientCreated{}, Forbidden("Only staff can register clients")
	}

	secret := uuid.NewString()
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return ClientCreated{}, fmt.Errorf("failed to hash client secret: %w", err)
	}

	client := models.OAuthClient{
		ID:     uuid.NewString(),
		Secret: string(hashedSecret),
		Name:   name,
		Domain: domain,
		UserID: viewer.ID,
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return ClientCreated{}, fmt.Errorf("failed to create client: %w", err)
	}

	log.WithFields(logrus.Fields{"client_id": client.ID, "owner_id": viewer.ID}).Info("OAuth client registered")
	return ClientCreated{ClientID: client.ID, ClientSecret: secret, Name: client.Name, Domain: client.Domain}, nil
}

func (s *clientService) ListClients(ctx context.Context, viewer Viewer) ([]ClientRead, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Where("user_id = ?", viewer.ID).Order("created_at").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	out := make([]ClientRead, 0, len(clients))
	for _, c := range clients {
		out = append(out, ClientRead{ClientID: c.ID, Name: c.Name, Domain: c.Domain})
	}
	return out, nil
}

func (s *clientService) DeleteClient(ctx context.Context, viewer Viewer, clientID string) error {
	db := s.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", clientID, viewer.ID).Delete(&models.OAuthClient{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete client: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NotFound("Client not found")
		}
		// tokens issued to the client stop working with it
		if err := tx.Where("client_id = ?", clientID).Delete(&models.OAuthToken{}).Error; err != nil {
			return fmt.Errorf("failed to revoke client tokens: %w", err)
		}
		return nil
	})
}
