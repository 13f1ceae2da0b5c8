package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "cryptoledger/internal/errors"
	"cryptoledger/internal/models"
	"cryptoledger/internal/pagination"
)

// clientService handles client-related business logic.
type clientService struct {
	db *gorm.DB
}

// NewClientService creates a new ClientServicer.
func NewClientService(db *gorm.DB) ClientServicer {
	return &clientService{db: db}
}

// CreateClient registers a new client.
func (s *clientService) CreateClient(name, email string) (*models.Client, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "client name is required")
	}
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "client email is required")
	}

	client := &models.Client{Name: name, Email: email}
	if err := s.db.Create(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return client, nil
}

// GetClients retrieves a paginated list of clients ordered by id.
func (s *clientService) GetClients(page pagination.PageRequest) (*pagination.PageResponse[models.Client], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Client{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var clients []models.Client
	if err := s.db.Scopes(pagination.Paginate(page)).
		Order("id ASC").
		Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(clients, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetClientByID retrieves a client by ID.
func (s *clientService) GetClientByID(clientID uint) (*models.Client, error) {
	return findClient(s.db, clientID)
}

// UpdateClient replaces a client's name and email.
func (s *clientService) UpdateClient(clientID uint, name, email string) (*models.Client, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "client name and email are required")
	}

	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}

	client.Name = name
	client.Email = email
	if err := s.db.Save(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return client, nil
}

// DeleteClient deletes a client together with its transactions.
func (s *clientService) DeleteClient(clientID uint) error {
	if _, err := s.GetClientByID(clientID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", clientID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Client{}, clientID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// findClient loads a client using db, mapping a missing row to ErrClientNotFound.
func findClient(db *gorm.DB, clientID uint) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &client, nil
}
