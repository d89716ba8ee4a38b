package admin

import (
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// Service unlocks the settings panel.
type Service struct {
	gate   *PINGate
	tokens *TokenManager
	logger *logger.Logger
}

// NewService builds the PIN gate and token manager from configuration.
func NewService(cfg *config.AdminConfig, log *logger.Logger) (*Service, error) {
	gate, err := NewPINGate(cfg.PIN)
	if err != nil {
		return nil, err
	}
	if cfg.PIN == config.DefaultAdminPIN {
		log.Warn().Msg("admin pin is the shipped default; set TAXIWATCH_ADMIN_PIN")
	}
	return &Service{
		gate:   gate,
		tokens: NewTokenManager(cfg),
		logger: log.WithComponent("admin"),
	}, nil
}

// Unlock checks pin and issues an admin token.
func (s *Service) Unlock(pin string) (*Token, error) {
	if err := s.gate.Check(pin); err != nil {
		s.logger.Warn().Msg("settings unlock rejected")
		return nil, err
	}
	token, err := s.tokens.Issue()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign admin token")
		return nil, err
	}
	s.logger.Info().Time("expires_at", token.ExpiresAt).Msg("settings unlocked")
	return token, nil
}

// ValidateToken implements httputil.TokenValidator.
func (s *Service) ValidateToken(token string) (string, error) {
	return s.tokens.ValidateToken(token)
}
