// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/licensechain/internal/apperrors"
	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/utils"
)

// AuthService signs wallets in. A caller asks for a challenge, signs it with
// personal_sign and trades the signature for a bearer token.
type AuthService struct {
	nonces NonceStore
	gate   *AdminGate
	cfg    config.JWTConfig
	now    func() time.Time
}

type NonceRequest struct {
	Address string `json:"address" validate:"required,wallet_address"`
}

type LoginRequest struct {
	Address   string `json:"address" validate:"required,wallet_address"`
	Signature string `json:"signature" validate:"required"`
}

type Challenge struct {
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthResponse struct {
	Address     string `json:"address"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"` // in seconds
	IsAdmin     bool   `json:"is_admin"`
}

func NewAuthService(nonces NonceStore, gate *AdminGate, cfg config.JWTConfig) *AuthService {
	return &AuthService{
		nonces: nonces,
		gate:   gate,
		cfg:    cfg,
		now:    time.Now,
	}
}

// ChallengeMessage is the exact text the wallet is asked to sign.
func ChallengeMessage(address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf("licensechain wants you to sign in with your account:\n%s\n\nNonce: %s\nIssued At: %s",
		address, nonce, issuedAt.UTC().Format(time.RFC3339))
}

// IssueNonce replaces any outstanding challenge for the address.
func (s *AuthService) IssueNonce(ctx context.Context, req *NonceRequest) (*Challenge, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	address := utils.ChecksumAddress(req.Address)
	nonce := uuid.New().String()
	message := ChallengeMessage(address, nonce, now)

	if err := s.nonces.Put(ctx, address, message, s.cfg.NonceTTL); err != nil {
		return nil, apperrors.Internal("failed to store sign-in nonce", err)
	}

	return &Challenge{
		Address:   address,
		Nonce:     nonce,
		Message:   message,
		ExpiresAt: now.Add(s.cfg.NonceTTL),
	}, nil
}

// Login consumes the outstanding challenge whether or not the signature
// checks out, so every challenge is good for one attempt.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	address := utils.ChecksumAddress(req.Address)
	message, err := s.nonces.Take(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNonceNotFound) {
			return nil, apperrors.InvalidSignature(address)
		}
		return nil, apperrors.Internal("failed to read sign-in nonce", err)
	}

	if !utils.VerifyPersonalSignature(address, message, req.Signature) {
		return nil, apperrors.InvalidSignature(address)
	}

	token, err := utils.GenerateJWT(address, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate access token", err)
	}

	return &AuthResponse{
		Address:     address,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.AccessTokenTTL / time.Second),
		IsAdmin:     s.gate.IsAdministrator(address),
	}, nil
}

// Session describes an already authenticated caller.
func (s *AuthService) Session(caller string) *AuthResponse {
	return &AuthResponse{
		Address: utils.ChecksumAddress(caller),
		IsAdmin: s.gate.IsAdministrator(caller),
	}
}
