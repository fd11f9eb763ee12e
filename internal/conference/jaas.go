// Package conference issues join tokens for 8x8 Jitsi-as-a-Service video rooms.
package conference

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/example/ai-secretary/internal/application"
)

const (
	baseURL         = "https://8x8.vc"
	defaultTokenTTL = 2 * time.Hour
	clockSkew       = 5 * time.Second
)

// Config identifies the JaaS tenant and signing key.
type Config struct {
	AppID          string
	APIKeyID       string
	PrivateKeyPath string
	TokenTTL       time.Duration
	Recording      bool
	Transcription  bool
}

type userContext struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Avatar             string `json:"avatar"`
	Moderator          bool   `json:"moderator"`
	HiddenFromRecorder bool   `json:"hidden-from-recorder"`
}

type features struct {
	Livestreaming   bool `json:"livestreaming"`
	FileUpload      bool `json:"file-upload"`
	OutboundCall    bool `json:"outbound-call"`
	SIPOutboundCall bool `json:"sip-outbound-call"`
	Transcription   bool `json:"transcription"`
	ListVisitors    bool `json:"list-visitors"`
	Recording       bool `json:"recording"`
	Flip            bool `json:"flip"`
}

type tokenContext struct {
	User     userContext `json:"user"`
	Features features    `json:"features"`
}

type claims struct {
	Room    string       `json:"room"`
	Context tokenContext `json:"context"`
	jwt.RegisteredClaims
}

// Issuer signs RS256 JaaS tokens. It satisfies application.ConferenceIssuer.
type Issuer struct {
	cfg Config
	key *rsa.PrivateKey
}

// NewIssuer builds an Issuer from an already parsed key.
func NewIssuer(cfg Config, key *rsa.PrivateKey) (*Issuer, error) {
	if strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.APIKeyID) == "" {
		return nil, fmt.Errorf("conference: app id and api key id are required")
	}
	if key == nil {
		return nil, fmt.Errorf("conference: private key is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &Issuer{cfg: cfg, key: key}, nil
}

// LoadIssuer reads the PEM private key at cfg.PrivateKeyPath and builds an Issuer.
func LoadIssuer(cfg Config) (*Issuer, error) {
	raw, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("conference: read private key: %w", err)
	}
	key, err := ParsePrivateKey(raw)
	if err != nil {
		return nil, err
	}
	return NewIssuer(cfg, key)
}

// ParsePrivateKey decodes a PKCS#1 or PKCS#8 RSA key. Keys pasted with
// literal "\n" sequences are accepted.
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	text := strings.ReplaceAll(string(pemBytes), `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("conference: parse private key: %w", err)
	}
	return key, nil
}

// NewRoomName returns a random room name.
func (i *Issuer) NewRoomName() string {
	return "meeting-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RoomURL returns the browser URL of room. RoomURL("") is the tenant prefix.
func (i *Issuer) RoomURL(room string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, i.cfg.AppID, room)
}

// IssueToken signs a token valid for every room of the tenant.
func (i *Issuer) IssueToken(user application.ConferenceUser, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.cfg.TokenTTL)

	id := user.ID
	if id == "" {
		id = fmt.Sprintf("user-%d", now.Unix())
	}
	name := user.Name
	if name == "" {
		name = "Guest"
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims{
		Room: "*",
		Context: tokenContext{
			User: userContext{
				ID:        id,
				Name:      name,
				Email:     user.Email,
				Moderator: user.Moderator,
			},
			Features: features{
				Recording:     i.cfg.Recording,
				Transcription: i.cfg.Transcription,
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"jitsi"},
			Issuer:    "chat",
			Subject:   i.cfg.AppID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-clockSkew)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	token.Header["kid"] = i.cfg.AppID + "/" + i.cfg.APIKeyID

	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("conference: sign token: %w", err)
	}
	return signed, expiresAt, nil
}
