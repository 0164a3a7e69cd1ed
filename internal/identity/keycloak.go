package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/domain"
)

// KeycloakProvisioner creates users through the Keycloak admin REST API,
// authenticating with the client-credentials grant.
type KeycloakProvisioner struct {
	baseURL string
	realm   string
	client  *http.Client
	logger  *zap.Logger
}

type keycloakCredential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type keycloakUser struct {
	Username    string               `json:"username"`
	Email       string               `json:"email"`
	FirstName   string               `json:"firstName,omitempty"`
	LastName    string               `json:"lastName,omitempty"`
	Enabled     bool                 `json:"enabled"`
	Credentials []keycloakCredential `json:"credentials"`
}

type keycloakRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewKeycloakProvisioner builds a provisioner for cfg.
func NewKeycloakProvisioner(ctx context.Context, cfg config.KeycloakConfig, logger *zap.Logger) *KeycloakProvisioner {
	base := strings.TrimRight(cfg.ServerURL, "/")
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect/token",
	}
	return &KeycloakProvisioner{
		baseURL: base,
		realm:   cfg.Realm,
		client:  cc.Client(ctx),
		logger:  logger,
	}
}

func (k *KeycloakProvisioner) Provision(ctx context.Context, staff *domain.Staff, password string) (Account, error) {
	if !staff.Type.Valid() {
		return Account{}, fmt.Errorf("unknown staff type %q", staff.Type)
	}
	password, err := initialPassword(password)
	if err != nil {
		return Account{}, err
	}

	userID, err := k.createUser(ctx, keycloakUser{
		Username:  staff.Email,
		Email:     staff.Email,
		FirstName: staff.Prenom,
		LastName:  staff.Nom,
		Enabled:   true,
		Credentials: []keycloakCredential{
			{Type: "password", Value: password, Temporary: false},
		},
	})
	if err != nil {
		return Account{}, err
	}

	roleName := staff.Type.RealmRole()
	if err := k.assignRealmRole(ctx, userID, roleName); err != nil {
		return Account{}, err
	}

	k.logger.Info("keycloak account provisioned",
		zap.Int64("staff_id", staff.ID),
		zap.String("account_id", userID),
		zap.String("role", roleName))
	return Account{ID: userID, InitialPassword: password}, nil
}

func (k *KeycloakProvisioner) createUser(ctx context.Context, user keycloakUser) (string, error) {
	resp, err := k.do(ctx, http.MethodPost, k.adminURL("users"), user)
	if err != nil {
		return "", fmt.Errorf("create keycloak user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create keycloak user: %s", describe(resp))
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("create keycloak user: response has no Location header")
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("create keycloak user: bad Location %q: %w", location, err)
	}
	return path.Base(u.Path), nil
}

func (k *KeycloakProvisioner) assignRealmRole(ctx context.Context, userID, roleName string) error {
	resp, err := k.do(ctx, http.MethodGet, k.adminURL("roles", roleName), nil)
	if err != nil {
		return fmt.Errorf("read realm role %s: %w", roleName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("read realm role %s: %s", roleName, describe(resp))
	}
	var role keycloakRole
	if err := json.NewDecoder(resp.Body).Decode(&role); err != nil {
		return fmt.Errorf("decode realm role %s: %w", roleName, err)
	}

	mapping, err := k.do(ctx, http.MethodPost, k.adminURL("users", userID, "role-mappings", "realm"), []keycloakRole{role})
	if err != nil {
		return fmt.Errorf("assign realm role %s: %w", roleName, err)
	}
	defer mapping.Body.Close()
	if mapping.StatusCode/100 != 2 {
		return fmt.Errorf("assign realm role %s: %s", roleName, describe(mapping))
	}
	return nil
}

func (k *KeycloakProvisioner) adminURL(segments ...string) string {
	escaped := make([]string, 0, len(segments)+3)
	escaped = append(escaped, k.baseURL, "admin", "realms", url.PathEscape(k.realm))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}

func (k *KeycloakProvisioner) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return k.client.Do(req)
}

func describe(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return resp.Status
	}
	return resp.Status + ": " + msg
}
