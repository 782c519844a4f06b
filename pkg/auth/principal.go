package auth

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"video-portal/pkg/models"
)

// Principal is one signed-in identity as reported by the hosting platform.
type Principal struct {
	Provider string  `json:"provider_name"`
	UserID   string  `json:"user_id"`
	Claims   []Claim `json:"user_claims"`
}

type Claim struct {
	Type  string `json:"typ"`
	Value string `json:"val"`
}

// headerPrincipal is the shape of the base64 X-MS-CLIENT-PRINCIPAL header.
type headerPrincipal struct {
	Provider string  `json:"auth_typ"`
	NameType string  `json:"name_typ"`
	Claims   []Claim `json:"claims"`
}

const (
	claimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimEmail          = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimName           = "name"
)

// Claim returns the first claim value of any of the given types.
func (p *Principal) Claim(types ...string) string {
	for _, typ := range types {
		for _, c := range p.Claims {
			if strings.EqualFold(c.Type, typ) && c.Value != "" {
				return c.Value
			}
		}
	}
	return ""
}

// StableUserID derives the user document id from provider and provider user
// id. The result does not change across sign-ins.
func StableUserID(p *Principal) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(p.Provider) + "|" + p.UserID))
	return hex.EncodeToString(sum[:])[:32]
}

// NewUser builds the user record provisioned for a first-time principal.
func NewUser(p *Principal, createdAt string) *models.User {
	username := p.Claim("preferred_username", claimName, "emails", claimEmail)
	if username == "" {
		username = p.UserID
	}
	display := p.Claim(claimName, "given_name")
	if display == "" {
		display = username
	}
	return &models.User{
		ID:          StableUserID(p),
		Provider:    p.Provider,
		Username:    username,
		DisplayName: display,
		Email:       p.Claim("emails", "email", claimEmail),
		CreatedAt:   createdAt,
	}
}

// DecodePrincipalHeader parses the base64 JSON principal the platform
// injects in X-MS-CLIENT-PRINCIPAL.
func DecodePrincipalHeader(value string) (*Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(value); err != nil {
			return nil, fmt.Errorf("decode principal header: %w", err)
		}
	}
	var hp headerPrincipal
	if err := json.Unmarshal(raw, &hp); err != nil {
		return nil, fmt.Errorf("parse principal header: %w", err)
	}
	p := &Principal{Provider: hp.Provider, Claims: hp.Claims}
	p.UserID = p.Claim(claimNameIdentifier, "sub", "oid")
	if p.UserID == "" {
		return nil, ErrNoPrincipal
	}
	return p, nil
}

// parsePrincipals accepts the identity endpoint body: an array of principals
// or a single principal object.
func parsePrincipals(body []byte) (*Principal, error) {
	trimmed := strings.TrimSpace(string(body))
	var list []Principal
	if strings.HasPrefix(trimmed, "{") {
		var one Principal
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIdentityEndpoint, err)
		}
		list = append(list, one)
	} else if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityEndpoint, err)
	}
	for i := range list {
		if list[i].UserID != "" {
			return &list[i], nil
		}
	}
	return nil, ErrNoPrincipal
}
