package feeds

import (
	"fmt"
	"strings"

	"github.com/tagwatch/tagwatch/pkg/credman"
)

// CredentialDomain is the reserved vault domain for feed logins, keeping
// them apart from retailer session cookies.
const CredentialDomain = "feeds"

// VaultCredentials resolves credential refs against the encrypted vault.
// A feed login lives under the reserved "feeds" domain with the ref as
// the entry name and "user:password" as the value.
type VaultCredentials struct {
	Vault *credman.CookieManager
}

func (v VaultCredentials) Lookup(ref string) (user, password string, err error) {
	c, err := v.Vault.GetCookie(CredentialDomain, ref)
	if err != nil {
		return "", "", fmt.Errorf("credential %q: %w", ref, err)
	}
	user, password, ok := strings.Cut(c.Value, ":")
	if !ok || user == "" {
		return "", "", fmt.Errorf("credential %q: value is not user:password", ref)
	}
	return user, password, nil
}

var _ CredentialSource = VaultCredentials{}
