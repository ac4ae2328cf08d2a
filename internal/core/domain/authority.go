package domain

import (
	"fmt"
	"strings"

	"github.com/arkade-os/assetreg/pkg/errors"
)

type roleKind uint8

const (
	roleCollectionUpdateAuthority roleKind = iota
	roleAssetOwner
	rolePluginAuthority
)

// AuthorityRole names the authority a transition requires.
type AuthorityRole struct {
	kind   roleKind
	plugin PluginType
}

var (
	RoleCollectionUpdateAuthority = AuthorityRole{kind: roleCollectionUpdateAuthority}
	RoleAssetOwner                = AuthorityRole{kind: roleAssetOwner}
)

func RolePluginAuthority(t PluginType) AuthorityRole {
	return AuthorityRole{kind: rolePluginAuthority, plugin: t}
}

func (r AuthorityRole) String() string {
	switch r.kind {
	case roleCollectionUpdateAuthority:
		return "CollectionUpdateAuthority"
	case roleAssetOwner:
		return "AssetOwner"
	default:
		return fmt.Sprintf("PluginAuthority(%s)", r.plugin)
	}
}

// Authorize succeeds iff signer is the identity recorded for the role. A zero
// record authority is held by nobody.
func Authorize(role AuthorityRole, recordAuthority, signer Identity) errors.Error {
	if recordAuthority.IsZero() || signer != recordAuthority {
		return errors.UNAUTHORIZED.New("%s is not %s", signer, role).
			WithMetadata(errors.UnauthorizedMetadata{
				Role:     role.String(),
				Expected: recordAuthority.String(),
				Signer:   signer.String(),
			})
	}
	return nil
}

type AuthorityGrant struct {
	Role      AuthorityRole
	Authority Identity
}

// AuthorizeAny succeeds when signer holds at least one of the given grants.
func AuthorizeAny(signer Identity, grants ...AuthorityGrant) errors.Error {
	roles := make([]string, 0, len(grants))
	expected := make([]string, 0, len(grants))
	for _, grant := range grants {
		if err := Authorize(grant.Role, grant.Authority, signer); err == nil {
			return nil
		}
		roles = append(roles, grant.Role.String())
		expected = append(expected, grant.Authority.String())
	}
	return errors.UNAUTHORIZED.New("%s is not %s", signer, strings.Join(roles, " or ")).
		WithMetadata(errors.UnauthorizedMetadata{
			Role:     strings.Join(roles, ","),
			Expected: strings.Join(expected, ","),
			Signer:   signer.String(),
		})
}

// ResolvePluginAuthority returns the identity currently holding authority over
// the given plugin of the asset. Plugins without a recorded authority, or not
// attached at all, resolve to the asset owner. The zero identity means nobody.
func ResolvePluginAuthority(asset Asset, collection *Collection, t PluginType) Identity {
	plugin, ok := asset.Plugins.Get(t)
	if !ok {
		return asset.Owner
	}
	switch plugin.Authority.Type {
	case AuthorityTypeOwner:
		return asset.Owner
	case AuthorityTypeUpdateAuthority:
		if collection == nil {
			return ""
		}
		return collection.UpdateAuthority
	case AuthorityTypeAddress:
		return plugin.Authority.Address
	default:
		return ""
	}
}
