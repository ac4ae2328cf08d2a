package domain

import (
	"github.com/arkade-os/assetreg/pkg/errors"
)

// PluginSpec is the caller-facing description of a plugin to attach. The set
// of variants is closed: FreezeDelegateSpec and RoyaltiesSpec.
type PluginSpec interface {
	encode() Plugin
}

type FreezeDelegateSpec struct {
	Frozen bool
	// Authority defaults to the asset owner when nil.
	Authority *Identity
}

func (s FreezeDelegateSpec) encode() Plugin {
	authority := OwnerAuthority()
	if s.Authority != nil {
		authority = AddressAuthority(*s.Authority)
	}
	return Plugin{
		Type:           PluginTypeFreezeDelegate,
		Authority:      authority,
		FreezeDelegate: &FreezeDelegate{Frozen: s.Frozen},
	}
}

type RoyaltiesSpec struct {
	BasisPoints uint16
	Creators    []Creator
	RuleSet     RuleSet
	// Authority defaults to the record owner when nil.
	Authority *PluginAuthority
}

func (s RoyaltiesSpec) encode() Plugin {
	authority := OwnerAuthority()
	if s.Authority != nil {
		authority = *s.Authority
	}
	return Plugin{
		Type:      PluginTypeRoyalties,
		Authority: authority,
		Royalties: &Royalties{
			BasisPoints: s.BasisPoints,
			Creators:    append([]Creator(nil), s.Creators...),
			RuleSet: RuleSet{
				Type:     s.RuleSet.Type,
				Programs: append([]Identity(nil), s.RuleSet.Programs...),
			},
		},
	}
}

// EncodePlugins turns the given specs into a plugin set, in order. It does not
// validate the result, see ValidatePlugins. No specs yield a nil set.
func EncodePlugins(specs ...PluginSpec) PluginSet {
	var plugins PluginSet
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		plugins = append(plugins, spec.encode())
	}
	return plugins
}

// ValidatePlugins checks the invariants of every plugin in the set. It has no
// side effects and must pass before any record carrying the set is written.
func ValidatePlugins(plugins PluginSet) errors.Error {
	seen := make(map[PluginType]struct{}, len(plugins))
	for _, plugin := range plugins {
		if _, ok := seen[plugin.Type]; ok {
			return errors.INVALID_PLUGIN.New("duplicate %s plugin", plugin.Type).
				WithMetadata(errors.PluginMetadata{PluginType: plugin.Type.String()})
		}
		seen[plugin.Type] = struct{}{}

		if err := validatePluginAuthority(plugin); err != nil {
			return err
		}

		switch plugin.Type {
		case PluginTypeFreezeDelegate:
			if plugin.FreezeDelegate == nil || plugin.Royalties != nil {
				return invalidPayload(plugin.Type)
			}
		case PluginTypeRoyalties:
			if plugin.Royalties == nil || plugin.FreezeDelegate != nil {
				return invalidPayload(plugin.Type)
			}
			if err := ValidateRoyalties(*plugin.Royalties); err != nil {
				return err
			}
		default:
			return errors.INVALID_PLUGIN.New("unknown plugin type %d", plugin.Type).
				WithMetadata(errors.PluginMetadata{PluginType: plugin.Type.String()})
		}
	}
	return nil
}

// ValidateRoyalties requires basis points in [0, 10000] and, when creators are
// listed, percentages summing to exactly 100. A non-zero royalty without any
// creator is rejected since there would be nobody to distribute it to.
func ValidateRoyalties(royalties Royalties) errors.Error {
	total := 0
	for _, creator := range royalties.Creators {
		total += int(creator.Percentage)
	}
	metadata := errors.RoyaltyConfigMetadata{
		BasisPoints:     int(royalties.BasisPoints),
		CreatorsCount:   len(royalties.Creators),
		CreatorsPercent: total,
	}

	if royalties.BasisPoints > MaxBasisPoints {
		return errors.INVALID_ROYALTY_CONFIG.New(
			"basis points %d exceed %d", royalties.BasisPoints, MaxBasisPoints,
		).WithMetadata(metadata)
	}
	if len(royalties.Creators) == 0 {
		if royalties.BasisPoints > 0 {
			return errors.INVALID_ROYALTY_CONFIG.New(
				"royalty of %d basis points has no creators", royalties.BasisPoints,
			).WithMetadata(metadata)
		}
	} else if total != CreatorsTotalPercent {
		return errors.INVALID_ROYALTY_CONFIG.New(
			"creator percentages sum to %d, expected %d", total, CreatorsTotalPercent,
		).WithMetadata(metadata)
	}
	for _, creator := range royalties.Creators {
		if creator.Address.IsZero() {
			return errors.INVALID_ROYALTY_CONFIG.New("creator without address").
				WithMetadata(metadata)
		}
	}

	switch royalties.RuleSet.Type {
	case RuleSetTypeNone:
		if len(royalties.RuleSet.Programs) > 0 {
			return errors.INVALID_ROYALTY_CONFIG.New("rule set none must not list programs").
				WithMetadata(metadata)
		}
	case RuleSetTypeProgramAllowList, RuleSetTypeProgramDenyList:
	default:
		return errors.INVALID_ROYALTY_CONFIG.New(
			"unknown rule set type %d", royalties.RuleSet.Type,
		).WithMetadata(metadata)
	}
	return nil
}

func validatePluginAuthority(plugin Plugin) errors.Error {
	switch plugin.Authority.Type {
	case AuthorityTypeNone, AuthorityTypeOwner, AuthorityTypeUpdateAuthority:
		return nil
	case AuthorityTypeAddress:
		if plugin.Authority.Address.IsZero() {
			return errors.INVALID_PLUGIN.New("%s authority address is missing", plugin.Type).
				WithMetadata(errors.PluginMetadata{PluginType: plugin.Type.String()})
		}
		return nil
	default:
		return errors.INVALID_PLUGIN.New(
			"unknown %s authority type %d", plugin.Type, plugin.Authority.Type,
		).WithMetadata(errors.PluginMetadata{PluginType: plugin.Type.String()})
	}
}

func invalidPayload(t PluginType) errors.Error {
	return errors.INVALID_PLUGIN.New("%s plugin payload does not match its type", t).
		WithMetadata(errors.PluginMetadata{PluginType: t.String()})
}
