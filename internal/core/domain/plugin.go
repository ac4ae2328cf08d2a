package domain

const (
	MaxBasisPoints       = 10000
	CreatorsTotalPercent = 100
)

type PluginType uint8

const (
	PluginTypeUnknown PluginType = iota
	PluginTypeRoyalties
	PluginTypeFreezeDelegate
)

func (t PluginType) String() string {
	switch t {
	case PluginTypeRoyalties:
		return "Royalties"
	case PluginTypeFreezeDelegate:
		return "FreezeDelegate"
	default:
		return "Unknown"
	}
}

type AuthorityType uint8

const (
	AuthorityTypeNone AuthorityType = iota
	AuthorityTypeOwner
	AuthorityTypeUpdateAuthority
	AuthorityTypeAddress
)

func (t AuthorityType) String() string {
	names := []string{"None", "Owner", "UpdateAuthority", "Address"}
	if int(t) >= len(names) {
		return "Unknown"
	}
	return names[t]
}

// PluginAuthority is the identity, static or derived from the record, allowed
// to change a plugin.
type PluginAuthority struct {
	Type    AuthorityType
	Address Identity `json:",omitempty"`
}

func OwnerAuthority() PluginAuthority {
	return PluginAuthority{Type: AuthorityTypeOwner}
}

func UpdateAuthority() PluginAuthority {
	return PluginAuthority{Type: AuthorityTypeUpdateAuthority}
}

func AddressAuthority(address Identity) PluginAuthority {
	return PluginAuthority{Type: AuthorityTypeAddress, Address: address}
}

type Creator struct {
	Address    Identity
	Percentage uint8
}

type RuleSetType uint8

const (
	RuleSetTypeNone RuleSetType = iota
	RuleSetTypeProgramAllowList
	RuleSetTypeProgramDenyList
)

type RuleSet struct {
	Type     RuleSetType
	Programs []Identity `json:",omitempty"`
}

type Royalties struct {
	BasisPoints uint16
	Creators    []Creator
	RuleSet     RuleSet
}

type FreezeDelegate struct {
	Frozen bool
}

// Plugin is a closed union: exactly one of the payload pointers matching Type
// is set.
type Plugin struct {
	Type           PluginType
	Authority      PluginAuthority
	Royalties      *Royalties      `json:",omitempty"`
	FreezeDelegate *FreezeDelegate `json:",omitempty"`
}

type PluginSet []Plugin

func (s PluginSet) Get(t PluginType) (*Plugin, bool) {
	for i := range s {
		if s[i].Type == t {
			return &s[i], true
		}
	}
	return nil, false
}

func (s PluginSet) Has(t PluginType) bool {
	_, ok := s.Get(t)
	return ok
}

func (s PluginSet) Royalties() *Royalties {
	p, ok := s.Get(PluginTypeRoyalties)
	if !ok {
		return nil
	}
	return p.Royalties
}

func (s PluginSet) FreezeDelegate() *FreezeDelegate {
	p, ok := s.Get(PluginTypeFreezeDelegate)
	if !ok {
		return nil
	}
	return p.FreezeDelegate
}

func (s PluginSet) IsFrozen() bool {
	fd := s.FreezeDelegate()
	return fd != nil && fd.Frozen
}

func (s PluginSet) Clone() PluginSet {
	if s == nil {
		return nil
	}
	clone := make(PluginSet, 0, len(s))
	for _, p := range s {
		cp := p
		if p.Royalties != nil {
			r := *p.Royalties
			r.Creators = append([]Creator(nil), p.Royalties.Creators...)
			r.RuleSet.Programs = append([]Identity(nil), p.Royalties.RuleSet.Programs...)
			cp.Royalties = &r
		}
		if p.FreezeDelegate != nil {
			fd := *p.FreezeDelegate
			cp.FreezeDelegate = &fd
		}
		clone = append(clone, cp)
	}
	return clone
}
