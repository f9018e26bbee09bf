// pkg/core/party.go
package core

// Faction is a kingdom, clan faction or bandit group.
type Faction struct {
	ID       string
	Name     string
	IsBandit bool

	// BasicTroop is the culture's entry-level troop, the root of its
	// upgrade tree. Nil when the culture defines none.
	BasicTroop *Troop
}

// Leader is the hero leading a party.
type Leader struct {
	Name     string
	HasClan  bool
	ClanTier int
}

// RosterEntry is one troop type and its head count in a party roster.
type RosterEntry struct {
	Troop *Troop
	Count int
}

// Party is a faction-affiliated group fielding units in an encounter.
type Party struct {
	ID      string
	Name    string
	Side    Side
	Faction *Faction
	Leader  *Leader

	Mobile   bool
	Caravan  bool
	Villager bool
	Garrison bool
	Bandit   bool

	Roster []RosterEntry
}

// IsBanditAffiliated reports whether the party or its faction is bandit.
func (p *Party) IsBanditAffiliated() bool {
	if p.Bandit {
		return true
	}
	return p.Faction != nil && p.Faction.IsBandit
}

// CountRole returns the number of roster members with the given role.
func (p *Party) CountRole(role Role) int {
	n := 0
	for _, e := range p.Roster {
		if e.Troop != nil && e.Troop.Role == role {
			n += e.Count
		}
	}
	return n
}

// Size is the total head count of the roster.
func (p *Party) Size() int {
	n := 0
	for _, e := range p.Roster {
		n += e.Count
	}
	return n
}
