package model

import "github.com/rootzapp/storefront/internal/money"

// Wallet is the earnings summary attached to the authenticated user.
// Every field is a money.Amount because the upstream encodes them as
// Decimal128 — see the money package for the three encodings it tolerates.
type Wallet struct {
	MoneyEarned   money.Amount `json:"moneyEarned"`   // lifetime total, the "totalEarned" figure
	MoneyWaiting  money.Amount `json:"moneyWaiting"`  // pending shop confirmation
	MoneyApproved money.Amount `json:"moneyApproved"` // confirmed, withdrawable
	CashWithdrawn money.Amount `json:"cashWithdrawn"`
}

// Profile is the user snapshot the upstream returns on authentication and on
// profile fetches. The profile fetch additionally populates Children — the
// user's referral downline — and Wallet.
//
// A Profile is also the root of the referral tree: Tree() reshapes it into a
// ReferralNode so the traversal code has a single node type to walk.
type Profile struct {
	ID             string          `json:"_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	ProfilePicture string          `json:"profilePicture,omitempty"`
	Children       []*ReferralNode `json:"children,omitempty"`
	Wallet         *Wallet         `json:"wallet,omitempty"`
}

// Tree returns the profile as the root ReferralNode of its own downline.
// The root carries the wallet; descendants never do.
func (p *Profile) Tree() *ReferralNode {
	if p == nil {
		return nil
	}
	return &ReferralNode{
		ID:             p.ID,
		Name:           p.Name,
		ProfilePicture: p.ProfilePicture,
		Children:       p.Children,
		Wallet:         p.Wallet,
	}
}
