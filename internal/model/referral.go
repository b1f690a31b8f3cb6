package model

import "github.com/rootzapp/storefront/internal/money"

// ReferralNode is one user in the referral downline tree.
//
// SHAPE NOTES:
//   - Children preserve the upstream array order; that order IS the render
//     order, the tree code never re-sorts.
//   - AmountEarned is the amount the PARENT earned from this node, not the
//     node's own earnings. It is meaningless on the root.
//   - Wallet is only populated on the root node (the viewing user); the
//     upstream never discloses a descendant's wallet.
//
// The tree is trusted to be finite and acyclic — it is rebuilt from scratch
// on every profile fetch and immutable for the duration of a render pass.
type ReferralNode struct {
	ID             string          `json:"_id"`
	Name           string          `json:"name"`
	ProfilePicture string          `json:"profilePicture,omitempty"`
	AmountEarned   money.Amount    `json:"amountEarnedFromChild,omitempty"`
	Children       []*ReferralNode `json:"children,omitempty"`
	Wallet         *Wallet         `json:"wallet,omitempty"`
}
