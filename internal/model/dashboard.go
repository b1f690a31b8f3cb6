package model

import "github.com/rootzapp/storefront/internal/money"

// Dashboard is the admin aggregate payload. The gateway passes it through
// untouched apart from amount normalization.
type Dashboard struct {
	SiteVisits         int                     `json:"siteVisits"`
	WalletStats        map[string]money.Amount `json:"walletStats"`
	TopShops           []Company               `json:"topShops"`
	RecentTransactions []Transaction           `json:"recentTransactions"`
	UserGrowth         []GrowthPoint           `json:"userGrowth"`
}

// GrowthPoint is one month's signup count. The upstream groups by month and
// reuses "_id" for the group key, Mongo aggregation style.
type GrowthPoint struct {
	Month string `json:"_id"`
	Count int    `json:"count"`
}
