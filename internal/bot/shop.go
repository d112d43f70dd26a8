package bot

import "strings"

// ShopItem is one redeemable reward in the static points shop.
type ShopItem struct {
	Name string
	Cost int
}

var shopItems = []ShopItem{
	{Name: "legacy-title", Cost: 250},
	{Name: "hall-of-fame", Cost: 150},
	{Name: "vod-review", Cost: 60},
	{Name: "private-coaching", Cost: 50},
	{Name: "event-vote", Cost: 20},
	{Name: "emoji-request", Cost: 15},
	{Name: "custom-color", Cost: 10},
	{Name: "custom-name", Cost: 8},
}

func findShopItem(name string) (ShopItem, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, item := range shopItems {
		if item.Name == name {
			return item, true
		}
	}
	return ShopItem{}, false
}
