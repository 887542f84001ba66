package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/service"
)

// ShopHandler handles shop-related commands
type ShopHandler struct {
	*Base
	shopService *service.ShopService
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(base *Base, shopService *service.ShopService) *ShopHandler {
	return &ShopHandler{Base: base, shopService: shopService}
}

// HandleShop opens the shop panel for the sender.
func (h *ShopHandler) HandleShop(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "shop", h.shopService.Open(context.Background(), origin(c), sender.ID))
}

// HandleInventory handles /inv.
func (h *ShopHandler) HandleInventory(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "inv", h.shopService.Inventory(context.Background(), origin(c), sender.ID))
}

// HandleUpgrades handles /upgrades.
func (h *ShopHandler) HandleUpgrades(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return h.done(c, "upgrades", h.shopService.Upgrades(context.Background(), origin(c), sender.ID))
}

// HandleShopCallback handles shop button callbacks
func (h *ShopHandler) HandleShopCallback(c tele.Context, data string) error {
	notice, err := h.shopService.Callback(context.Background(), origin(c), c.Sender().ID, data)
	return h.answer(c, "shop", notice, err)
}
