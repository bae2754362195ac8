package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/order"
	"github.com/kustore/storefront/promo"
)

// Callback data prefixes.
const (
	cbMenu     = "menu:"
	cbCategory = "cat:"
	cbPromoTyp = "ptype:"
	cbConfirm  = "confirm:"
	cbEditFld  = "edit:"
	cbToggle   = "toggle:"
	cbStatus   = "status:"
)

func (b *Bot) sendMainMenu(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Add product", cbMenu+"add_product"),
			tgbotapi.NewInlineKeyboardButtonData("Edit product", cbMenu+"edit_product"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Products", cbMenu+"list_products"),
			tgbotapi.NewInlineKeyboardButtonData("Show/hide", cbMenu+"toggle"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Add promo", cbMenu+"add_promo"),
			tgbotapi.NewInlineKeyboardButtonData("Promo codes", cbMenu+"list_promos"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Orders", cbMenu+"orders"),
			tgbotapi.NewInlineKeyboardButtonData("Stats", cbMenu+"stats"),
		),
	)
	b.sendWithKeyboard(chatID, "Admin menu:", kb)
}

// handleCallback routes inline keyboard presses.
func (b *Bot) handleCallback(session *Session, cb *tgbotapi.CallbackQuery) {
	// Ack so the client stops the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Debug("callback ack failed", logging.Error(err))
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbMenu):
		b.handleMenuAction(session, strings.TrimPrefix(data, cbMenu))
	case strings.HasPrefix(data, cbCategory):
		b.handleProductCategory(session, strings.TrimPrefix(data, cbCategory))
	case strings.HasPrefix(data, cbPromoTyp):
		b.handlePromoType(session, strings.TrimPrefix(data, cbPromoTyp))
	case strings.HasPrefix(data, cbConfirm):
		b.handleConfirm(session, strings.TrimPrefix(data, cbConfirm))
	case strings.HasPrefix(data, cbEditFld):
		b.handleEditField(session, strings.TrimPrefix(data, cbEditFld))
	case strings.HasPrefix(data, cbToggle):
		b.handleToggleVisibility(session, strings.TrimPrefix(data, cbToggle))
	case strings.HasPrefix(data, cbStatus):
		b.handleOrderStatus(session, strings.TrimPrefix(data, cbStatus))
	default:
		b.sendMainMenu(session.ChatID)
	}
}

func (b *Bot) handleMenuAction(session *Session, action string) {
	switch action {
	case "add_product":
		b.startAddProduct(session)
	case "edit_product":
		session.State = StateEditSearch
		b.send(session.ChatID, "Send a product id or part of its name:")
	case "toggle":
		session.State = StateToggleSearch
		b.send(session.ChatID, "Send a product id or part of its name:")
	case "list_products":
		b.sendProductList(session.ChatID)
	case "add_promo":
		b.startAddPromo(session)
	case "list_promos":
		b.sendPromoList(session.ChatID)
	case "orders":
		b.sendRecentOrders(session.ChatID)
	case "stats":
		b.sendStats(session.ChatID)
	default:
		b.sendMainMenu(session.ChatID)
	}
}

func (b *Bot) sendProductList(chatID int64) {
	products, err := b.store.Products()
	if err != nil {
		b.logger.Error("failed to load products", logging.Error(err))
		b.send(chatID, "Failed to load products.")
		return
	}
	if len(products) == 0 {
		b.send(chatID, "No products yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Products (%d):\n\n", len(products)))
	for _, p := range products {
		visibility := "visible"
		if !p.InStock {
			visibility = "hidden"
		}
		fmt.Fprintf(&sb, "%s\n  %s | %s | %s\n  id: %s\n\n",
			p.Name, p.Category, p.RealPrice.StringFixed(2), visibility, p.ID)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) sendPromoList(chatID int64) {
	promos, err := b.store.PromoCodes()
	if err != nil {
		b.logger.Error("failed to load promo codes", logging.Error(err))
		b.send(chatID, "Failed to load promo codes.")
		return
	}
	if len(promos) == 0 {
		b.send(chatID, "No promo codes yet.")
		return
	}

	now := time.Now()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Promo codes (%d):\n\n", len(promos)))
	for _, pc := range promos {
		state := "inactive"
		if pc.ValidAt(now) && !pc.Exhausted() {
			state = "active"
		}
		uses := fmt.Sprintf("%d", pc.CurrentUses)
		if pc.MaxUses != nil {
			uses = fmt.Sprintf("%d/%d", pc.CurrentUses, *pc.MaxUses)
		}
		value := pc.DiscountValue.StringFixed(0)
		if pc.DiscountType == promo.DiscountPercentage {
			value += "%"
		}
		fmt.Fprintf(&sb, "%s: %s off, uses %s, until %s (%s)\n",
			pc.Code, value, uses, pc.ValidUntil.Format("02.01.2006"), state)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) sendStats(chatID int64) {
	stats, err := b.store.Stats()
	if err != nil {
		b.logger.Error("failed to load stats", logging.Error(err))
		b.send(chatID, "Failed to load stats.")
		return
	}

	text := fmt.Sprintf(
		"Store stats\n\n"+
			"Products: %d (%d visible, %d new)\n"+
			"Orders: %d (%d new, %d delivered)\n"+
			"Revenue: %s\n"+
			"Promo codes: %d (%d active)",
		stats.TotalProducts, stats.VisibleProducts, stats.NewProducts,
		stats.TotalOrders, stats.NewOrders, stats.CompletedOrders,
		stats.TotalRevenue.StringFixed(2),
		stats.TotalPromoCodes, stats.ActivePromos,
	)
	b.send(chatID, text)
}

// sendRecentOrders lists in-flight orders with status buttons.
func (b *Bot) sendRecentOrders(chatID int64) {
	orders, err := b.store.RecentOrders(10)
	if err != nil {
		b.logger.Error("failed to load orders", logging.Error(err))
		b.send(chatID, "Failed to load orders.")
		return
	}
	if len(orders) == 0 {
		b.send(chatID, "No orders yet.")
		return
	}

	for _, o := range orders {
		text := fmt.Sprintf("Order %s\n%s, %s\nTotal: %s\nStatus: %s",
			o.ID, o.CustomerName, o.CustomerPhone,
			o.TotalAmount.StringFixed(2), o.Status)
		b.sendWithKeyboard(chatID, text, orderStatusKeyboard(o))
	}
}

// orderStatusKeyboard offers only the transitions the order can take.
func orderStatusKeyboard(o order.Order) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, to := range []order.Status{
		order.StatusConfirmed, order.StatusPaid, order.StatusShipped,
		order.StatusDelivered, order.StatusCancelled,
	} {
		if order.CanTransition(o.Status, to) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				string(to), fmt.Sprintf("%s%s:%s", cbStatus, o.ID, to)))
		}
	}
	if len(row) == 0 {
		return tgbotapi.NewInlineKeyboardMarkup()
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

// handleOrderStatus applies a "status:<order id>:<status>" callback.
func (b *Bot) handleOrderStatus(session *Session, data string) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}
	orderID, to := parts[0], order.Status(parts[1])

	if err := b.store.UpdateOrderStatus(orderID, to); err != nil {
		b.logger.Error("failed to update order status", logging.Error(err))
		b.send(session.ChatID, fmt.Sprintf("Failed to update order: %v", err))
		return
	}
	b.send(session.ChatID, fmt.Sprintf("Order %s is now %s.", orderID, to))
}
