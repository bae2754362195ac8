package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/promo"
)

var oneHundred = decimal.NewFromInt(100)

// parseAmount parses a non-negative money amount, accepting a comma as the
// decimal separator.
func parseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return amount, nil
}

func (b *Bot) startAddPromo(session *Session) {
	session.State = StatePromoCode
	session.Promo = &promoDraft{}
	session.Promo.Promo.IsActive = true
	b.send(session.ChatID, "New promo code. Send the code:")
}

// handlePromoStep advances the add-promo wizard on a text answer.
func (b *Bot) handlePromoStep(session *Session, text string) {
	draft := session.Promo
	if draft == nil {
		b.sessions.Reset(session.ChatID)
		b.sendMainMenu(session.ChatID)
		return
	}
	text = strings.TrimSpace(text)

	switch session.State {
	case StatePromoCode:
		code := promo.NormalizeCode(text)
		if code == "" {
			b.send(session.ChatID, "Code cannot be empty. Send the code:")
			return
		}
		if _, err := b.store.PromoCodeByCode(code); err == nil {
			b.send(session.ChatID, fmt.Sprintf("Code %s already exists. Send another:", code))
			return
		}
		draft.Promo.Code = code
		session.State = StatePromoName
		b.send(session.ChatID, "Send a display name for the promo:")

	case StatePromoName:
		draft.Promo.Name = text
		session.State = StatePromoType
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Percentage", cbPromoTyp+string(promo.DiscountPercentage)),
			tgbotapi.NewInlineKeyboardButtonData("Fixed amount", cbPromoTyp+string(promo.DiscountFixed)),
		))
		b.sendWithKeyboard(session.ChatID, "Pick the discount type:", kb)

	case StatePromoType:
		// The type comes from the buttons.
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Percentage", cbPromoTyp+string(promo.DiscountPercentage)),
			tgbotapi.NewInlineKeyboardButtonData("Fixed amount", cbPromoTyp+string(promo.DiscountFixed)),
		))
		b.sendWithKeyboard(session.ChatID, "Pick the discount type:", kb)

	case StatePromoValue:
		value, err := parsePrice(text)
		if err != nil {
			b.send(session.ChatID, "The value must be a positive number. Try again:")
			return
		}
		if draft.Promo.DiscountType == promo.DiscountPercentage && value.GreaterThan(oneHundred) {
			b.send(session.ChatID, "A percentage discount cannot exceed 100. Try again:")
			return
		}
		draft.Promo.DiscountValue = value
		session.State = StatePromoMinOrder
		b.send(session.ChatID, "Minimum order amount (0 for none):")

	case StatePromoMinOrder:
		amount, err := parseAmount(text)
		if err != nil {
			b.send(session.ChatID, "Send a non-negative number:")
			return
		}
		draft.Promo.MinOrderAmount = amount
		session.State = StatePromoMinItems
		b.send(session.ChatID, "Minimum item count (0 for none):")

	case StatePromoMinItems:
		count, err := strconv.Atoi(text)
		if err != nil || count < 0 {
			b.send(session.ChatID, "Send a non-negative integer:")
			return
		}
		draft.Promo.MinItemsCount = count
		session.State = StatePromoCategories
		b.send(session.ChatID, fmt.Sprintf(
			"Categories the promo applies to, comma separated, or 'all':\n%s",
			strings.Join(catalog.Categories, ", ")))

	case StatePromoCategories:
		if !strings.EqualFold(text, "all") {
			var cats []string
			for _, raw := range strings.Split(text, ",") {
				cat := strings.ToLower(strings.TrimSpace(raw))
				if cat == "" {
					continue
				}
				if !catalog.ValidCategory(cat) {
					b.send(session.ChatID, fmt.Sprintf(
						"'%s' is not a category. Use: %s", cat, strings.Join(catalog.Categories, ", ")))
					return
				}
				cats = append(cats, cat)
			}
			draft.Promo.Categories = cats
		}
		session.State = StatePromoMaxUses
		b.send(session.ChatID, "Maximum number of uses (or - for unlimited):")

	case StatePromoMaxUses:
		if text != "-" {
			n, err := strconv.Atoi(text)
			if err != nil || n <= 0 {
				b.send(session.ChatID, "Send a positive integer or -:")
				return
			}
			draft.Promo.MaxUses = &n
		}
		session.State = StatePromoValidUntil
		b.send(session.ChatID, "Valid until (DD.MM.YYYY):")

	case StatePromoValidUntil:
		until, err := parseValidUntil(text)
		if err != nil {
			b.send(session.ChatID, err.Error())
			return
		}
		draft.Promo.ValidFrom = time.Now()
		draft.Promo.ValidUntil = until
		session.State = StatePromoConfirm
		b.sendPromoSummary(session)

	case StatePromoConfirm:
		b.sendPromoSummary(session)

	default:
		b.sendMainMenu(session.ChatID)
	}
}

// handlePromoType consumes the discount type button press.
func (b *Bot) handlePromoType(session *Session, value string) {
	if session.State != StatePromoType || session.Promo == nil {
		return
	}
	dt := promo.DiscountType(value)
	if dt != promo.DiscountPercentage && dt != promo.DiscountFixed {
		return
	}
	session.Promo.Promo.DiscountType = dt

	session.State = StatePromoValue
	if dt == promo.DiscountPercentage {
		b.send(session.ChatID, "Discount percentage (1-100):")
	} else {
		b.send(session.ChatID, "Discount amount:")
	}
}

func (b *Bot) sendPromoSummary(session *Session) {
	pc := session.Promo.Promo
	value := pc.DiscountValue.StringFixed(0)
	if pc.DiscountType == promo.DiscountPercentage {
		value += "%"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Review:\n\nCode: %s\nName: %s\nDiscount: %s\n", pc.Code, pc.Name, value)
	if pc.MinOrderAmount.IsPositive() {
		fmt.Fprintf(&sb, "Min order: %s\n", pc.MinOrderAmount.StringFixed(2))
	}
	if pc.MinItemsCount > 0 {
		fmt.Fprintf(&sb, "Min items: %d\n", pc.MinItemsCount)
	}
	if len(pc.Categories) > 0 {
		fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(pc.Categories, ", "))
	} else {
		sb.WriteString("Categories: all\n")
	}
	if pc.MaxUses != nil {
		fmt.Fprintf(&sb, "Max uses: %d\n", *pc.MaxUses)
	}
	fmt.Fprintf(&sb, "Valid until: %s\n\nSave this promo code?", pc.ValidUntil.Format("02.01.2006"))

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Save", cbConfirm+"promo:yes"),
		tgbotapi.NewInlineKeyboardButtonData("Discard", cbConfirm+"promo:no"),
	))
	b.sendWithKeyboard(session.ChatID, sb.String(), kb)
}

func (b *Bot) savePromo(session *Session) {
	draft := session.Promo
	if draft == nil || session.State != StatePromoConfirm {
		return
	}

	if err := b.store.InsertPromoCode(&draft.Promo); err != nil {
		b.logger.Error("failed to insert promo code", logging.Error(err))
		b.send(session.ChatID, fmt.Sprintf("Failed to save promo code: %v", err))
		return
	}

	b.sessions.Reset(session.ChatID)
	b.send(session.ChatID, fmt.Sprintf("Promo code %s saved.", draft.Promo.Code))
	b.sendMainMenu(session.ChatID)
}

// parseValidUntil parses DD.MM.YYYY and requires a future date. The promo
// expires at the end of that day.
func parseValidUntil(text string) (time.Time, error) {
	t, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(text), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("use the DD.MM.YYYY format, e.g. 31.12.2026")
	}
	until := t.AddDate(0, 0, 1)
	if !until.After(time.Now()) {
		return time.Time{}, fmt.Errorf("the date must be in the future")
	}
	return until, nil
}
