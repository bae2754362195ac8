package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/logging"
)

func (b *Bot) startAddProduct(session *Session) {
	session.State = StateProductName
	session.Product = &productDraft{}
	session.Product.Product.InStock = true
	session.Product.Product.IsNew = true
	b.send(session.ChatID, "New product. Send the product name:")
}

// handleProductStep advances the add-product wizard on a text answer.
func (b *Bot) handleProductStep(session *Session, text string) {
	draft := session.Product
	if draft == nil {
		b.sessions.Reset(session.ChatID)
		b.sendMainMenu(session.ChatID)
		return
	}
	text = strings.TrimSpace(text)

	switch session.State {
	case StateProductName:
		if text == "" {
			b.send(session.ChatID, "Name cannot be empty. Send the product name:")
			return
		}
		draft.Product.Name = text
		session.State = StateProductPrice
		b.send(session.ChatID, "Send the price:")

	case StateProductPrice:
		price, err := parsePrice(text)
		if err != nil {
			b.send(session.ChatID, "Price must be a positive number. Try again:")
			return
		}
		draft.Product.RealPrice = price
		session.State = StateProductFakePrice
		b.send(session.ChatID, "Send the original (crossed-out) price:")

	case StateProductFakePrice:
		price, err := parsePrice(text)
		if err != nil {
			b.send(session.ChatID, "Price must be a positive number. Try again:")
			return
		}
		if !price.GreaterThan(draft.Product.RealPrice) {
			b.send(session.ChatID, "The crossed-out price must be higher than the real price. Try again:")
			return
		}
		draft.Product.FakeOriginalPrice = price
		session.State = StateProductCategory
		b.sendWithKeyboard(session.ChatID, "Pick a category:", categoryKeyboard())

	case StateProductBrand:
		if text != "-" {
			draft.Product.Brand = text
		}
		session.State = StateProductColor
		b.send(session.ChatID, "Send the color (or - to skip):")

	case StateProductColor:
		if text != "-" {
			draft.Product.Color = text
		}
		session.State = StateProductDescription
		b.send(session.ChatID, "Send the description:")

	case StateProductDescription:
		draft.Product.Description = text
		session.State = StateProductSizes
		chart := catalog.SizesByCategory[draft.Product.Category]
		b.send(session.ChatID, fmt.Sprintf(
			"Send the sizes as a comma list, or 'all' for the full chart:\n%s",
			strings.Join(chart, ", ")))

	case StateProductSizes:
		sizes, err := parseSizes(text, draft.Product.Category)
		if err != nil {
			b.send(session.ChatID, err.Error())
			return
		}
		draft.Product.Sizes = sizes
		draft.Product.StockQuantity = make(map[string]int)
		draft.PendingStock = append([]string(nil), sizes...)
		session.State = StateProductStock
		b.send(session.ChatID, fmt.Sprintf("Stock for size %s:", draft.PendingStock[0]))

	case StateProductStock:
		qty, err := strconv.Atoi(text)
		if err != nil || qty < 0 {
			b.send(session.ChatID, "Stock must be a non-negative integer. Try again:")
			return
		}
		size := draft.PendingStock[0]
		draft.Product.StockQuantity[size] = qty
		draft.PendingStock = draft.PendingStock[1:]
		if len(draft.PendingStock) > 0 {
			b.send(session.ChatID, fmt.Sprintf("Stock for size %s:", draft.PendingStock[0]))
			return
		}
		b.startMeasurements(session)

	case StateProductCategory:
		// Category comes from the buttons.
		b.sendWithKeyboard(session.ChatID, "Pick a category:", categoryKeyboard())

	case StateProductMeasurements:
		b.handleMeasurementStep(session, text)

	case StateProductConfirm:
		// Confirmation happens via buttons; any text re-shows the summary.
		b.sendProductSummary(session)

	default:
		b.sendMainMenu(session.ChatID)
	}
}

// handleProductCategory consumes the category button press.
func (b *Bot) handleProductCategory(session *Session, category string) {
	if session.State != StateProductCategory || session.Product == nil {
		return
	}
	if !catalog.ValidCategory(category) {
		b.sendWithKeyboard(session.ChatID, "Pick a category:", categoryKeyboard())
		return
	}
	session.Product.Product.Category = category
	session.State = StateProductBrand
	b.send(session.ChatID, "Send the brand (or - to skip):")
}

// startMeasurements queues the per-size measurement questions, skipping
// categories that record none.
func (b *Bot) startMeasurements(session *Session) {
	draft := session.Product
	labels := catalog.MeasurementsByCategory[draft.Product.Category]
	if len(labels) == 0 {
		b.startPhotos(session)
		return
	}

	draft.PendingMeasure = append([]string(nil), draft.Product.Sizes...)
	session.State = StateProductMeasurements
	b.askMeasurement(session)
}

func (b *Bot) askMeasurement(session *Session) {
	draft := session.Product
	labels := catalog.MeasurementsByCategory[draft.Product.Category]
	b.send(session.ChatID, fmt.Sprintf(
		"Measurements for size %s as %s separated by ';' in cm (or 'skip'):",
		draft.PendingMeasure[0], strings.Join(labels, ";")))
}

func (b *Bot) handleMeasurementStep(session *Session, text string) {
	draft := session.Product
	size := draft.PendingMeasure[0]
	labels := catalog.MeasurementsByCategory[draft.Product.Category]

	if !strings.EqualFold(text, "skip") {
		values := strings.Split(text, ";")
		if len(values) != len(labels) {
			b.send(session.ChatID, fmt.Sprintf(
				"Expected %d values separated by ';'. Try again or send 'skip':", len(labels)))
			return
		}
		m := catalog.Measurement{Size: size}
		for i, raw := range values {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				b.send(session.ChatID, "Measurements must be numbers. Try again or send 'skip':")
				return
			}
			switch labels[i] {
			case "A":
				m.MeasurementA = &v
			case "B":
				m.MeasurementB = &v
			case "C":
				m.MeasurementC = &v
			case "D":
				m.MeasurementD = &v
			}
		}
		draft.Measurements = append(draft.Measurements, m)
	}

	draft.PendingMeasure = draft.PendingMeasure[1:]
	if len(draft.PendingMeasure) > 0 {
		b.askMeasurement(session)
		return
	}
	b.startPhotos(session)
}

func (b *Bot) startPhotos(session *Session) {
	if b.uploader == nil {
		session.State = StateProductConfirm
		b.sendProductSummary(session)
		return
	}
	session.State = StateProductPhoto
	b.send(session.ChatID, "Send product photos one by one, then 'done':")
}

// handleProductPhoto uploads each incoming photo and advances on 'done'.
func (b *Bot) handleProductPhoto(session *Session, msg *tgbotapi.Message) {
	draft := session.Product
	if draft == nil {
		b.sessions.Reset(session.ChatID)
		return
	}

	if strings.EqualFold(strings.TrimSpace(msg.Text), "done") {
		if draft.Product.ImageURL == "" {
			b.send(session.ChatID, "At least one photo is required. Send a photo:")
			return
		}
		session.State = StateProductConfirm
		b.sendProductSummary(session)
		return
	}

	data, err := b.downloadPhoto(msg)
	if err != nil {
		b.send(session.ChatID, "Could not read that photo. Send a photo or 'done':")
		return
	}

	url, err := b.uploader.Upload(data)
	if err != nil {
		b.logger.Warn("photo upload failed", logging.Error(err))
		b.send(session.ChatID, fmt.Sprintf("Upload failed: %v. Try another photo:", err))
		return
	}

	if draft.Product.ImageURL == "" {
		draft.Product.ImageURL = url
	}
	draft.Product.Images = append(draft.Product.Images, url)
	b.send(session.ChatID, fmt.Sprintf("Photo %d saved. Send another or 'done'.", len(draft.Product.Images)))
}

func (b *Bot) sendProductSummary(session *Session) {
	p := session.Product.Product
	var sb strings.Builder
	fmt.Fprintf(&sb, "Review:\n\nName: %s\nPrice: %s (was %s)\nCategory: %s\n",
		p.Name, p.RealPrice.StringFixed(2), p.FakeOriginalPrice.StringFixed(2), p.Category)
	if p.Brand != "" {
		fmt.Fprintf(&sb, "Brand: %s\n", p.Brand)
	}
	if p.Color != "" {
		fmt.Fprintf(&sb, "Color: %s\n", p.Color)
	}
	fmt.Fprintf(&sb, "Sizes: %s\n", strings.Join(p.Sizes, ", "))
	fmt.Fprintf(&sb, "Photos: %d\n\nSave this product?", len(p.Images))

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Save", cbConfirm+"product:yes"),
		tgbotapi.NewInlineKeyboardButtonData("Discard", cbConfirm+"product:no"),
	))
	b.sendWithKeyboard(session.ChatID, sb.String(), kb)
}

// handleConfirm finishes either wizard from its confirmation buttons.
func (b *Bot) handleConfirm(session *Session, data string) {
	switch data {
	case "product:yes":
		b.saveProduct(session)
	case "promo:yes":
		b.savePromo(session)
	case "product:no", "promo:no":
		b.sessions.Reset(session.ChatID)
		b.send(session.ChatID, "Discarded.")
		b.sendMainMenu(session.ChatID)
	}
}

func (b *Bot) saveProduct(session *Session) {
	draft := session.Product
	if draft == nil || session.State != StateProductConfirm {
		return
	}

	if err := b.store.InsertProduct(&draft.Product); err != nil {
		b.logger.Error("failed to insert product", logging.Error(err))
		b.send(session.ChatID, fmt.Sprintf("Failed to save product: %v", err))
		return
	}

	if len(draft.Measurements) > 0 {
		for i := range draft.Measurements {
			draft.Measurements[i].ProductID = draft.Product.ID
		}
		if err := b.store.InsertMeasurements(draft.Measurements); err != nil {
			b.logger.Error("failed to insert measurements", logging.Error(err))
			b.send(session.ChatID, "Product saved, but measurements failed to save.")
		}
	}

	b.sessions.Reset(session.ChatID)
	b.send(session.ChatID, fmt.Sprintf("Product saved: %s", draft.Product.ID))
	b.sendMainMenu(session.ChatID)
}

// handleProductSearch resolves a search term for the edit and visibility
// flows.
func (b *Bot) handleProductSearch(session *Session, term string) {
	products, err := b.store.SearchProducts(strings.TrimSpace(term), 5)
	if err != nil {
		b.logger.Error("product search failed", logging.Error(err))
		b.send(session.ChatID, "Search failed, try again:")
		return
	}
	if len(products) == 0 {
		b.send(session.ChatID, "Nothing found. Send another id or name:")
		return
	}

	if session.State == StateToggleSearch {
		for _, p := range products {
			label := "Hide"
			if !p.InStock {
				label = "Show"
			}
			kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, cbToggle+p.ID),
			))
			b.sendWithKeyboard(session.ChatID,
				fmt.Sprintf("%s (%s) - %s", p.Name, p.Category, visibility(p.InStock)), kb)
		}
		return
	}

	if len(products) > 1 {
		var sb strings.Builder
		sb.WriteString("Several matches, send the exact id:\n\n")
		for _, p := range products {
			fmt.Fprintf(&sb, "%s\n  id: %s\n", p.Name, p.ID)
		}
		b.send(session.ChatID, sb.String())
		return
	}

	session.Edit = &editDraft{Product: products[0]}
	session.State = StateEditField
	b.sendWithKeyboard(session.ChatID,
		fmt.Sprintf("Editing %s. Pick a field:", products[0].Name), editFieldKeyboard())
}

func visibility(inStock bool) string {
	if inStock {
		return "visible"
	}
	return "hidden"
}

// editableFields maps the button value to the products column it patches.
var editableFields = map[string]string{
	"name":        "name",
	"price":       "real_price",
	"old price":   "fake_original_price",
	"description": "description",
	"brand":       "brand",
	"color":       "color",
	"category":    "category",
	"sizes":       "sizes",
	"stock":       "stock_quantity",
	"features":    "features",
	"images":      "images",
	"new flag":    "is_new",
}

func editFieldKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Name", cbEditFld+"name"),
			tgbotapi.NewInlineKeyboardButtonData("Price", cbEditFld+"price"),
			tgbotapi.NewInlineKeyboardButtonData("Old price", cbEditFld+"old price"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Description", cbEditFld+"description"),
			tgbotapi.NewInlineKeyboardButtonData("Brand", cbEditFld+"brand"),
			tgbotapi.NewInlineKeyboardButtonData("Color", cbEditFld+"color"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Category", cbEditFld+"category"),
			tgbotapi.NewInlineKeyboardButtonData("Sizes", cbEditFld+"sizes"),
			tgbotapi.NewInlineKeyboardButtonData("Stock", cbEditFld+"stock"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Features", cbEditFld+"features"),
			tgbotapi.NewInlineKeyboardButtonData("Images", cbEditFld+"images"),
			tgbotapi.NewInlineKeyboardButtonData("New flag", cbEditFld+"new flag"),
		),
	)
}

func (b *Bot) handleEditField(session *Session, field string) {
	if session.State != StateEditField || session.Edit == nil {
		return
	}
	if _, ok := editableFields[field]; !ok {
		return
	}
	session.Edit.Field = field
	session.State = StateEditValue
	b.send(session.ChatID, editPrompt(field, session.Edit.Product))
}

// editPrompt spells out the expected input format per field.
func editPrompt(field string, p catalog.Product) string {
	switch editableFields[field] {
	case "category":
		return fmt.Sprintf("Send the new category (%s):", strings.Join(catalog.Categories, ", "))
	case "sizes":
		chart := catalog.SizesByCategory[p.Category]
		return fmt.Sprintf("Send the sizes, comma separated, or 'all' (%s):", strings.Join(chart, ", "))
	case "stock_quantity":
		return "Send the stock as SIZE:QTY pairs, comma separated (e.g. M:3, L:0):"
	case "features":
		return "Send the features, comma separated:"
	case "images":
		return "Send the image URLs, comma separated. The first becomes the cover:"
	case "is_new":
		return "Mark as a new arrival? (yes/no):"
	default:
		return fmt.Sprintf("Send the new %s:", field)
	}
}

func (b *Bot) handleEditValue(session *Session, text string) {
	draft := session.Edit
	if draft == nil || draft.Field == "" {
		b.sessions.Reset(session.ChatID)
		b.sendMainMenu(session.ChatID)
		return
	}

	column := editableFields[draft.Field]
	fields := make(map[string]interface{})

	switch column {
	case "real_price", "fake_original_price":
		price, err := parsePrice(text)
		if err != nil {
			b.send(session.ChatID, "Price must be a positive number. Try again:")
			return
		}
		fields[column] = price
	case "category":
		cat := strings.ToLower(strings.TrimSpace(text))
		if !catalog.ValidCategory(cat) {
			b.send(session.ChatID, fmt.Sprintf(
				"'%s' is not a category. Use: %s", cat, strings.Join(catalog.Categories, ", ")))
			return
		}
		fields[column] = cat
	case "sizes":
		sizes, err := parseSizes(text, draft.Product.Category)
		if err != nil {
			b.send(session.ChatID, err.Error())
			return
		}
		fields[column] = sizes
	case "stock_quantity":
		stock, err := parseStock(text, draft.Product.Category)
		if err != nil {
			b.send(session.ChatID, err.Error())
			return
		}
		fields[column] = stock
	case "features":
		features := splitList(text)
		if len(features) == 0 {
			b.send(session.ChatID, "Send the features, comma separated:")
			return
		}
		fields[column] = features
	case "images":
		urls := splitList(text)
		if len(urls) == 0 {
			b.send(session.ChatID, "Send one or more image URLs, comma separated:")
			return
		}
		fields["images"] = urls
		fields["image_url"] = urls[0]
	case "is_new":
		isNew, err := parseYesNo(text)
		if err != nil {
			b.send(session.ChatID, "Answer yes or no:")
			return
		}
		fields[column] = isNew
	default:
		fields[column] = strings.TrimSpace(text)
	}

	err := b.store.UpdateProductFields(draft.Product.ID, fields)
	if err != nil {
		b.logger.Error("failed to update product", logging.Error(err))
		b.send(session.ChatID, fmt.Sprintf("Update failed: %v", err))
		return
	}

	b.sessions.Reset(session.ChatID)
	b.send(session.ChatID, fmt.Sprintf("Updated %s of %s.", draft.Field, draft.Product.Name))
	b.sendMainMenu(session.ChatID)
}

// handleToggleVisibility flips a product's in_stock flag from its button.
func (b *Bot) handleToggleVisibility(session *Session, productID string) {
	p, err := b.store.ProductByID(productID)
	if err != nil {
		b.send(session.ChatID, "Product not found.")
		return
	}

	if err := b.store.SetProductVisibility(p.ID, !p.InStock); err != nil {
		b.logger.Error("failed to toggle visibility", logging.Error(err))
		b.send(session.ChatID, "Failed to update the product.")
		return
	}

	b.sessions.Reset(session.ChatID)
	b.send(session.ChatID, fmt.Sprintf("%s is now %s.", p.Name, visibility(!p.InStock)))
}

func categoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, cat := range catalog.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(cat, cbCategory+cat))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be positive")
	}
	return price, nil
}

// parseStock reads SIZE:QTY pairs against the category's size chart. A
// quantity of zero is allowed so a size can be marked sold out.
func parseStock(text, category string) (map[string]int, error) {
	chart := catalog.SizesByCategory[category]
	stock := make(map[string]int)
	for _, raw := range strings.Split(text, ",") {
		pair := strings.SplitN(raw, ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("use SIZE:QTY pairs, e.g. M:3, L:0")
		}
		size := strings.TrimSpace(pair[0])
		qty, err := strconv.Atoi(strings.TrimSpace(pair[1]))
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("quantity for '%s' must be a non-negative integer", size)
		}
		matched := ""
		for _, s := range chart {
			if strings.EqualFold(s, size) {
				matched = s
				break
			}
		}
		if matched == "" {
			return nil, fmt.Errorf("size '%s' is not in the %s chart: %s",
				size, category, strings.Join(chart, ", "))
		}
		stock[matched] = qty
	}
	if len(stock) == 0 {
		return nil, fmt.Errorf("use SIZE:QTY pairs, e.g. M:3, L:0")
	}
	return stock, nil
}

// splitList splits a comma separated answer, dropping empty entries.
func splitList(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, ",") {
		if v := strings.TrimSpace(raw); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseYesNo(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("answer yes or no")
}

// parseSizes validates a comma list against the category's size chart.
// "all" selects the whole chart.
func parseSizes(text, category string) ([]string, error) {
	chart := catalog.SizesByCategory[category]
	if strings.EqualFold(strings.TrimSpace(text), "all") {
		return append([]string(nil), chart...), nil
	}

	var sizes []string
	for _, raw := range strings.Split(text, ",") {
		size := strings.TrimSpace(raw)
		if size == "" {
			continue
		}
		found := false
		for _, s := range chart {
			if strings.EqualFold(s, size) {
				sizes = append(sizes, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("size '%s' is not in the %s chart: %s",
				size, category, strings.Join(chart, ", "))
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("send at least one size from: %s", strings.Join(chart, ", "))
	}
	return sizes, nil
}
