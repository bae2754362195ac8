package bot

import (
	"sync"
	"time"

	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/promo"
)

// State names the wizard step a chat is in. The empty state is the main
// menu.
type State string

const (
	StateIdle State = ""

	// Add-product wizard.
	StateProductName         State = "ADD_PRODUCT_NAME"
	StateProductPrice        State = "ADD_PRODUCT_PRICE"
	StateProductFakePrice    State = "ADD_PRODUCT_FAKE_PRICE"
	StateProductCategory     State = "ADD_PRODUCT_CATEGORY"
	StateProductBrand        State = "ADD_PRODUCT_BRAND"
	StateProductColor        State = "ADD_PRODUCT_COLOR"
	StateProductDescription  State = "ADD_PRODUCT_DESCRIPTION"
	StateProductSizes        State = "ADD_PRODUCT_SIZES"
	StateProductStock        State = "ADD_PRODUCT_STOCK"
	StateProductMeasurements State = "ADD_PRODUCT_MEASUREMENTS"
	StateProductPhoto        State = "ADD_PRODUCT_PHOTO"
	StateProductConfirm      State = "ADD_PRODUCT_CONFIRM"

	// Edit-product wizard.
	StateEditSearch State = "EDIT_PRODUCT_SEARCH"
	StateEditField  State = "EDIT_PRODUCT_FIELD"
	StateEditValue  State = "EDIT_PRODUCT_VALUE"

	// Add-promo wizard.
	StatePromoCode       State = "PROMO_CODE"
	StatePromoName       State = "PROMO_NAME"
	StatePromoType       State = "PROMO_TYPE"
	StatePromoValue      State = "PROMO_VALUE"
	StatePromoMinOrder   State = "PROMO_MIN_ORDER"
	StatePromoMinItems   State = "PROMO_MIN_ITEMS"
	StatePromoCategories State = "PROMO_CATEGORIES"
	StatePromoMaxUses    State = "PROMO_MAX_USES"
	StatePromoValidUntil State = "PROMO_VALID_UNTIL"
	StatePromoConfirm    State = "PROMO_CONFIRM"

	// Toggle-visibility flow.
	StateToggleSearch State = "TOGGLE_SEARCH"
)

// productDraft accumulates the add-product wizard answers.
type productDraft struct {
	Product catalog.Product
	// Sizes still waiting for a stock count; the head of the queue is
	// the size currently being asked about.
	PendingStock []string
	// Sizes still waiting for measurements, same queue discipline.
	PendingMeasure []string
	// Labels still unanswered for the size currently being measured.
	PendingLabels []string
	Measurements  []catalog.Measurement
}

// promoDraft accumulates the add-promo wizard answers.
type promoDraft struct {
	Promo promo.PromoCode
}

// editDraft tracks the edit-product wizard.
type editDraft struct {
	Product catalog.Product
	Field   string
}

// Session is one chat's wizard state. Sessions are passed to handlers
// explicitly; there is no ambient per-chat global.
type Session struct {
	ChatID    int64
	State     State
	Product   *productDraft
	Promo     *promoDraft
	Edit      *editDraft
	UpdatedAt time.Time
}

// DefaultSessionTTL is how long an untouched session survives before the
// eviction job drops it back to the main menu.
const DefaultSessionTTL = 30 * time.Minute

// SessionStore keeps one session per chat.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
	}
}

// Get returns the chat's session, creating an idle one if needed, and
// refreshes its last-touched time.
func (ss *SessionStore) Get(chatID int64) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[chatID]
	if !ok {
		s = &Session{ChatID: chatID}
		ss.sessions[chatID] = s
	}
	s.UpdatedAt = time.Now()
	return s
}

// Reset drops the chat back to the idle state with no drafts.
func (ss *SessionStore) Reset(chatID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[chatID] = &Session{ChatID: chatID, UpdatedAt: time.Now()}
}

// Evict removes sessions untouched for longer than the TTL and returns how
// many were dropped.
func (ss *SessionStore) Evict(now time.Time) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	evicted := 0
	for chatID, s := range ss.sessions {
		if now.Sub(s.UpdatedAt) > ss.ttl {
			delete(ss.sessions, chatID)
			evicted++
		}
	}
	return evicted
}

// Len reports the live session count.
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}
