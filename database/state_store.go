package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/services"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storedCoupon pairs an applied coupon with the basket revision it was
// validated against.
type storedCoupon struct {
	Coupon   *models.CouponApplication `json:"coupon"`
	Revision uint64                    `json:"revision"`
}

// GormStateStore persists storefront sessions in the stored_states table.
type GormStateStore struct {
	db *gorm.DB
}

func NewGormStateStore(db *gorm.DB) *GormStateStore {
	return &GormStateStore{db: db}
}

func (s *GormStateStore) Load(ctx context.Context, sessionKey string) (*services.SessionState, error) {
	var row models.StoredState
	err := s.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query stored state")
	}
	return decodeState(&row)
}

func decodeState(row *models.StoredState) (*services.SessionState, error) {
	state := &services.SessionState{
		Revision:         row.Revision,
		PaymentMethod:    models.PaymentMethod(row.PaymentMethod),
		OrderMethod:      models.OrderMethod(row.OrderMethod),
		PendingSessionID: row.PendingSessionID,
	}

	if isSet(row.Basket) {
		if err := json.Unmarshal(row.Basket, &state.Items); err != nil {
			return nil, &services.IntegrityError{Key: "basket", Err: err}
		}
		for i, it := range state.Items {
			if it.Quantity < 1 {
				return nil, &services.IntegrityError{Key: "basket", Err: fmt.Errorf("line %d has quantity %d", i, it.Quantity)}
			}
		}
	}

	if isSet(row.Coupon) {
		var c storedCoupon
		if err := json.Unmarshal(row.Coupon, &c); err != nil {
			return nil, &services.IntegrityError{Key: "coupon", Err: err}
		}
		state.Coupon = c.Coupon
		state.CouponRevision = c.Revision
	}

	if isSet(row.CheckoutData) {
		var form models.CheckoutForm
		if err := json.Unmarshal(row.CheckoutData, &form); err != nil {
			return nil, &services.IntegrityError{Key: "checkout_data", Err: err}
		}
		state.Checkout = &form
	}
	return state, nil
}

func isSet(raw datatypes.JSON) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func (s *GormStateStore) Save(ctx context.Context, sessionKey string, state *services.SessionState) error {
	items := state.Items
	if items == nil {
		items = []models.LineItem{}
	}
	basket, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encode basket")
	}

	row := models.StoredState{
		SessionKey:       sessionKey,
		Basket:           datatypes.JSON(basket),
		Revision:         state.Revision,
		PaymentMethod:    string(state.PaymentMethod),
		OrderMethod:      string(state.OrderMethod),
		PendingSessionID: state.PendingSessionID,
	}
	if state.Coupon != nil {
		raw, err := json.Marshal(storedCoupon{Coupon: state.Coupon, Revision: state.CouponRevision})
		if err != nil {
			return errors.Wrap(err, "encode coupon")
		}
		row.Coupon = datatypes.JSON(raw)
	}
	if state.Checkout != nil {
		raw, err := json.Marshal(state.Checkout)
		if err != nil {
			return errors.Wrap(err, "encode checkout form")
		}
		row.CheckoutData = datatypes.JSON(raw)
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"basket", "revision", "coupon", "checkout_data",
			"payment_method", "order_method", "pending_session_id", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "save stored state")
	}
	return nil
}

func (s *GormStateStore) Clear(ctx context.Context, sessionKey string) error {
	err := s.db.WithContext(ctx).Where("session_key = ?", sessionKey).Delete(&models.StoredState{}).Error
	if err != nil {
		return errors.Wrap(err, "clear stored state")
	}
	return nil
}

// PendingSessions lists sessions waiting on a card payment, keyed by session.
func (s *GormStateStore) PendingSessions(ctx context.Context) (map[string]string, error) {
	var rows []models.StoredState
	err := s.db.WithContext(ctx).
		Select("session_key", "pending_session_id").
		Where("pending_session_id <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query pending sessions")
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.SessionKey] = r.PendingSessionID
	}
	return out, nil
}
