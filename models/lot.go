package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// Lot is one farmer's consignment of a crop, tracked bag by bag. Bags are
// consumed by bids, come back on bid deletion or transaction reversal, and
// the whole lot can be closed by returning it to the farmer. Lots are never
// hard-deleted.
type Lot struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	BusinessId         string          `gorm:"index;not null" json:"business_id"`
	LotCode            string          `gorm:"index;size:50;not null" json:"lot_code"`
	SequenceNo         int64           `gorm:"not null" json:"sequence_no"`
	FarmerId           int             `gorm:"index;not null" json:"farmer_id"`
	CropName           string          `gorm:"index;size:50;not null" json:"crop_name"`
	NumberOfBags       int             `gorm:"not null" json:"number_of_bags"`
	ActualNumberOfBags *int            `json:"actual_number_of_bags"`
	RemainingBags      int             `gorm:"not null" json:"remaining_bags"`
	BagSizeKg          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bag_size_kg"`
	VehicleBhadaRate   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vehicle_bhada_rate"`
	IsReturned         *bool           `gorm:"not null;default:false" json:"is_returned"`
	EntryDate          time.Time       `gorm:"index;not null" json:"entry_date"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLot struct {
	FarmerId         int             `json:"farmer_id" binding:"required"`
	CropName         string          `json:"crop_name" binding:"required"`
	NumberOfBags     int             `json:"number_of_bags" binding:"required"`
	BagSizeKg        decimal.Decimal `json:"bag_size_kg"`
	VehicleBhadaRate decimal.Decimal `json:"vehicle_bhada_rate"`
	EntryDate        time.Time       `json:"entry_date"`
}

type LotPatch struct {
	NumberOfBags       *int             `json:"number_of_bags"`
	ActualNumberOfBags *int             `json:"actual_number_of_bags"`
	VehicleBhadaRate   *decimal.Decimal `json:"vehicle_bhada_rate"`
	BagSizeKg          *decimal.Decimal `json:"bag_size_kg"`
}

func (l Lot) GetId() int {
	return l.ID
}

// BagCeiling is the number of bags actually present: the graded correction
// when recorded, the original count otherwise.
func (l Lot) BagCeiling() int {
	if l.ActualNumberOfBags != nil {
		return *l.ActualNumberOfBags
	}
	return l.NumberOfBags
}

// SoldBags is how many bags have been allocated to bids/transactions.
func (l Lot) SoldBags() int {
	return l.BagCeiling() - l.RemainingBags
}

// resolveLotPatch computes the corrected counts for a lot edit.
// The new ceiling may not fall below the bags already sold, otherwise the
// remaining count would go negative and sold stock would be under-counted.
func resolveLotPatch(lot Lot, newNumber int, newActual *int) (number int, actual *int, remaining int, err error) {
	number = lot.NumberOfBags
	actual = lot.ActualNumberOfBags
	if newNumber > 0 {
		number = newNumber
	} else if newNumber < 0 {
		return 0, nil, 0, utils.NewValidationError("number of bags must be positive")
	}
	if newActual != nil {
		if *newActual <= 0 {
			return 0, nil, 0, utils.NewValidationError("actual number of bags must be positive")
		}
		if *newActual > number {
			return 0, nil, 0, utils.NewValidationError("actual number of bags cannot exceed number of bags")
		}
		actual = newActual
	}

	sold := lot.SoldBags()
	ceiling := number
	if actual != nil {
		ceiling = *actual
	}
	if ceiling < sold {
		return 0, nil, 0, utils.NewValidationError("cannot reduce lot to %d bags, %d already sold", ceiling, sold)
	}
	return number, actual, ceiling - sold, nil
}

// resolveLotReturn computes the terminal counts for returning a lot to its
// farmer. A lot with sold bags is clamped down to the sold count so reports
// keep showing what actually moved; the unsold portion leaves the ledger.
func resolveLotReturn(lot Lot) (number int, actual *int, remaining int, soldBags int) {
	sold := lot.SoldBags()
	if sold > 0 {
		clamped := sold
		return clamped, &clamped, 0, sold
	}
	return lot.NumberOfBags, lot.ActualNumberOfBags, lot.RemainingBags, 0
}

// lotCodePrefix derives the human-readable crop prefix, e.g. "WHE" for wheat.
func lotCodePrefix(cropName string) string {
	crop := strings.ToUpper(strings.TrimSpace(cropName))
	crop = strings.ReplaceAll(crop, " ", "")
	if len(crop) > 3 {
		crop = crop[:3]
	}
	return crop
}

func nextLotSequence(ctx context.Context, businessId string, cropName string, entryDate time.Time) (int64, error) {
	day := entryDate.Format("2006-01-02")
	key := "lot-" + strings.ToLower(lotCodePrefix(cropName)) + "-" + entryDate.Format("060102")

	seed := func(ctx context.Context) (int64, error) {
		db := config.GetDB()
		var dbSeq *int64
		err := db.WithContext(ctx).Model(&Lot{}).Select("max(sequence_no)").
			Where("business_id = ? AND crop_name = ? AND DATE(entry_date) = ?", businessId, cropName, day).
			Scan(&dbSeq).Error
		if err != nil {
			return 0, err
		}
		if dbSeq == nil {
			return 0, nil
		}
		return *dbSeq, nil
	}
	validate := func(ctx context.Context, seqNo int64) error {
		count, err := utils.ResourceCountWhere[Lot](ctx, businessId,
			"crop_name = ? AND DATE(entry_date) = ? AND sequence_no = ?", cropName, day, seqNo)
		if err != nil {
			return err
		}
		if count > 0 {
			return utils.NewValidationError("lot sequence %d taken", seqNo)
		}
		return nil
	}

	return utils.NextSequence(ctx, businessId, key, seed, validate)
}

func CreateLot(ctx context.Context, input *NewLot) (*Lot, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if input.NumberOfBags <= 0 {
		return nil, utils.NewValidationError("number of bags must be positive")
	}
	if strings.TrimSpace(input.CropName) == "" {
		return nil, utils.NewValidationError("crop name is required")
	}
	if err := utils.ValidateResourceId[Farmer](ctx, businessId, input.FarmerId); err != nil {
		return nil, utils.NewNotFoundError("farmer not found")
	}

	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}

	seqNo, err := nextLotSequence(ctx, businessId, input.CropName, entryDate)
	if err != nil {
		return nil, err
	}

	lot := Lot{
		BusinessId:       businessId,
		LotCode:          fmt.Sprintf("%s-%s-%d", lotCodePrefix(input.CropName), entryDate.Format("060102"), seqNo),
		SequenceNo:       seqNo,
		FarmerId:         input.FarmerId,
		CropName:         input.CropName,
		NumberOfBags:     input.NumberOfBags,
		RemainingBags:    input.NumberOfBags,
		BagSizeKg:        input.BagSizeKg,
		VehicleBhadaRate: input.VehicleBhadaRate,
		IsReturned:       utils.NewFalse(),
		EntryDate:        entryDate,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func UpdateLot(ctx context.Context, id int, input *LotPatch) (*Lot, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	lot, err := utils.FetchModel[Lot](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if lot.IsReturned != nil && *lot.IsReturned {
		return nil, utils.NewInvalidStateError("lot %s is already returned", lot.LotCode)
	}

	updates := map[string]interface{}{}
	if input.NumberOfBags != nil || input.ActualNumberOfBags != nil {
		newNumber := 0
		if input.NumberOfBags != nil {
			newNumber = *input.NumberOfBags
		}
		number, actual, remaining, err := resolveLotPatch(*lot, newNumber, input.ActualNumberOfBags)
		if err != nil {
			return nil, err
		}
		updates["NumberOfBags"] = number
		updates["ActualNumberOfBags"] = actual
		updates["RemainingBags"] = remaining
	}
	if input.VehicleBhadaRate != nil {
		if input.VehicleBhadaRate.IsNegative() {
			return nil, utils.NewValidationError("vehicle bhada rate cannot be negative")
		}
		updates["VehicleBhadaRate"] = *input.VehicleBhadaRate
	}
	if input.BagSizeKg != nil {
		updates["BagSizeKg"] = *input.BagSizeKg
	}
	if len(updates) == 0 {
		return lot, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(lot).Updates(updates).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[Lot](ctx, businessId, id)
}

// ReturnLotToFarmer closes a lot and hands the unsold bags back. Terminal:
// a returned lot only re-opens through a transaction reversal. Returns the
// number of bags that had been sold before the return.
func ReturnLotToFarmer(ctx context.Context, id int) (int, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return 0, utils.NewValidationError("business id is required")
	}

	lot, err := utils.FetchModel[Lot](ctx, businessId, id)
	if err != nil {
		return 0, err
	}
	if lot.IsReturned != nil && *lot.IsReturned {
		return 0, utils.NewInvalidStateError("lot %s is already returned", lot.LotCode)
	}

	number, actual, remaining, soldBags := resolveLotReturn(*lot)

	db := config.GetDB()
	// is_returned = false in the WHERE guards against concurrent returns.
	result := db.WithContext(ctx).Model(&Lot{}).
		Where("id = ? AND business_id = ? AND is_returned = false", id, businessId).
		Updates(map[string]interface{}{
			"NumberOfBags":       number,
			"ActualNumberOfBags": actual,
			"RemainingBags":      remaining,
			"IsReturned":         true,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, utils.NewInvalidStateError("lot %s is already returned", lot.LotCode)
	}
	return soldBags, nil
}

func GetLot(ctx context.Context, id int) (*Lot, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[Lot](ctx, businessId, id)
}

func ListLots(ctx context.Context, crop *string, date *time.Time, search *string) ([]*Lot, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if crop != nil && *crop != "" {
		dbCtx = dbCtx.Where("crop_name = ?", *crop)
	}
	if date != nil {
		dbCtx = dbCtx.Where("DATE(entry_date) = ?", date.Format("2006-01-02"))
	}
	if search != nil && *search != "" {
		like := "%" + *search + "%"
		dbCtx = dbCtx.Where(
			"lot_code LIKE ? OR farmer_id IN (?)",
			like,
			db.Model(&Farmer{}).Select("id").Where("business_id = ? AND name LIKE ?", businessId, like),
		)
	}

	var lots []*Lot
	if err := dbCtx.Order("entry_date DESC, sequence_no DESC").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// LotActivity is the unified bidding/settlement view of one lot: bids still
// waiting for settlement grouped with the transactions already cut. Derived
// on every read, nothing here is a stored flag.
type LotActivity struct {
	Lot          *Lot           `json:"lot"`
	PendingBids  []*Bid         `json:"pending_bids"`
	Transactions []*Transaction `json:"transactions"`
}

func GetLotActivity(ctx context.Context, id int) (*LotActivity, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	lot, err := utils.FetchModel[Lot](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// pending = no active settlement references the bid
	var pending []*Bid
	err = db.WithContext(ctx).
		Where("business_id = ? AND lot_id = ?", businessId, id).
		Where("id NOT IN (?)", db.Model(&Transaction{}).Select("bid_id").
			Where("business_id = ? AND lot_id = ? AND is_reversed = false", businessId, id)).
		Order("created_at ASC").
		Find(&pending).Error
	if err != nil {
		return nil, err
	}

	var transactions []*Transaction
	err = db.WithContext(ctx).
		Where("business_id = ? AND lot_id = ?", businessId, id).
		Order("created_at ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return &LotActivity{Lot: lot, PendingBids: pending, Transactions: transactions}, nil
}
