package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// ChargeSetting keeps a business's default market charge rates. One row per
// business; individual settlements may override any rate via ChargeConfig.
type ChargeSetting struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"uniqueIndex;not null" json:"business_id"`
	HammaliFarmerPerBag decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"hammali_farmer_per_bag"`
	HammaliBuyerPerBag  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"hammali_buyer_per_bag"`
	GradingFarmerPerBag decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"grading_farmer_per_bag"`
	GradingBuyerPerBag  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"grading_buyer_per_bag"`
	AadhatFarmerPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"aadhat_farmer_percent"`
	AadhatBuyerPercent  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"aadhat_buyer_percent"`
	MandiFarmerPercent  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mandi_farmer_percent"`
	MandiBuyerPercent   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mandi_buyer_percent"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ChargeConfig is the resolved set of rates one settlement is computed
// with. It is a plain value object so the calculator stays free of any
// storage concern.
type ChargeConfig struct {
	HammaliFarmerPerBag decimal.Decimal `json:"hammali_farmer_per_bag"`
	HammaliBuyerPerBag  decimal.Decimal `json:"hammali_buyer_per_bag"`
	GradingFarmerPerBag decimal.Decimal `json:"grading_farmer_per_bag"`
	GradingBuyerPerBag  decimal.Decimal `json:"grading_buyer_per_bag"`
	AadhatFarmerPercent decimal.Decimal `json:"aadhat_farmer_percent"`
	AadhatBuyerPercent  decimal.Decimal `json:"aadhat_buyer_percent"`
	MandiFarmerPercent  decimal.Decimal `json:"mandi_farmer_percent"`
	MandiBuyerPercent   decimal.Decimal `json:"mandi_buyer_percent"`
}

func (s ChargeSetting) Config() ChargeConfig {
	return ChargeConfig{
		HammaliFarmerPerBag: s.HammaliFarmerPerBag,
		HammaliBuyerPerBag:  s.HammaliBuyerPerBag,
		GradingFarmerPerBag: s.GradingFarmerPerBag,
		GradingBuyerPerBag:  s.GradingBuyerPerBag,
		AadhatFarmerPercent: s.AadhatFarmerPercent,
		AadhatBuyerPercent:  s.AadhatBuyerPercent,
		MandiFarmerPercent:  s.MandiFarmerPercent,
		MandiBuyerPercent:   s.MandiBuyerPercent,
	}
}

// ChargeConfigWithOverrides applies per-settlement rate overrides onto the
// business defaults. Unknown keys are rejected so free-form payloads cannot
// smuggle in unrecognized charges.
func ChargeConfigWithOverrides(base ChargeConfig, overrides map[string]decimal.Decimal) (ChargeConfig, error) {
	cfg := base
	for key, value := range overrides {
		if value.IsNegative() {
			return ChargeConfig{}, utils.NewValidationError("charge rate %s cannot be negative", key)
		}
		switch key {
		case "hammaliFarmerPerBag":
			cfg.HammaliFarmerPerBag = value
		case "hammaliBuyerPerBag":
			cfg.HammaliBuyerPerBag = value
		case "gradingFarmerPerBag":
			cfg.GradingFarmerPerBag = value
		case "gradingBuyerPerBag":
			cfg.GradingBuyerPerBag = value
		case "aadhatFarmerPercent":
			cfg.AadhatFarmerPercent = value
		case "aadhatBuyerPercent":
			cfg.AadhatBuyerPercent = value
		case "mandiFarmerPercent":
			cfg.MandiFarmerPercent = value
		case "mandiBuyerPercent":
			cfg.MandiBuyerPercent = value
		default:
			return ChargeConfig{}, utils.NewValidationError("unknown charge rate key: %s", key)
		}
	}
	return cfg, nil
}

type ChargeSettingPatch struct {
	HammaliFarmerPerBag *decimal.Decimal `json:"hammali_farmer_per_bag"`
	HammaliBuyerPerBag  *decimal.Decimal `json:"hammali_buyer_per_bag"`
	GradingFarmerPerBag *decimal.Decimal `json:"grading_farmer_per_bag"`
	GradingBuyerPerBag  *decimal.Decimal `json:"grading_buyer_per_bag"`
	AadhatFarmerPercent *decimal.Decimal `json:"aadhat_farmer_percent"`
	AadhatBuyerPercent  *decimal.Decimal `json:"aadhat_buyer_percent"`
	MandiFarmerPercent  *decimal.Decimal `json:"mandi_farmer_percent"`
	MandiBuyerPercent   *decimal.Decimal `json:"mandi_buyer_percent"`
}

func GetChargeSetting(ctx context.Context) (*ChargeSetting, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	db := config.GetDB()
	var setting ChargeSetting
	if err := db.WithContext(ctx).Where("business_id = ?", businessId).First(&setting).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &setting, nil
}

func UpdateChargeSetting(ctx context.Context, input *ChargeSettingPatch) (*ChargeSetting, error) {
	setting, err := GetChargeSetting(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	apply := func(column string, v *decimal.Decimal) error {
		if v == nil {
			return nil
		}
		if v.IsNegative() {
			return utils.NewValidationError("%s cannot be negative", column)
		}
		updates[column] = *v
		return nil
	}
	fields := []struct {
		column string
		value  *decimal.Decimal
	}{
		{"hammali_farmer_per_bag", input.HammaliFarmerPerBag},
		{"hammali_buyer_per_bag", input.HammaliBuyerPerBag},
		{"grading_farmer_per_bag", input.GradingFarmerPerBag},
		{"grading_buyer_per_bag", input.GradingBuyerPerBag},
		{"aadhat_farmer_percent", input.AadhatFarmerPercent},
		{"aadhat_buyer_percent", input.AadhatBuyerPercent},
		{"mandi_farmer_percent", input.MandiFarmerPercent},
		{"mandi_buyer_percent", input.MandiBuyerPercent},
	}
	for _, f := range fields {
		if err := apply(f.column, f.value); err != nil {
			return nil, err
		}
	}
	if len(updates) == 0 {
		return setting, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(setting).Updates(updates).Error; err != nil {
		return nil, err
	}
	return setting, nil
}
