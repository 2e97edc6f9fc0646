package utils

import (
	"context"
	"reflect"

	"github.com/mmdatafocus/mandi_backend/config"
	"gorm.io/gorm"
)

// check if id exists, using ctx's business_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, businessId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, businessId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, businessId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, businessId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, businessId, column+" = ? AND id != ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("%v already exists", value)
	}
	return nil
}

func ResourceCountWhere[T any](ctx context.Context, businessId string, cond string, values ...interface{}) (int64, error) {
	return ResourceCountWhereTx[T](config.GetDB(), ctx, businessId, cond, values...)
}

// ResourceCountWhereTx is ResourceCountWhere inside the caller's transaction.
func ResourceCountWhereTx[T any](tx *gorm.DB, ctx context.Context, businessId string, cond string, values ...interface{}) (int64, error) {
	var model T
	var count int64
	err := tx.WithContext(ctx).Model(&model).
		Where("business_id = ?", businessId).
		Where(cond, values...).
		Count(&count).Error
	return count, err
}
