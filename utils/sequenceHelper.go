package utils

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/mmdatafocus/mandi_backend/config"
)

var seqMutex sync.Mutex

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

// NextSequence hands out the next serial for one (business, key) scope.
//
// The counter lives in redis and is seeded lazily from the database via
// seed(). A redis INCR that lands on 1 means either a fresh counter or a
// flushed one, so the seed is consulted and the counter fast-forwarded.
// validate (optional) re-checks the candidate against the table and skips
// collisions, which covers counters that fell behind the database.
func NextSequence(ctx context.Context, businessId string, key string,
	seed func(context.Context) (int64, error),
	validate func(context.Context, int64) error) (int64, error) {

	seqMutex.Lock()
	defer seqMutex.Unlock()

	cacheKey := businessId + "-" + key + "_seq"
	var seqNo int64
	var err error

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, seed from db
		if seqNo <= 1 {
			dbSeq, err := seed(ctx)
			if err != nil {
				return 0, err
			}
			seqNo = dbSeq + 1
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		if validate == nil {
			break
		}
		// check if sequence number already exists in db
		if err := validate(ctx, seqNo); err == nil {
			break
		}
	}
	return seqNo, nil
}

// GetSequence returns the next per-business serial for model T,
// seeded from max(sequence_no) of the model's table.
func GetSequence[T any](ctx context.Context, businessId string) (int64, error) {
	var model T
	key := strings.ToLower(GetTypeName[T]())

	seed := func(ctx context.Context) (int64, error) {
		db := config.GetDB()
		var dbSeq *int64
		if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
			Where("business_id = ?", businessId).
			Scan(&dbSeq).Error; err != nil {
			return 0, err
		}
		if dbSeq == nil {
			return 0, nil
		}
		return *dbSeq, nil
	}
	validate := func(ctx context.Context, seqNo int64) error {
		return ValidateUnique[T](ctx, businessId, "sequence_no", seqNo, 0)
	}

	return NextSequence(ctx, businessId, key, seed, validate)
}
