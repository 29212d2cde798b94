package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-rentals/internal/models"
)

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Brand{}, &models.Parameter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	brands := New[models.Brand](setupStoreTestDB(t))

	id, err := brands.Insert(ctx, &models.Brand{Name: "Renault"})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := brands.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renault", got.Name)

	require.NoError(t, brands.Update(ctx, id, map[string]any{"logo": "renault.png"}))
	got, _ = brands.Get(ctx, id)
	assert.Equal(t, "Renault", got.Name, "absent field must be kept")
	assert.Equal(t, "renault.png", got.Logo)

	require.NoError(t, brands.Delete(ctx, id))
	got, err = brands.Get(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollection_MissingDocument(t *testing.T) {
	ctx := context.Background()
	brands := New[models.Brand](setupStoreTestDB(t))

	got, err := brands.Get(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, brands.Update(ctx, "nope", map[string]any{"name": "x"}), ErrNotFound)
	assert.ErrorIs(t, brands.Delete(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, brands.Update(ctx, "nope", map[string]any{"name; drop": "x"}), ErrBadField)
}

func TestCollection_Query(t *testing.T) {
	ctx := context.Background()
	params := New[models.Parameter](setupStoreTestDB(t))
	for i, v := range []string{"cash", "cheque", "card", "transfer"} {
		_, err := params.Insert(ctx, &models.Parameter{Type: models.ParamDepositType, Value: v, Order: i + 1})
		require.NoError(t, err)
	}
	_, err := params.Insert(ctx, &models.Parameter{Type: models.ParamAnomalyType, Value: "scratch", Order: 1})
	require.NoError(t, err)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"eq ordered", Where(Eq("type", models.ParamDepositType)).Order("sort_order"), []string{"cash", "cheque", "card", "transfer"}},
		{"desc with limit", Where(Eq("type", models.ParamDepositType)).OrderDesc("sort_order").Take(2), []string{"transfer", "card"}},
		{"range", Where(Eq("type", models.ParamDepositType), Gte("sort_order", 2), Lt("sort_order", 4)).Order("sort_order"), []string{"cheque", "card"}},
		{"in", Where(In("value", []string{"card", "scratch"})).Order("value"), []string{"card", "scratch"}},
		{"empty in", Where(In("value", []string{})), nil},
		{"prefix", Where(Prefix("value", "ch")).Order("value"), []string{"cheque"}},
		{"neq", Where(Neq("type", models.ParamDepositType)), []string{"scratch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := params.Query(ctx, tt.q)
			require.NoError(t, err)
			var values []string
			for _, p := range got {
				values = append(values, p.Value)
			}
			assert.Equal(t, tt.want, values)
		})
	}

	_, err = params.Query(ctx, Where(Filter{Field: "value", Op: "~", Value: "x"}))
	assert.ErrorIs(t, err, ErrUnknownOp)
	_, err = params.Query(ctx, Query{OrderBy: "value desc"})
	assert.ErrorIs(t, err, ErrBadField)
}

func TestCollection_DeleteWhere(t *testing.T) {
	ctx := context.Background()
	params := New[models.Parameter](setupStoreTestDB(t))
	for _, v := range []string{"a", "b"} {
		_, err := params.Insert(ctx, &models.Parameter{Type: models.ParamAnomalyType, Value: v})
		require.NoError(t, err)
	}
	n, err := params.DeleteWhere(ctx, Eq("type", models.ParamAnomalyType))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = params.DeleteWhere(ctx)
	assert.Error(t, err)
}

func TestUndo_RollbackReverseOrder(t *testing.T) {
	var order []int
	var u Undo
	for i := 1; i <= 3; i++ {
		u.Push(func(context.Context) error { order = append(order, i); return nil })
	}
	require.NoError(t, u.Rollback(context.Background()))
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Equal(t, 0, u.Len())
}

func TestUndo_FailJoinsErrors(t *testing.T) {
	cause := errors.New("write lines")
	rb := errors.New("delete header")
	var u Undo
	u.Push(func(context.Context) error { return rb })
	err := u.Fail(context.Background(), cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, rb)
}

func TestInsert_RegistersDeletion(t *testing.T) {
	ctx := context.Background()
	brands := New[models.Brand](setupStoreTestDB(t))
	var u Undo
	id, err := Insert(ctx, &u, brands, &models.Brand{Name: "Kia", Base: models.Base{CreatedAt: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, u.Rollback(ctx))
	got, err := brands.Get(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
