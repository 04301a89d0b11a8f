package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

type memItemStore struct {
	items    map[int64]*models.ItemJobSection
	sections  map[int64]int64
	nextID    int64
	createErr error
}

func (m *memItemStore) FindByID(ctx context.Context, id int64) (*models.ItemJobSectionRef, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ItemJobSectionRef{ItemJobSection: *item, DocumentID: m.sections[item.JobSectionID]}, nil
}

func (m *memItemStore) ExistsByName(ctx context.Context, jobSectionID int64, name string, excludeID int64) (bool, error) {
	for _, item := range m.items {
		if item.JobSectionID == jobSectionID && item.Name == name && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memItemStore) Create(ctx context.Context, item *models.ItemJobSection) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	item.ID = m.nextID
	copy := *item
	m.items[item.ID] = &copy
	return nil
}

func (m *memItemStore) Update(ctx context.Context, item *models.ItemJobSection) error {
	if _, ok := m.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *item
	m.items[item.ID] = &copy
	return nil
}

func (m *memItemStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func newItemFixture(status models.DocumentStatus) (*ItemJobSectionService, *memItemStore) {
	docs := newMemDocumentStore(sampleDocument(status))
	sections := newMemSectionStore(models.JobSection{ID: 1, DocumentID: 10, Name: "Pondasi"})
	existing := pricedItem("1", "1", "10000", "50000")
	existing.ID, existing.JobSectionID, existing.Name, existing.Unit = 7, 1, "Galian", "m3"
	other := pricedItem("1", "1", "100", "100")
	other.ID, other.JobSectionID, other.Name, other.Unit = 8, 1, "Urugan", "m3"
	items := &memItemStore{
		items:    map[int64]*models.ItemJobSection{7: &existing, 8: &other},
		sections: map[int64]int64{1: 10},
		nextID:   20,
	}
	return NewItemJobSectionService(docs, sections, items, &recordingAudit{}, nil, zap.NewNop()), items
}

func TestItemJobSectionServiceCreateComputesTotals(t *testing.T) {
	svc, store := newItemFixture(models.DocumentStatusInProgress)

	item, err := svc.Create(context.Background(), dto.CreateItemJobSectionRequest{
		Name:                 "Beton",
		Volume:               decPtr("3"),
		MinimumVolume:        decPtr("10"),
		MaterialPricePerUnit: decPtr("150000"),
		FeePricePerUnit:      decPtr("45000"),
		Unit:                 "m3",
		JobSectionID:         1,
	}, creatorID)
	require.NoError(t, err)
	assert.True(t, item.TotalMaterialPrice.Equal(dec("45000")))
	assert.True(t, item.TotalFeePrice.Equal(dec("13500")))
	assert.Contains(t, store.items, item.ID)
}

func TestItemJobSectionServiceCreateValidation(t *testing.T) {
	svc, _ := newItemFixture(models.DocumentStatusInProgress)
	ctx := context.Background()
	base := dto.CreateItemJobSectionRequest{
		Name:                 "Beton",
		Volume:               decPtr("1"),
		MinimumVolume:        decPtr("0"),
		MaterialPricePerUnit: decPtr("1"),
		FeePricePerUnit:      decPtr("1"),
		Unit:                 "m3",
		JobSectionID:         1,
	}

	_, err := svc.Create(ctx, base, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)

	base.MinimumVolume = decPtr("1")
	base.Volume = decPtr("-1")
	_, err = svc.Create(ctx, base, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)

	base.Volume = decPtr("1")
	base.Name = "Galian"
	_, err = svc.Create(ctx, base, creatorID)
	requireAppCode(t, err, appErrors.ErrConflict)

	base.Name = "Beton"
	base.JobSectionID = 99
	_, err = svc.Create(ctx, base, creatorID)
	requireAppCode(t, err, appErrors.ErrNotFound)

	base.Volume = nil
	_, err = svc.Create(ctx, base, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)
}

func TestItemJobSectionServiceCreateMapsConstraintErrors(t *testing.T) {
	svc, store := newItemFixture(models.DocumentStatusInProgress)
	req := dto.CreateItemJobSectionRequest{
		Name:                 "Beton",
		Volume:               decPtr("1"),
		MinimumVolume:        decPtr("1"),
		MaterialPricePerUnit: decPtr("1"),
		FeePricePerUnit:      decPtr("1"),
		Unit:                 "m3",
		JobSectionID:         1,
	}

	store.createErr = &pq.Error{Code: "23514", Constraint: "item_job_sections_volume_check"}
	_, err := svc.Create(context.Background(), req, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)

	store.createErr = &pq.Error{Code: "23503"}
	_, err = svc.Create(context.Background(), req, creatorID)
	requireAppCode(t, err, appErrors.ErrNotFound)

	store.createErr = &pq.Error{Code: "22003", Message: "numeric field overflow"}
	_, err = svc.Create(context.Background(), req, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)
}

func TestItemJobSectionServiceRejectsExcessScale(t *testing.T) {
	svc, store := newItemFixture(models.DocumentStatusInProgress)
	ctx := context.Background()
	req := dto.CreateItemJobSectionRequest{
		Name:                 "Beton",
		Volume:               decPtr("1.23456"),
		MinimumVolume:        decPtr("1"),
		MaterialPricePerUnit: decPtr("1000"),
		FeePricePerUnit:      decPtr("500"),
		Unit:                 "m3",
		JobSectionID:         1,
	}

	_, err := svc.Create(ctx, req, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "volume")
	assert.Len(t, store.items, 2)

	req.Volume = decPtr("1.23450")
	item, err := svc.Create(ctx, req, creatorID)
	require.NoError(t, err)
	assert.True(t, item.Volume.Equal(dec("1.2345")))
	material, fee := ComputeItemTotals(dec("1.2345"), dec("1"), dec("1000"), dec("500"))
	assert.True(t, item.TotalMaterialPrice.Equal(material))
	assert.True(t, item.TotalFeePrice.Equal(fee))

	_, err = svc.Update(ctx, item.ID, dto.UpdateItemJobSectionRequest{FeePricePerUnit: decPtr("0.00001")}, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)
	assert.True(t, store.items[item.ID].FeePricePerUnit.Equal(dec("500")))
}

func TestItemJobSectionServiceUpdate(t *testing.T) {
	svc, store := newItemFixture(models.DocumentStatusInProgress)
	ctx := context.Background()

	sameName := "Galian"
	item, err := svc.Update(ctx, 7, dto.UpdateItemJobSectionRequest{Name: &sameName, Volume: decPtr("2")}, creatorID)
	require.NoError(t, err)
	assert.True(t, item.TotalMaterialPrice.Equal(dec("20000")))
	assert.True(t, item.TotalFeePrice.Equal(dec("100000")))
	assert.True(t, store.items[7].Volume.Equal(dec("2")))

	taken := "Urugan"
	_, err = svc.Update(ctx, 7, dto.UpdateItemJobSectionRequest{Name: &taken}, creatorID)
	requireAppCode(t, err, appErrors.ErrConflict)

	_, err = svc.Update(ctx, 7, dto.UpdateItemJobSectionRequest{MinimumVolume: decPtr("0")}, creatorID)
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, 7, dto.UpdateItemJobSectionRequest{Volume: decPtr("5")}, checkerID)
	requireAppCode(t, err, appErrors.ErrForbidden)
}

func TestItemJobSectionServiceRequiresInProgress(t *testing.T) {
	svc, store := newItemFixture(models.DocumentStatusApproved)
	ctx := context.Background()

	_, err := svc.Update(ctx, 7, dto.UpdateItemJobSectionRequest{Volume: decPtr("5")}, creatorID)
	requireAppCode(t, err, appErrors.ErrBadRequest)

	err = svc.Delete(ctx, 7, creatorID)
	requireAppCode(t, err, appErrors.ErrBadRequest)
	assert.Contains(t, store.items, int64(7))
}

func TestItemJobSectionServiceDelete(t *testing.T) {
	svc, store := newItemFixture(models.DocumentStatusInProgress)

	require.NoError(t, svc.Delete(context.Background(), 8, creatorID))
	assert.NotContains(t, store.items, int64(8))

	err := svc.Delete(context.Background(), 8, creatorID)
	requireAppCode(t, err, appErrors.ErrNotFound)
}
