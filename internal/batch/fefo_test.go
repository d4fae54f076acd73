package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posagent/internal/model"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func id(n int64) *int64 { return &n }

func TestProposeFEFOExpiresSoonestFirstNullsLast(t *testing.T) {
	available := []model.ProductBatch{
		{BatchID: id(2), Quantity: 10, ExpiryDate: date("2025-06-01")},
		{BatchID: id(3), Quantity: 3, ExpiryDate: nil},
		{BatchID: id(1), Quantity: 5, ExpiryDate: date("2025-01-01")},
	}

	assignments := Propose(available, 8)
	require.Len(t, assignments, 3)

	assert.Equal(t, int64(1), *assignments[0].Batch.BatchID)
	assert.Equal(t, 5, assignments[0].Quantity)
	assert.Equal(t, int64(2), *assignments[1].Batch.BatchID)
	assert.Equal(t, 3, assignments[1].Quantity)
	assert.Equal(t, int64(3), *assignments[2].Batch.BatchID)
	assert.Equal(t, 0, assignments[2].Quantity)

	assert.NoError(t, Validate(assignments, 8))
}

func TestProposeSkipsEmptyLots(t *testing.T) {
	available := []model.ProductBatch{
		{BatchID: id(1), Quantity: 0, ExpiryDate: date("2024-01-01")},
		{BatchID: id(2), Quantity: 4, ExpiryDate: date("2025-01-01")},
	}
	assignments := Propose(available, 2)
	require.Len(t, assignments, 1)
	assert.Equal(t, int64(2), *assignments[0].Batch.BatchID)
	assert.Equal(t, 2, assignments[0].Quantity)
}

func TestProposeShortfallSumsToAvailability(t *testing.T) {
	available := []model.ProductBatch{
		{BatchID: id(1), Quantity: 3, ExpiryDate: date("2025-01-01")},
	}
	assignments := Propose(available, 10)
	err := Validate(assignments, 10)
	require.Error(t, err)

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, -7, mismatch.Delta())
	assert.Contains(t, err.Error(), "short of the requested quantity by 7")
}

func TestValidateOverAllocationNamesExcess(t *testing.T) {
	assignments := []Assignment{
		{Batch: model.ProductBatch{BatchID: id(1), Quantity: 10}, Quantity: 6},
		{Batch: model.ProductBatch{BatchID: id(2), Quantity: 10}, Quantity: 6},
	}
	err := Validate(assignments, 8)
	require.Error(t, err)

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 4, mismatch.Delta())
	assert.Contains(t, err.Error(), "exceeds the requested quantity by 4")
}

func TestValidateUntrackedInventoryIsAllowed(t *testing.T) {
	assert.NoError(t, Validate(nil, 5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 10))
	assert.Equal(t, 10, Clamp(15, 10))
	assert.Equal(t, 7, Clamp(7, 10))
}

func TestSelectionsDropZeroRows(t *testing.T) {
	assignments := []Assignment{
		{Batch: model.ProductBatch{BatchID: id(1)}, Quantity: 5},
		{Batch: model.ProductBatch{BatchID: id(2)}, Quantity: 0},
	}
	sels := Selections(assignments)
	require.Len(t, sels, 1)
	assert.Equal(t, int64(1), *sels[0].BatchID)
	assert.Equal(t, 5, sels[0].Quantity)
}
