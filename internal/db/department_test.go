package db

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

// testCollection connects to the database named by MONGO_URI and returns a
// dropped-clean collection. Skips when no database is reachable.
func testCollection(t *testing.T, name string) *mongo.Collection {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	client, err := Connect(uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	collection := client.Database("test_fleet").Collection(name)
	collection.Drop(context.Background())
	return collection
}

func TestDeductFundsRejectsNonPositiveAmount(t *testing.T) {
	departments := &MongoDepartmentCollection{}

	_, err := departments.DeductFunds(context.Background(), primitive.NewObjectID(), 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = departments.DeductFunds(context.Background(), primitive.NewObjectID(), -50)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeductFunds(t *testing.T) {
	departments := &MongoDepartmentCollection{Collection: testCollection(t, "departments")}

	id, err := departments.InsertDepartment(context.Background(), models.Department{
		Name:           "Operations",
		AllocatedFunds: 1000,
		AvailableFunds: 1000,
	})
	require.NoError(t, err)

	dept, err := departments.DeductFunds(context.Background(), id, 300)
	require.NoError(t, err)
	assert.Equal(t, 700.0, dept.AvailableFunds)
	assert.Equal(t, 1000.0, dept.AllocatedFunds)

	// deduction past the balance is refused and leaves the balance intact
	_, err = departments.DeductFunds(context.Background(), id, 800)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindState))

	dept, err = departments.FindDepartmentByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 700.0, dept.AvailableFunds)
}

func TestDeductFundsUnknownDepartment(t *testing.T) {
	departments := &MongoDepartmentCollection{Collection: testCollection(t, "departments")}

	_, err := departments.DeductFunds(context.Background(), primitive.NewObjectID(), 100)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// Ten concurrent deductions of 200 against a balance of 1000: exactly five
// succeed and the balance lands on zero, never below.
func TestConcurrentDeductionsNeverOverdraw(t *testing.T) {
	departments := &MongoDepartmentCollection{Collection: testCollection(t, "departments")}

	id, err := departments.InsertDepartment(context.Background(), models.Department{
		Name:           "Operations",
		AllocatedFunds: 1000,
		AvailableFunds: 1000,
	})
	require.NoError(t, err)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := departments.DeductFunds(context.Background(), id, 200); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), wins)
	dept, err := departments.FindDepartmentByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dept.AvailableFunds)
}
