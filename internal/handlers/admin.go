package handlers

import (
	"net/http"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/models"
)

// AdminHandler serves the dashboard and analytics views.
type AdminHandler struct {
	users       db.UserCollection
	vehicles    db.VehicleCollection
	trips       db.TripCollection
	maintenance db.MaintenanceCollection
	fuel        db.FuelCollection
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users db.UserCollection, vehicles db.VehicleCollection, trips db.TripCollection, maintenance db.MaintenanceCollection, fuel db.FuelCollection) *AdminHandler {
	return &AdminHandler{
		users:       users,
		vehicles:    vehicles,
		trips:       trips,
		maintenance: maintenance,
		fuel:        fuel,
	}
}

// Dashboard returns the fleet overview: vehicle counts by status, the
// utilization rate, active trip and driver counts, maintenance due within a
// week and the most recent trips.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicles, err := h.vehicles.FindVehicles(ctx, bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}

	vehiclesByStatus := map[models.VehicleStatus]int{}
	for _, v := range vehicles {
		vehiclesByStatus[v.Status]++
	}

	inService := len(vehicles) - vehiclesByStatus[models.VehicleOutOfService]
	utilization := 0.0
	if inService > 0 {
		utilization = float64(vehiclesByStatus[models.VehicleInUse]) / float64(inService)
	}

	activeTrips, err := h.trips.FindTrips(ctx, bson.M{
		"status": bson.M{"$in": bson.A{models.TripScheduled, models.TripInProgress, models.TripDelayed}},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	drivers, err := h.users.FindUsers(ctx, bson.M{"is_driver": true, "status": models.UserActive})
	if err != nil {
		writeError(w, err)
		return
	}

	weekAhead := time.Now().AddDate(0, 0, 7)
	upcomingMaintenance, err := h.maintenance.FindMaintenance(ctx, bson.M{
		"status":         models.MaintenanceScheduled,
		"scheduled_date": bson.M{"$lte": weekAhead},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	allTrips, err := h.trips.FindTrips(ctx, bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}
	sort.Slice(allTrips, func(i, j int) bool {
		return allTrips[i].CreatedAt.After(allTrips[j].CreatedAt)
	})
	recentTrips := allTrips
	if len(recentTrips) > 10 {
		recentTrips = recentTrips[:10]
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"total_vehicles":       len(vehicles),
		"vehicles_by_status":   vehiclesByStatus,
		"utilization_rate":     utilization,
		"active_trips":         len(activeTrips),
		"active_drivers":       len(drivers),
		"upcoming_maintenance": len(upcomingMaintenance),
		"recent_trips":         recentTrips,
	})
}

// Analytics returns status aggregations for vehicles and trips plus fuel
// spend totals per vehicle.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicles, err := h.vehicles.FindVehicles(ctx, bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}
	vehiclesByStatus := map[models.VehicleStatus]int{}
	vehiclesByType := map[string]int{}
	for _, v := range vehicles {
		vehiclesByStatus[v.Status]++
		vehiclesByType[v.VehicleType]++
	}

	trips, err := h.trips.FindTrips(ctx, bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}
	tripsByStatus := map[models.TripStatus]int{}
	var totalTripCost float64
	for _, t := range trips {
		tripsByStatus[t.Status]++
		totalTripCost += t.ActualCost
	}

	fuel, err := h.fuel.FindFuel(ctx, bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}
	var totalFuelCost, totalFuelAmount float64
	fuelCostByVehicle := map[string]float64{}
	for _, f := range fuel {
		totalFuelCost += f.TotalCost
		totalFuelAmount += f.FuelAmount
		fuelCostByVehicle[f.VehicleID.Hex()] += f.TotalCost
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"vehicles_by_status":   vehiclesByStatus,
		"vehicles_by_type":     vehiclesByType,
		"trips_by_status":      tripsByStatus,
		"total_trip_cost":      totalTripCost,
		"total_fuel_cost":      totalFuelCost,
		"total_fuel_amount":    totalFuelAmount,
		"fuel_cost_by_vehicle": fuelCostByVehicle,
	})
}
