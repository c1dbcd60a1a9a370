package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/config"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/fleet"
	"github.com/fleetops/fleet-management/internal/handlers"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
	"github.com/fleetops/fleet-management/internal/notify"
	"github.com/fleetops/fleet-management/internal/tracking"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg := config.Load()

	client, err := db.Connect(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("mongo disconnect failed")
		}
	}()
	log.Info("connected to MongoDB")

	database := client.Database(cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		cancel()
		log.WithError(err).Fatal("failed to create indexes")
	}
	cancel()

	users := &db.MongoUserCollection{Collection: database.Collection("users")}
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	trips := &db.MongoTripCollection{Collection: database.Collection("trips")}
	maintenance := &db.MongoMaintenanceCollection{Collection: database.Collection("maintenance")}
	fuel := &db.MongoFuelCollection{Collection: database.Collection("fuel")}
	departments := &db.MongoDepartmentCollection{Collection: database.Collection("departments")}
	subsidiaries := &db.MongoSubsidiaryCollection{Collection: database.Collection("subsidiaries")}
	costs := &db.MongoCostCollection{Collection: database.Collection("costs")}
	accidents := &db.MongoAccidentCollection{Collection: database.Collection("accidents")}
	parking := &db.MongoParkingCollection{Collection: database.Collection("parking")}
	shuttles := &db.MongoShuttleCollection{Collection: database.Collection("shuttles")}

	authService := auth.NewService(cfg.JWTSecret, cfg.TokenExpiry)

	var notifier fleet.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		log.WithField("host", cfg.SMTP.Host).Info("email notifications enabled")
	}

	vehicleManager := fleet.NewVehicleManager(vehicles, trips)
	tripManager := fleet.NewTripManager(trips, users, vehicleManager, notifier)
	maintenanceManager := fleet.NewMaintenanceManager(maintenance, vehicleManager)

	if cfg.MQTT.BrokerURL != "" {
		ingestor, err := tracking.NewIngestor(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, cfg.MQTT.Topic, vehicles)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to MQTT broker")
		}
		if err := ingestor.Start(); err != nil {
			log.WithError(err).Fatal("failed to start location ingest")
		}
		defer ingestor.Stop()
	}

	authHandler := handlers.NewAuthHandler(authService, users)
	userHandler := handlers.NewUserHandler(authService, users)
	vehicleHandler := handlers.NewVehicleHandler(vehicles, vehicleManager)
	tripHandler := handlers.NewTripHandler(trips, vehicles, tripManager)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenance, maintenanceManager)
	fuelHandler := handlers.NewFuelHandler(fuel)
	departmentHandler := handlers.NewDepartmentHandler(departments, subsidiaries)
	ledgerHandler := handlers.NewLedgerHandler(costs, accidents, parking, shuttles)
	adminHandler := handlers.NewAdminHandler(users, vehicles, trips, maintenance, fuel)

	authMW := middleware.NewAuthMiddleware(authService, users)
	rateLimiter := middleware.NewRateLimitMiddleware(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	mux := http.NewServeMux()

	// protected wires the standard chain for an authenticated route.
	protected := func(capability models.Capability, handler http.HandlerFunc) http.Handler {
		return authMW.Authenticate(authMW.RequirePermission(capability)(handler))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/profile", authMW.Authenticate(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("POST /api/auth/change-password", authMW.Authenticate(http.HandlerFunc(authHandler.ChangePassword)))

	mux.Handle("POST /api/users", protected(models.CapUserManagement, userHandler.CreateUser))
	mux.Handle("POST /api/users/batch", protected(models.CapUserManagement, userHandler.BatchCreateUsers))
	mux.Handle("GET /api/users", protected(models.CapUserManagement, userHandler.ListUsers))
	mux.Handle("GET /api/users/drivers", protected(models.CapTripManagement, userHandler.GetDrivers))
	mux.Handle("GET /api/users/{id}", protected(models.CapUserManagement, userHandler.GetUser))
	mux.Handle("PUT /api/users/{id}", protected(models.CapUserManagement, userHandler.UpdateUser))
	mux.Handle("PUT /api/users/{id}/role", protected(models.CapUserManagement, userHandler.UpdateRole))
	mux.Handle("DELETE /api/users/{id}", protected(models.CapUserManagement, userHandler.DeleteUser))

	mux.Handle("POST /api/vehicles", protected(models.CapVehicleManagement, vehicleHandler.CreateVehicle))
	mux.Handle("GET /api/vehicles", protected(models.CapDashboard, vehicleHandler.ListVehicles))
	mux.Handle("GET /api/vehicles/registration/{registration}", protected(models.CapDashboard, vehicleHandler.GetVehicleByRegistration))
	mux.Handle("GET /api/vehicles/{id}", protected(models.CapDashboard, vehicleHandler.GetVehicle))
	mux.Handle("PUT /api/vehicles/{id}", protected(models.CapVehicleManagement, vehicleHandler.UpdateVehicle))
	mux.Handle("POST /api/vehicles/{id}/assign", protected(models.CapVehicleManagement, vehicleHandler.AssignVehicle))
	mux.Handle("POST /api/vehicles/{id}/unassign", protected(models.CapVehicleManagement, vehicleHandler.UnassignVehicle))
	mux.Handle("POST /api/vehicles/{id}/retire", protected(models.CapVehicleManagement, vehicleHandler.RetireVehicle))
	mux.Handle("POST /api/vehicles/{id}/reactivate", protected(models.CapVehicleManagement, vehicleHandler.ReactivateVehicle))
	mux.Handle("DELETE /api/vehicles/{id}", protected(models.CapVehicleManagement, vehicleHandler.DeleteVehicle))

	mux.Handle("POST /api/trips", protected(models.CapTripManagement, tripHandler.CreateTrip))
	mux.Handle("GET /api/trips", protected(models.CapTripManagement, tripHandler.ListTrips))
	mux.Handle("GET /api/trips/{id}", protected(models.CapTripManagement, tripHandler.GetTrip))
	mux.Handle("PUT /api/trips/{id}", protected(models.CapTripManagement, tripHandler.UpdateTrip))
	mux.Handle("PUT /api/trips/{id}/status", protected(models.CapTripManagement, tripHandler.UpdateTripStatus))
	mux.Handle("POST /api/trips/{id}/reassign", protected(models.CapTripManagement, tripHandler.ReassignTrip))
	mux.Handle("POST /api/trips/{id}/cancel", protected(models.CapTripManagement, tripHandler.CancelTrip))

	mux.Handle("POST /api/maintenance", protected(models.CapMaintenanceManagement, maintenanceHandler.ScheduleMaintenance))
	mux.Handle("GET /api/maintenance", protected(models.CapMaintenanceManagement, maintenanceHandler.ListMaintenance))
	mux.Handle("GET /api/maintenance/vehicle/{vehicleId}", protected(models.CapMaintenanceManagement, maintenanceHandler.GetVehicleMaintenance))
	mux.Handle("GET /api/maintenance/{id}", protected(models.CapMaintenanceManagement, maintenanceHandler.GetMaintenance))
	mux.Handle("PUT /api/maintenance/{id}", protected(models.CapMaintenanceManagement, maintenanceHandler.UpdateMaintenance))
	mux.Handle("PUT /api/maintenance/{id}/status", protected(models.CapMaintenanceManagement, maintenanceHandler.UpdateMaintenanceStatus))
	mux.Handle("POST /api/maintenance/{id}/complete", protected(models.CapMaintenanceManagement, maintenanceHandler.CompleteMaintenance))
	mux.Handle("POST /api/maintenance/{id}/cancel", protected(models.CapMaintenanceManagement, maintenanceHandler.CancelMaintenance))

	mux.Handle("POST /api/fuel", protected(models.CapFuelManagement, fuelHandler.RecordFuel))
	mux.Handle("GET /api/fuel", protected(models.CapFuelManagement, fuelHandler.ListFuel))
	mux.Handle("GET /api/fuel/{id}", protected(models.CapFuelManagement, fuelHandler.GetFuel))
	mux.Handle("PUT /api/fuel/{id}", protected(models.CapFuelManagement, fuelHandler.UpdateFuel))
	mux.Handle("POST /api/fuel/{id}/verify", protected(models.CapFuelManagement, fuelHandler.VerifyFuel))
	mux.Handle("DELETE /api/fuel/{id}", protected(models.CapFuelManagement, fuelHandler.DeleteFuel))

	mux.Handle("POST /api/departments", protected(models.CapSystemSettings, departmentHandler.CreateDepartment))
	mux.Handle("GET /api/departments", protected(models.CapDashboard, departmentHandler.ListDepartments))
	mux.Handle("GET /api/departments/{id}", protected(models.CapDashboard, departmentHandler.GetDepartment))
	mux.Handle("PUT /api/departments/{id}", protected(models.CapSystemSettings, departmentHandler.UpdateDepartment))
	mux.Handle("PUT /api/departments/{id}/budget", protected(models.CapSystemSettings, departmentHandler.UpdateBudget))
	mux.Handle("POST /api/departments/{id}/deduct", protected(models.CapFuelManagement, departmentHandler.DeductFunds))
	mux.Handle("POST /api/subsidiaries", protected(models.CapSystemSettings, departmentHandler.CreateSubsidiary))
	mux.Handle("GET /api/subsidiaries", protected(models.CapDashboard, departmentHandler.ListSubsidiaries))

	mux.Handle("POST /api/costs", protected(models.CapFuelManagement, ledgerHandler.RecordCost))
	mux.Handle("GET /api/costs", protected(models.CapAnalytics, ledgerHandler.ListCosts))
	mux.Handle("POST /api/accidents", protected(models.CapCompliance, ledgerHandler.ReportAccident))
	mux.Handle("GET /api/accidents", protected(models.CapCompliance, ledgerHandler.ListAccidents))
	mux.Handle("POST /api/parking", protected(models.CapVehicleManagement, ledgerHandler.StartParking))
	mux.Handle("GET /api/parking", protected(models.CapVehicleManagement, ledgerHandler.ListParking))
	mux.Handle("POST /api/parking/{id}/end", protected(models.CapVehicleManagement, ledgerHandler.EndParking))
	mux.Handle("POST /api/shuttles", protected(models.CapVehicleManagement, ledgerHandler.CreateShuttle))
	mux.Handle("GET /api/shuttles", protected(models.CapDashboard, ledgerHandler.ListShuttles))
	mux.Handle("PUT /api/shuttles/{id}", protected(models.CapVehicleManagement, ledgerHandler.UpdateShuttle))

	mux.Handle("GET /api/admin/dashboard", protected(models.CapDashboard, adminHandler.Dashboard))
	mux.Handle("GET /api/admin/analytics", protected(models.CapAnalytics, adminHandler.Analytics))

	handler := middleware.Observe(rateLimiter.RateLimit(mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
