// Package tracking ingests vehicle location pings from the telematics
// broker and applies them to the vehicle records.
package tracking

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/models"
)

// LocationPing is the payload published by trackers on
// fleet/vehicles/<registration>/location.
type LocationPing struct {
	Registration string    `json:"registration"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Timestamp    time.Time `json:"timestamp"`
}

// Ingestor subscribes to the location topic and updates vehicles.
type Ingestor struct {
	client   mqtt.Client
	vehicles db.VehicleCollection
	topic    string
}

// NewIngestor connects to the broker and returns a ready ingestor.
func NewIngestor(brokerURL, clientID, topic string, vehicles db.VehicleCollection) (*Ingestor, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return &Ingestor{client: client, vehicles: vehicles, topic: topic}, nil
}

// Start subscribes to the location topic. Malformed pings are logged and
// dropped; a failed vehicle update is logged and the ping discarded, since
// the next ping supersedes it anyway.
func (i *Ingestor) Start() error {
	token := i.client.Subscribe(i.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var ping LocationPing
		if err := json.Unmarshal(msg.Payload(), &ping); err != nil {
			log.WithError(err).WithField("topic", msg.Topic()).Warn("dropping malformed location ping")
			return
		}
		if ping.Registration == "" {
			log.WithField("topic", msg.Topic()).Warn("dropping location ping without registration")
			return
		}
		if ping.Timestamp.IsZero() {
			ping.Timestamp = time.Now()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		location := models.Location{Lat: ping.Lat, Lon: ping.Lon, Timestamp: ping.Timestamp}
		if err := i.vehicles.UpdateLocation(ctx, ping.Registration, location); err != nil {
			log.WithError(err).WithField("registration", ping.Registration).Warn("location update failed")
		}
	})

	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	log.WithField("topic", i.topic).Info("location ingest started")
	return nil
}

// Stop disconnects from the broker.
func (i *Ingestor) Stop() {
	i.client.Disconnect(250)
}
